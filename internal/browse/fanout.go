package browse

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rescale/box-browse/internal/collect"
	"github.com/rescale/box-browse/internal/dispatch"
	"github.com/rescale/box-browse/internal/events"
	"github.com/rescale/box-browse/internal/logging"
	"github.com/rescale/box-browse/internal/models"
)

// maxParallelRequests bounds the API calls of one batch.
const maxParallelRequests = 4

// Results maps each item of a batch to its outcome.
type Results = map[models.Identifier]collect.Result[models.Item]

// ProgressFunc reports how many items of a batch have finished. It runs
// on the queue.
type ProgressFunc func(done, total int)

type batch struct {
	operation string
	queue     *dispatch.Queue
	eventBus  *events.EventBus
	logger    *logging.Logger
	progress  ProgressFunc
}

// run calls do for every item, at most maxParallelRequests at a time, and
// passes all outcomes to done on the queue. Duplicate items are processed
// once.
func (b batch) run(ctx context.Context, items []models.Item, do func(context.Context, models.Item) (models.Item, error), done func(Results)) {
	collector := collect.New[models.Identifier, collect.Result[models.Item]]()

	type job struct {
		item models.Item
		sink func(collect.Result[models.Item])
	}
	seen := make(map[models.Identifier]bool, len(items))
	jobs := make([]job, 0, len(items))
	for _, item := range items {
		id := models.ItemID(item)
		if seen[id] {
			continue
		}
		seen[id] = true
		jobs = append(jobs, job{item: item, sink: collector.Register(id)})
	}
	total := len(jobs)

	collector.SetCompletion(func(results Results) {
		b.queue.Async(func() { done(results) })
	})

	var finished atomic.Int32
	go func() {
		var g errgroup.Group
		g.SetLimit(maxParallelRequests)
		for _, j := range jobs {
			g.Go(func() error {
				id := models.ItemID(j.item)
				result, err := do(ctx, j.item)
				if err != nil {
					b.logger.Warn().Err(err).Str("operation", b.operation).Str("item_id", id.ID).Msg("batch item failed")
				}
				n := int(finished.Add(1))
				b.eventBus.Publish(&events.FanOutEvent{
					BaseEvent: events.NewBase(events.EventFanOut),
					Operation: b.operation,
					ItemID:    id.ID,
					Done:      n,
					Total:     total,
					Error:     err,
				})
				if b.progress != nil {
					b.queue.Async(func() { b.progress(n, total) })
				}
				if err != nil {
					j.sink(collect.Fail[models.Item](err))
				} else {
					j.sink(collect.Ok(result))
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}
