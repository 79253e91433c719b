// Package collect joins a set of independent asynchronous operations.
//
// A Collector hands out one single-use sink per key. Once every sink has
// been called, the completion handler receives all results keyed by the
// key they were registered under. Misuse (calling a sink twice, or setting
// the completion twice) is a programming error and panics.
package collect

import (
	"fmt"
	"sync"
)

// Result is the outcome of one collected operation.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Collector gathers one value per registered key.
type Collector[K comparable, V any] struct {
	mu         sync.Mutex
	pending    map[K]struct{}
	results    map[K]V
	completion func(map[K]V)
	fired      bool
}

// New returns an empty collector.
func New[K comparable, V any]() *Collector[K, V] {
	return &Collector[K, V]{
		pending: make(map[K]struct{}),
		results: make(map[K]V),
	}
}

// Register reserves a slot for key and returns the sink that fills it.
// Registering a key that is already pending or already recorded panics.
func (c *Collector[K, V]) Register(key K) func(V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fired {
		panic(fmt.Sprintf("collect: register %v after completion", key))
	}
	if _, ok := c.pending[key]; ok {
		panic(fmt.Sprintf("collect: key %v registered twice", key))
	}
	if _, ok := c.results[key]; ok {
		panic(fmt.Sprintf("collect: key %v registered twice", key))
	}
	c.pending[key] = struct{}{}

	return func(v V) {
		c.record(key, v)
	}
}

// SetCompletion installs the handler run once all sinks have been called.
// If every registered sink has already reported, done runs immediately on
// the calling goroutine. Calling SetCompletion twice panics.
func (c *Collector[K, V]) SetCompletion(done func(map[K]V)) {
	c.mu.Lock()
	if c.completion != nil {
		c.mu.Unlock()
		panic("collect: completion set twice")
	}
	c.completion = done
	results, ok := c.takeLocked()
	c.mu.Unlock()

	if ok {
		done(results)
	}
}

// Pending returns the number of sinks not yet called.
func (c *Collector[K, V]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Collector[K, V]) record(key K, v V) {
	c.mu.Lock()
	if _, ok := c.pending[key]; !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("collect: sink for %v called twice", key))
	}
	delete(c.pending, key)
	c.results[key] = v
	results, ok := c.takeLocked()
	done := c.completion
	c.mu.Unlock()

	if ok {
		done(results)
	}
}

// takeLocked claims the results if the handler is due (must hold lock).
func (c *Collector[K, V]) takeLocked() (map[K]V, bool) {
	if c.fired || c.completion == nil || len(c.pending) > 0 {
		return nil, false
	}
	c.fired = true
	return c.results, true
}

// SetResultCompletion installs a completion that splits results into
// successes and failures.
func SetResultCompletion[K comparable, T any](c *Collector[K, Result[T]], done func(successes map[K]T, failures map[K]error)) {
	c.SetCompletion(func(results map[K]Result[T]) {
		successes := make(map[K]T)
		failures := make(map[K]error)
		for k, r := range results {
			if r.Err != nil {
				failures[k] = r.Err
			} else {
				successes[k] = r.Value
			}
		}
		done(successes, failures)
	})
}
