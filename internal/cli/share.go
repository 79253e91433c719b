package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/browse"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/progress"
	"github.com/rescale/box-browse/internal/state"
)

// newShareCmd creates the 'share' command.
func newShareCmd() *cobra.Command {
	var folderID string
	var access string

	cmd := &cobra.Command{
		Use:   "share <item>...",
		Short: "Print shared links, creating the missing ones",
		Long: `Print the shared link of each item, creating links for items that have
none. Items are picked from the --in folder by ID or by name pattern.
Items that cannot be shared are skipped.

Access levels: open, company, collaborators. Without --access the
enterprise default applies.

Example:
  box-browse share report.pdf --in 12345
  box-browse share '*.png' --in 12345 --access company`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch access {
			case "", "open", "company", "collaborators":
			default:
				return fmt.Errorf("unknown access level %q", access)
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			listing, selected, err := s.selectItems(ctx, folderID, args)
			if err != nil {
				return err
			}

			picker := newLinkPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			selection := browse.NewSharedLinkSelection(ctx, s.service, picker, browse.SharedLinkOptions{
				EventBus: s.bus,
				Logger:   s.logger.Component("share"),
				Progress: progress.Counter(newReporter(cmd), "Sharing"),
				Access:   access,
			})
			router := browse.NewDefaultRouter(browse.NewStack(browse.ListingScreen{Listing: listing}), selection, browse.FileOpener{})

			var shareable []*state.Item
			for _, item := range selected {
				if router.CanSelect(item) {
					shareable = append(shareable, item)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: sharing not permitted\n", item.Name())
				}
			}
			if len(shareable) == 0 {
				return fmt.Errorf("none of the items can be shared: %w", ErrNotAllowed)
			}

			picker.expect(len(shareable))
			s.queue.Sync(func() { router.HandleSelected(shareable) })

			select {
			case <-picker.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if picker.failed > 0 {
				return fmt.Errorf("%d of %d: %w", picker.failed, len(shareable), ErrPartialFailure)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "in", models.RootFolderID, "Folder holding the items")
	cmd.Flags().StringVar(&access, "access", "", "Access level of created links (open, company, collaborators)")

	return cmd
}

// linkPrinter prints shared link results as they are reported. done is
// closed once every expected item was reported.
type linkPrinter struct {
	out, errOut io.Writer

	mu       sync.Mutex
	pending  int
	failed   int
	done     chan struct{}
	doneOnce sync.Once
}

func newLinkPrinter(out, errOut io.Writer) *linkPrinter {
	return &linkPrinter{out: out, errOut: errOut, done: make(chan struct{})}
}

func (p *linkPrinter) expect(n int) {
	p.mu.Lock()
	p.pending = n
	p.mu.Unlock()
}

func (p *linkPrinter) WillCreateSharedLinks(total int) {}

func (p *linkPrinter) DidFail(failures []browse.ItemError) {
	for _, f := range failures {
		fmt.Fprintf(p.errOut, "FAILED %s: %v\n", models.ItemName(f.Item), f.Err)
	}
	p.mu.Lock()
	p.failed += len(failures)
	p.mu.Unlock()
	p.reported(len(failures))
}

func (p *linkPrinter) DidSelect(items []models.Item) {
	for _, item := range items {
		url := ""
		if link := models.ItemSharedLink(item); link != nil {
			url = link.URL
		}
		fmt.Fprintf(p.out, "%s\t%s\n", models.ItemName(item), url)
	}
	p.reported(len(items))
}

func (p *linkPrinter) reported(n int) {
	p.mu.Lock()
	p.pending -= n
	finished := p.pending <= 0
	p.mu.Unlock()
	if finished {
		p.doneOnce.Do(func() { close(p.done) })
	}
}

var _ browse.SharedLinkPicker = (*linkPrinter)(nil)
