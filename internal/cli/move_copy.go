package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/browse"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/progress"
	"github.com/rescale/box-browse/internal/state"
)

// ErrPartialFailure is returned when some items of a batch failed.
var ErrPartialFailure = errors.New("some items failed")

// newMoveCmd creates the 'mv' command.
func newMoveCmd() *cobra.Command {
	return newMoveOrCopyCmd(browse.ActionMove)
}

// newCopyCmd creates the 'cp' command.
func newCopyCmd() *cobra.Command {
	return newMoveOrCopyCmd(browse.ActionCopy)
}

func newMoveOrCopyCmd(action browse.Actions) *cobra.Command {
	var fromID string

	use, verb, noun := "mv", "Move", "Moving"
	if action == browse.ActionCopy {
		use, verb, noun = "cp", "Copy", "Copying"
	}

	cmd := &cobra.Command{
		Use:   use + " <destination-folder-id> <item>...",
		Short: verb + " items into another folder",
		Long: verb + ` items of a folder into a destination folder.

Items are picked from the --from folder by ID or by name, and names may be
glob patterns. Up to four requests run at a time.

Example:
  box-browse ` + use + ` 67890 report.pdf --from 12345
  box-browse ` + use + ` 67890 '*.csv' 'draft-*' --from 12345`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			sources, err := s.pickItems(ctx, fromID, args[1:])
			if err != nil {
				return err
			}
			destination, err := s.folder(ctx, args[0])
			if err != nil {
				return err
			}

			mc := browse.NewMoveOrCopy(s.service, sources, browse.MoveOrCopyOptions{
				EventBus: s.bus,
				Logger:   logger.Component(use),
				Progress: progress.Counter(newReporter(cmd), noun),
			})
			if !mc.PossibleActions(destination).Has(action) {
				return blockedError(cmd.ErrOrStderr(), s, sources, destination, action)
			}

			logger.Info().Str("destination", destination.ID).Int("items", len(sources)).Msgf("%s items", noun)
			results := make(chan browse.Results, 1)
			deliver := func(r browse.Results) { results <- r }
			if action == browse.ActionMove {
				mc.Move(ctx, destination.ID, deliver)
			} else {
				mc.Copy(ctx, destination.ID, deliver)
			}

			select {
			case r := <-results:
				return reportResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), sources, r, func(item models.Item) string {
					return fmt.Sprintf("%s %s -> %s", use, models.ItemName(item), destination.Name)
				})
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}

	cmd.Flags().StringVar(&fromID, "from", models.RootFolderID, "Folder holding the items")

	return cmd
}

// blockedError names the items that cannot go into destination.
func blockedError(w io.Writer, s *session, sources []models.Item, destination *models.Folder, action browse.Actions) error {
	if !models.ItemPermissions(destination).Has(models.PermUpload) {
		return fmt.Errorf("cannot add items to %q: %w", destination.Name, ErrNotAllowed)
	}
	for _, item := range sources {
		single := browse.NewMoveOrCopy(s.service, []models.Item{item}, browse.MoveOrCopyOptions{})
		if !single.PossibleActions(destination).Has(action) {
			fmt.Fprintf(w, "  cannot %s %s into %s\n", action, models.ItemName(item), destination.Name)
		}
	}
	return fmt.Errorf("cannot %s the selected items into %q: %w", action, destination.Name, ErrNotAllowed)
}

// pickItems returns the models of the items selectItems picks.
func (s *session) pickItems(ctx context.Context, folderID string, refs []string) ([]models.Item, error) {
	_, selected, err := s.selectItems(ctx, folderID, refs)
	if err != nil {
		return nil, err
	}
	picked := make([]models.Item, len(selected))
	for i, item := range selected {
		picked[i] = item.Model()
	}
	return picked, nil
}

// selectItems loads folderID and selects the items matching refs by ID
// or name pattern. The selection is returned in listing order.
func (s *session) selectItems(ctx context.Context, folderID string, refs []string) (*state.Listing, []*state.Item, error) {
	listing, err := s.folderListing(ctx, folderID, state.ListingOptions{})
	if err != nil {
		return nil, nil, err
	}
	if err := loadListing(ctx, listing, 0); err != nil {
		return nil, nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}

	filter, err := newItemFilter(refs)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[string]bool, len(refs))
	for _, ref := range refs {
		ids[ref] = true
	}

	s.queue.Sync(func() {
		for _, item := range listing.Items() {
			if ids[item.ID().ID] || filter.match(item.Name()) {
				listing.SetSelected(item.ID(), true)
			}
		}
	})
	selected := listing.SelectedItems()
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("no items in %q match %v", listing.Title(), refs)
	}
	return listing, selected, nil
}

// reportResults prints one line per source in order and fails if any
// item failed.
func reportResults(out, errOut io.Writer, sources []models.Item, results browse.Results, describe func(models.Item) string) error {
	failed := 0
	seen := make(map[models.Identifier]bool, len(sources))
	for _, item := range sources {
		id := models.ItemID(item)
		if seen[id] {
			continue
		}
		seen[id] = true

		result, ok := results[id]
		switch {
		case !ok:
			continue
		case result.Err != nil:
			failed++
			fmt.Fprintf(errOut, "FAILED %s: %v\n", models.ItemName(item), result.Err)
		default:
			fmt.Fprintln(out, describe(result.Value))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(seen), ErrPartialFailure)
	}
	return nil
}

// newReporter returns a progress bar on stderr, or nothing with --quiet.
func newReporter(cmd *cobra.Command) progress.Reporter {
	if quiet {
		return progress.NewNoOpProgress()
	}
	return progress.NewCLIProgressWriter(cmd.ErrOrStderr())
}
