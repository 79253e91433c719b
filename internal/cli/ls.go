package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/constants"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var long bool
	var limit int
	var patterns []string

	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List folder contents",
		Long: `List the items of a folder, one page at a time, until the folder is
exhausted or --limit items were loaded.

Example:
  # List "All Files"
  box-browse ls

  # Long listing of the PDFs in a folder
  box-browse ls 12345 -l --match '*.pdf'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := models.RootFolderID
			if len(args) == 1 {
				folderID = args[0]
			}

			filter, err := newItemFilter(patterns)
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			listing, err := s.folderListing(ctx, folderID, state.ListingOptions{})
			if err != nil {
				return err
			}

			if err := loadListing(ctx, listing, limit); err != nil {
				return fmt.Errorf("failed to list folder %s: %w", folderID, err)
			}

			items := listing.Items()
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			items = filter.apply(items)

			out := cmd.OutOrStdout()
			if long {
				fmt.Fprintf(out, "%s\n", listing.Title())
			}
			printItems(out, items, state.DetailBrowse, long)
			if long {
				printFooter(out, listing, len(items))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show size and modification time")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many items (0 = all)")
	cmd.Flags().StringSliceVarP(&patterns, "match", "m", nil, "Only show items whose name matches a glob pattern")

	return cmd
}

// folderListing fetches folderID and returns its listing.
func (s *session) folderListing(ctx context.Context, folderID string, opts state.ListingOptions) (*state.Listing, error) {
	folder, err := s.folder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	opts.EventBus = s.bus
	opts.Logger = s.logger.Component("listing")
	return state.NewFolderListing(s.service, folder, opts), nil
}

// folder fetches the metadata of folderID.
func (s *session) folder(ctx context.Context, folderID string) (*models.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.APIContextTimeout)
	defer cancel()
	folder, err := s.service.FolderInfo(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("folder %s: %w", folderID, err)
	}
	return folder, nil
}
