package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// newSearchCmd creates the 'search' command.
func newSearchCmd() *cobra.Command {
	var folderID string
	var long bool
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for items by name and content",
		Long: `Search below a folder. Results show where each item lives.

The query is matched case-insensitively.

Example:
  box-browse search quarterly report
  box-browse search budget --in 12345 -n 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("query is empty")
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			search := state.NewSearch(s.service, folderID, state.SearchOptions{
				EventBus: s.bus,
				Logger:   s.logger.Component("search"),
				Debounce: -1,
			})
			listing := search.Listing()
			s.queue.Sync(func() { search.Update(query) })

			if err := loadListing(GetContext(), listing, limit); err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			items := listing.Items()
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			out := cmd.OutOrStdout()
			printItems(out, items, state.DetailSearch, long)
			printFooter(out, listing, len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "in", models.RootFolderID, "Folder to search below")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show where each result lives")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many results (0 = all)")

	return cmd
}
