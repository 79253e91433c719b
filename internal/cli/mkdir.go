package cli

import (
	"bufio"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/api"
	"github.com/rescale/box-browse/internal/browse"
	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/state"
)

// ErrNotAllowed is returned when the folder's permissions rule out the
// requested action.
var ErrNotAllowed = errors.New("not allowed in this folder")

// newMkdirCmd creates the 'mkdir' command.
func newMkdirCmd() *cobra.Command {
	var parentID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Long: `Create a folder inside a parent folder.

The name is checked before it is sent: empty names, names containing "/"
or "\", "." and "..", and names with emoji are rejected. Names with
special characters ask for confirmation unless --yes is given.

Example:
  box-browse mkdir "Project A"
  box-browse mkdir Results --parent 12345`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := GetContext()
			parent, err := s.folder(ctx, parentID)
			if err != nil {
				return err
			}
			if !(browse.FolderActions{}).Allows(parent, browse.ActionCreateFolder) {
				return fmt.Errorf("cannot create folders in %q: %w", parent.Name, ErrNotAllowed)
			}

			creator := state.NewCreateFolder(s.service, parent)
			check := creator.Validate(args[0])
			switch check.Status {
			case state.NameInvalid:
				return errors.New(check.Reason)
			case state.NameWarning:
				if !yes {
					ok, err := promptConfirm(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(),
						fmt.Sprintf("%s Create %q anyway?", check.Reason, check.Name))
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
				}
			}

			type outcome struct {
				folder *models.Folder
				err    error
			}
			result := make(chan outcome, 1)
			creator.Create(ctx, check.Name, func(folder *models.Folder, err error) {
				result <- outcome{folder, err}
			})
			res := <-result
			if res.err != nil {
				if api.IsConflict(res.err) {
					return fmt.Errorf("an item named %q already exists in %q", check.Name, parent.Name)
				}
				return res.err
			}

			logger.Info().Str("folder_id", res.folder.ID).Str("parent_id", parent.ID).Msg("Folder created")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created folder %s\n", res.folder.Name)
			fmt.Fprintf(out, "  ID:       %s\n", res.folder.ID)
			if crumbs := state.Breadcrumbs(append(slices.Clone(models.ItemPath(parent)), *parent)); crumbs != "" {
				fmt.Fprintf(out, "  Location: %s\n", crumbs)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "p", models.RootFolderID, "Parent folder ID")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before creating names with special characters")

	return cmd
}
