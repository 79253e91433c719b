package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLongListShortcut())
}

// newLongListShortcut creates the 'll' shortcut command.
// Shortcut for: ls --long
func newLongListShortcut() *cobra.Command {
	cmd := newLsCmd()
	cmd.Use = "ll [folder-id]"
	cmd.Short = "Long folder listing (shortcut for 'ls --long')"
	cmd.Long = `Shortcut for a long folder listing.

Equivalent to: box-browse ls --long [folder-id]

Examples:
  box-browse ll
  box-browse ll 12345 --match '*.pdf'`
	_ = cmd.Flags().Set("long", "true")
	return cmd
}
