package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered and discovered commands, components, and modals.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.makeApp(cmd.Context())
			if err != nil {
				return err
			}
			// Problems with definition files are logged, and do not fail the
			// listing.
			_ = app.LoadCommands(app.CommandsDir())
			_ = app.LoadComponents(app.ComponentsDir())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, command := range app.Commands() {
				fmt.Fprintf(w, "command\t%s\t%s\n", command.Name, command.Data.Description)
			}
			for _, id := range app.ComponentIDs() {
				fmt.Fprintf(w, "component\t%s\t\n", id)
			}
			for _, id := range app.ModalIDs() {
				fmt.Fprintf(w, "modal\t%s\t\n", id)
			}
			return w.Flush()
		},
	}
}
