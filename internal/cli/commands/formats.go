package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/dialect"
)

// NewFormatsCommand creates the formats command.
func NewFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported file formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, info := range dialect.Registered() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", info.Name, info.Description)
			}
		},
	}
}
