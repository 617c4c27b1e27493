package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show providers and recent core learnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, cleanup, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := rt.Brain.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}
