package cli

import (
	"github.com/spf13/cobra"
)

func newIntentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intent QUERY",
		Short: "Parse a market question into a structured intent",
		Args:  cobra.ExactArgs(1),
		RunE:  runIntent,
	}
	cmd.Flags().StringP("provider", "p", "", "LLM provider to ask (default: first available)")
	cmd.Flags().String("chat-context", "", "YAML or JSON file with chat context")
	return cmd
}

func runIntent(cmd *cobra.Command, args []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	chatPath, _ := cmd.Flags().GetString("chat-context")

	var chat map[string]any
	if chatPath != "" {
		if err := readInput(chatPath, cmd.InOrStdin(), &chat); err != nil {
			return err
		}
	}

	rt, _, cleanup, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	intent := rt.Brain.UnderstandQueryIntent(cmd.Context(), args[0], chat, provider)
	return printJSON(cmd.OutOrStdout(), intent)
}
