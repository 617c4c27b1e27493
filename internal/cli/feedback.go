package cli

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/spf13/cobra"
)

type feedbackRequest struct {
	Record  *domain.InteractionRecord `json:"record"`
	Outcome map[string]any            `json:"outcome"`
}

func newFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback FILE",
		Short: "Record the outcome of an earlier analysis",
		Long: `Record the outcome of an earlier analysis.

FILE is YAML or JSON ("-" for stdin) with "record" (as printed by
"augur analyze") and "outcome". Set outcome.matches_belief to say whether
the opinion held up.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedback,
	}
}

func runFeedback(cmd *cobra.Command, args []string) error {
	var req feedbackRequest
	if err := readInput(args[0], cmd.InOrStdin(), &req); err != nil {
		return err
	}
	if req.Record == nil {
		return errors.New("input needs a record")
	}
	if req.Outcome == nil {
		req.Outcome = map[string]any{}
	}

	rt, _, cleanup, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := rt.Brain.LearnFromInteractionOutcome(cmd.Context(), req.Record, req.Outcome); err != nil {
		return fmt.Errorf("feedback: %w", err)
	}

	if id := req.Record.PriorOpinionID(); id != "" {
		items, err := rt.Brain.Knowledge.RetrieveMemory(cmd.Context(), map[string]any{"id": id}, string(domain.MemoryTypeAll), 1)
		if err != nil {
			return fmt.Errorf("reload opinion: %w", err)
		}
		if len(items) > 0 {
			return printJSON(cmd.OutOrStdout(), items[0])
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "feedback recorded")
	return nil
}
