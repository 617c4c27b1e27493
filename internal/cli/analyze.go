package cli

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// analyzeRequest is the input file of `augur analyze`. Either Query or
// Intent must be set; Query is parsed first when Intent is absent.
type analyzeRequest struct {
	Query       string                `json:"query"`
	Provider    string                `json:"provider"`
	ChatContext map[string]any        `json:"chat_context"`
	Intent      *domain.Intent        `json:"intent"`
	InputData   domain.InputData      `json:"input_data"`
	Context     domain.RequestContext `json:"context"`
}

// analyzeResult carries the interaction plus what `augur feedback` needs to
// revise the opinion later.
type analyzeResult struct {
	Interaction *domain.Interaction       `json:"interaction"`
	Record      *domain.InteractionRecord `json:"record"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyse a data payload and form an opinion",
		Long: `Analyse a data payload and form an opinion.

FILE is YAML or JSON ("-" for stdin) with the fields query or intent,
input_data, context and optionally provider and chat_context. The output's
"record" can be fed back to "augur feedback" once the outcome is known.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var req analyzeRequest
	if err := readInput(args[0], cmd.InOrStdin(), &req); err != nil {
		return err
	}
	if req.Intent == nil && req.Query == "" {
		return errors.New("input needs a query or an intent")
	}

	rt, logger, cleanup, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	intent := req.Intent
	if intent == nil {
		intent = rt.Brain.UnderstandQueryIntent(cmd.Context(), req.Query, req.ChatContext, req.Provider)
		if !intent.CanHandle {
			msg := intent.ErrorMessage
			if intent.Degraded() {
				msg = intent.Error
			}
			logger.Warn("query not handled", zap.String("query", req.Query), zap.String("reason", msg))
			return fmt.Errorf("cannot handle query: %s", msg)
		}
	}

	interaction, err := rt.Brain.ProcessDataAndGenerateAnalysis(cmd.Context(), req.InputData, intent, req.Context)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), analyzeResult{
		Interaction: interaction,
		Record: &domain.InteractionRecord{
			QueryIntent:      intent,
			InputDataSummary: req.InputData.Describe(),
			RequestContext:   req.Context,
			OpinionID:        interaction.Opinion.ID,
		},
	})
}
