package cli

import (
	"fmt"
	"os"

	"github.com/Harshitk-cp/augur/internal/bootstrap"
	"github.com/Harshitk-cp/augur/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagEnvFile string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "augur",
		Short: "Cognitive core for financial opinions",
		Long: `augur parses market questions, analyses data payloads, forms
confidence-scored opinions and learns from their outcomes.

Commands run against the store and providers configured in the environment
(see STORE_BACKEND and the *_API_KEY variables).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env", "", "env file to load (default $AUGUR_ENV or .env)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newIntentCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newFeedbackCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// openRuntime loads config and wires a brain for one command. The caller
// must call the returned cleanup.
func openRuntime(cmd *cobra.Command) (*bootstrap.Runtime, *zap.Logger, func(), error) {
	if flagEnvFile != "" {
		if err := os.Setenv("AUGUR_ENV", flagEnvFile); err != nil {
			return nil, nil, nil, err
		}
	}
	if err := config.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := bootstrap.NewLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	rt, err := bootstrap.New(cmd.Context(), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}

	cleanup := func() {
		rt.Close()
		_ = logger.Sync()
	}
	return rt, logger, cleanup, nil
}
