package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "resolver",
	Short: "Decision-maker resolution engine",
	Long:  "Resolves who can act on an issue by orchestrating search-grounded research, web extraction, and verification into a ranked, confidence-scored contact list.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
