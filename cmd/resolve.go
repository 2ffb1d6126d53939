package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/router"
)

var (
	resolveClass    string
	resolveEntity   string
	resolveURL      string
	resolveSubject  string
	resolveMessage  string
	resolveScope    string
	resolveTopics   []string
	resolvePrefer   string
	resolveNoFall   bool
	resolveQuiet    bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve decision-makers for a single target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		req := &model.ResolutionRequest{
			Class:      model.TargetClass(resolveClass),
			EntityName: resolveEntity,
			EntityURL:  resolveURL,
			Subject:    resolveSubject,
			Message:    resolveMessage,
			Topics:     resolveTopics,
			Scope:      resolveScope,
			Ctx:        ctx,
		}
		if !resolveQuiet {
			req.Sink = printThought
		}

		runID := uuid.NewString()
		zap.L().Info("resolution started",
			zap.String("run_id", runID),
			zap.String("class", resolveClass),
			zap.String("entity", resolveEntity),
		)

		result, err := e.Router.Resolve(ctx, req, router.Options{
			Preferred:     resolvePrefer,
			AllowFallback: !resolveNoFall,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		zap.L().Info("resolution finished",
			zap.String("run_id", runID),
			zap.String("provider", result.Provider),
			zap.Int("people", len(result.People)),
			zap.Duration("elapsed", result.Elapsed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// printThought renders one streamed thought on stderr, keeping stdout clean
// for the result JSON.
func printThought(t model.Thought) {
	marker := " "
	if t.Pinned {
		marker = "*"
	}
	line := fmt.Sprintf("%s [%s] %s", marker, t.Phase, t.Content)
	if t.Confidence != nil {
		line += fmt.Sprintf(" (%.2f)", *t.Confidence)
		if t.ConfidenceUpdate {
			line += " updated"
		}
	}
	fmt.Fprintln(os.Stderr, line)
}

func init() {
	resolveCmd.Flags().StringVar(&resolveClass, "class", "", "target classification (required)")
	resolveCmd.Flags().StringVar(&resolveEntity, "entity", "", "named target entity")
	resolveCmd.Flags().StringVar(&resolveURL, "url", "", "entity website URL")
	resolveCmd.Flags().StringVar(&resolveSubject, "subject", "", "issue subject")
	resolveCmd.Flags().StringVar(&resolveMessage, "message", "", "constituent message text")
	resolveCmd.Flags().StringVar(&resolveScope, "scope", "", "geographic scope")
	resolveCmd.Flags().StringSliceVar(&resolveTopics, "topic", nil, "issue topics (repeatable)")
	resolveCmd.Flags().StringVar(&resolvePrefer, "provider", "", "preferred provider name")
	resolveCmd.Flags().BoolVar(&resolveNoFall, "no-fallback", false, "disable provider fallback")
	resolveCmd.Flags().BoolVar(&resolveQuiet, "quiet", false, "suppress the thought stream")
	_ = resolveCmd.MarkFlagRequired("class")
	rootCmd.AddCommand(resolveCmd)
}
