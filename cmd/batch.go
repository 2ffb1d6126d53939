package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/communisaas/resolver-cli/internal/model"
	"github.com/communisaas/resolver-cli/internal/router"
	"github.com/communisaas/resolver-cli/internal/runner"
)

var (
	batchFile  string
	batchLimit int
)

// batchTarget is one entry in a batch file.
type batchTarget struct {
	Class      string   `yaml:"class" json:"class"`
	EntityName string   `yaml:"entity_name" json:"entity_name"`
	EntityURL  string   `yaml:"entity_url" json:"entity_url"`
	Subject    string   `yaml:"subject" json:"subject"`
	Scope      string   `yaml:"scope" json:"scope"`
	Topics     []string `yaml:"topics" json:"topics"`
}

// batchOutcome pairs a target with its result or error for output.
type batchOutcome struct {
	Target batchTarget             `json:"target"`
	Result *model.ResolutionResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve decision-makers for a file of targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := loadTargets(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(targets) > batchLimit {
			targets = targets[:batchLimit]
		}
		if len(targets) == 0 {
			zap.L().Info("no targets in batch file")
			return nil
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		zap.L().Info("processing batch",
			zap.Int("targets", len(targets)),
			zap.Int("concurrency", cfg.Batch.MaxConcurrent),
		)

		opts := runner.Options{Concurrency: cfg.Batch.MaxConcurrent}
		results := runner.Run(ctx, targets, opts, func(ctx context.Context, t batchTarget) (*model.ResolutionResult, error) {
			req := &model.ResolutionRequest{
				Class:      model.TargetClass(t.Class),
				EntityName: t.EntityName,
				EntityURL:  t.EntityURL,
				Subject:    t.Subject,
				Topics:     t.Topics,
				Scope:      t.Scope,
				Ctx:        ctx,
			}
			return e.Router.Resolve(ctx, req, router.Options{AllowFallback: true})
		})

		outcomes := make([]batchOutcome, len(targets))
		failed := 0
		for i, res := range results {
			outcomes[i] = batchOutcome{Target: targets[i], Result: res.Value}
			if res.Err != nil {
				outcomes[i].Error = res.Err.Error()
				failed++
			}
		}

		zap.L().Info("batch complete",
			zap.Int("succeeded", len(targets)-failed),
			zap.Int("failed", failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

// loadTargets parses a batch file. YAML handles both formats since JSON is
// a YAML subset.
func loadTargets(path string) ([]batchTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch file %s", path)
	}

	var targets []batchTarget
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, eris.Wrapf(err, "parse batch file %s", path)
	}

	valid := targets[:0]
	for _, t := range targets {
		if t.Class == "" {
			zap.L().Warn("skipping batch target without class",
				zap.String("entity", t.EntityName),
			)
			continue
		}
		valid = append(valid, t)
	}
	return valid, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML or JSON file of targets (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max targets to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
