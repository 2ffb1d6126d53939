package composite

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/communisaas/resolver-cli/internal/model"
)

// Config partitions target classes between the two strategies and holds
// the composite's phase tunables. The partition is static configuration;
// membership is never inferred from request content.
type Config struct {
	// PrimaryClasses resolve reasoning-backend-first.
	PrimaryClasses []model.TargetClass
	// EntityClasses resolve extraction-first.
	EntityClasses []model.TargetClass

	// VerifyTimeout bounds the verification sub-call independently of the
	// router's per-provider timeout.
	VerifyTimeout time.Duration

	// SettleDelay is the pause between discovery and verification phases,
	// purely for interactive pacing. Zero for non-interactive use.
	SettleDelay time.Duration

	// CacheTTL is how long discovery results stay cached.
	CacheTTL time.Duration
}

// DefaultConfig returns the built-in strategy partition and timeouts.
func DefaultConfig() Config {
	return Config{
		PrimaryClasses: []model.TargetClass{
			model.ClassLegislative,
			model.ClassMunicipal,
			model.ClassRegulatory,
		},
		EntityClasses: []model.TargetClass{
			model.ClassOrganizational,
			model.ClassCorporate,
			model.ClassEducational,
			model.ClassHealthcare,
		},
		VerifyTimeout: 25 * time.Second,
		SettleDelay:   0,
		CacheTTL:      24 * time.Hour,
	}
}

// LoadConfig reads a strategy config from a YAML file, filling omitted
// fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "composite: read config %s", path)
	}

	var wrapper struct {
		Strategy struct {
			PrimaryClasses []model.TargetClass `yaml:"primary_classes"`
			EntityClasses  []model.TargetClass `yaml:"entity_classes"`
			VerifyTimeout  string              `yaml:"verify_timeout"`
			SettleDelay    string              `yaml:"settle_delay"`
			CacheTTL       string              `yaml:"cache_ttl"`
		} `yaml:"strategy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cfg, eris.Wrap(err, "composite: parse config")
	}

	loaded := wrapper.Strategy
	if len(loaded.PrimaryClasses) > 0 {
		cfg.PrimaryClasses = loaded.PrimaryClasses
	}
	if len(loaded.EntityClasses) > 0 {
		cfg.EntityClasses = loaded.EntityClasses
	}
	if err := overrideDuration(&cfg.VerifyTimeout, loaded.VerifyTimeout); err != nil {
		return cfg, eris.Wrap(err, "composite: verify_timeout")
	}
	if err := overrideDuration(&cfg.SettleDelay, loaded.SettleDelay); err != nil {
		return cfg, eris.Wrap(err, "composite: settle_delay")
	}
	if err := overrideDuration(&cfg.CacheTTL, loaded.CacheTTL); err != nil {
		return cfg, eris.Wrap(err, "composite: cache_ttl")
	}
	return cfg, nil
}

// overrideDuration parses a Go duration string into dst, leaving dst
// untouched when the string is empty.
func overrideDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// isPrimary reports membership in the primary-strategy partition.
func (c Config) isPrimary(class model.TargetClass) bool {
	for _, p := range c.PrimaryClasses {
		if p == class {
			return true
		}
	}
	return false
}

// isEntity reports membership in the extraction-strategy partition.
func (c Config) isEntity(class model.TargetClass) bool {
	for _, e := range c.EntityClasses {
		if e == class {
			return true
		}
	}
	return false
}
