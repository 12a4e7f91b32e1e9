package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"junctionmirror/internal/domain"
	"junctionmirror/internal/infra/link"
)

const EnvPrefix = "JMIRROR"

// Keys shared by flags, environment variables and Config.
const (
	KeyLinkTool        = "link-tool"
	KeySource          = "source"
	KeyTarget          = "target"
	KeyPolicy          = "policy"
	KeyDryRun          = "dry-run"
	KeyVerbose         = "verbose"
	KeyYes             = "yes"
	KeyTUI             = "tui"
	KeyLinkEmptyLeaves = "link-empty-leaves"
)

type Config struct {
	LinkTool        string
	SourceRoot      string
	TargetRoot      string
	PolicyFile      string
	DryRun          bool
	Verbosity       int
	AssumeYes       bool
	TUI             bool
	LinkEmptyLeaves bool
}

func (c Config) Verbose() bool {
	return c.Verbosity > 0
}

// NewViper returns a viper instance reading JMIRROR_* variables, for example
// JMIRROR_SOURCE or JMIRROR_DRY_RUN.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags makes flags take precedence over the environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return v.BindPFlags(flags)
}

// Load builds a Config from positional arguments (link tool, source root,
// target root) with environment fallbacks for any that are missing.
func Load(v *viper.Viper, args []string) (Config, error) {
	positional := []string{KeyLinkTool, KeySource, KeyTarget}
	if len(args) > len(positional) {
		return Config{}, fmt.Errorf("expected at most %d arguments, got %d", len(positional), len(args))
	}
	for i, arg := range args {
		v.Set(positional[i], arg)
	}

	cfg := Config{
		LinkTool:        strings.TrimSpace(v.GetString(KeyLinkTool)),
		SourceRoot:      strings.TrimSpace(v.GetString(KeySource)),
		TargetRoot:      strings.TrimSpace(v.GetString(KeyTarget)),
		PolicyFile:      strings.TrimSpace(v.GetString(KeyPolicy)),
		DryRun:          v.GetBool(KeyDryRun),
		Verbosity:       v.GetInt(KeyVerbose),
		AssumeYes:       v.GetBool(KeyYes),
		TUI:             v.GetBool(KeyTUI),
		LinkEmptyLeaves: v.GetBool(KeyLinkEmptyLeaves),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.SourceRoot = filepath.Clean(cfg.SourceRoot)
	cfg.TargetRoot = filepath.Clean(cfg.TargetRoot)
	return cfg, nil
}

// Validate checks the roots and the link tool before anything is touched.
func (c Config) Validate() error {
	if c.LinkTool == "" || c.SourceRoot == "" || c.TargetRoot == "" {
		return errors.New("link tool, source root and target root are required")
	}
	if !filepath.IsAbs(c.SourceRoot) || !filepath.IsAbs(c.TargetRoot) {
		return errors.New("source and target roots must be absolute paths")
	}

	info, err := os.Stat(c.SourceRoot)
	if err != nil {
		return fmt.Errorf("source root %s: %w", c.SourceRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %s is not a directory", c.SourceRoot)
	}

	if domain.IsWithin(c.TargetRoot, c.SourceRoot) || domain.IsWithin(c.SourceRoot, c.TargetRoot) {
		return errors.New("source and target roots must not contain each other")
	}

	if c.LinkTool != link.Builtin {
		if _, err := exec.LookPath(c.LinkTool); err != nil {
			return fmt.Errorf("link tool %s: %w", c.LinkTool, err)
		}
	}
	return nil
}
