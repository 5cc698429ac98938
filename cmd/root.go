package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/seedling/internal/config"
	"github.com/agentic-research/seedling/internal/logging"
	"github.com/agentic-research/seedling/internal/repository"
)

// app holds the global flags and the configuration resolved from them.
type app struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "seedling",
		Short:             "Seedling: populate a content repository with schema-conformant placeholder instances",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to config file (default ./"+config.DefaultFile+" when present)")
	pf.StringVar(&a.dbPath, "db", "", "Repository database")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (console, json)")

	root.AddCommand(
		newImportCmd(a),
		newPopulateCmd(a),
		newPlanCmd(a),
		newInstancesCmd(a),
		newLintCmd(a),
	)
	return root
}

// setup loads the config, applies flag overrides and attaches the logger
// to the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	override(&cfg.Database, a.dbPath)
	override(&cfg.LogLevel, a.logLevel)
	override(&cfg.LogFormat, a.logFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context()))
	a.cfg = cfg
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.Load(config.DefaultFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", config.DefaultFile, err)
	}
	return config.Default(), nil
}

func (a *app) openStore() (*repository.SQLiteStore, error) {
	return repository.OpenSQLiteStore(a.cfg.Database)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// hostPath maps a local path onto the host filesystem rooted at "/".
func hostPath(path string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return osfs.New("/"), abs, nil
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
