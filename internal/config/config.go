// Package config loads seedling.hcl.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/seedling/internal/asset"
	"github.com/agentic-research/seedling/internal/populate"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "seedling.hcl"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved configuration.
type Config struct {
	Database string
	Scope    string
	Folder   string
	Prefix   string

	AssetPath      string
	AssetFilename  string
	MultimediaType string

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database:       "seedling.db",
		Prefix:         populate.DefaultPrefix,
		AssetFilename:  asset.DefaultFilename,
		MultimediaType: asset.DefaultMultimediaType,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// fileRoot mirrors the HCL layout. Every attribute is optional; unset ones
// keep their defaults.
type fileRoot struct {
	Database *string      `hcl:"database"`
	Scope    *string      `hcl:"scope"`
	Folder   *string      `hcl:"folder"`
	Naming   *namingBlock `hcl:"naming,block"`
	Asset    *assetBlock  `hcl:"asset,block"`
	Log      *logBlock    `hcl:"log,block"`
}

type namingBlock struct {
	Prefix *string `hcl:"prefix"`
}

type assetBlock struct {
	Path           *string `hcl:"path"`
	Filename       *string `hcl:"filename"`
	MultimediaType *string `hcl:"multimedia_type"`
}

type logBlock struct {
	Level  *string `hcl:"level"`
	Format *string `hcl:"format"`
}

// Load reads path on top of Default. Expressions can reference process
// environment variables as env.NAME.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(src, path, environ())
}

// Parse decodes HCL source on top of Default with env exposed as env.NAME.
func Parse(src []byte, filename string, env map[string]string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(env), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := Default()
	set(&cfg.Database, root.Database)
	set(&cfg.Scope, root.Scope)
	set(&cfg.Folder, root.Folder)
	if root.Naming != nil {
		set(&cfg.Prefix, root.Naming.Prefix)
	}
	if root.Asset != nil {
		set(&cfg.AssetPath, root.Asset.Path)
		set(&cfg.AssetFilename, root.Asset.Filename)
		set(&cfg.MultimediaType, root.Asset.MultimediaType)
	}
	if root.Log != nil {
		set(&cfg.LogLevel, root.Log.Level)
		set(&cfg.LogFormat, root.Log.Format)
	}
	return cfg, nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database is required", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format must be json or console, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Prefix == "" {
		return fmt.Errorf("%w: naming prefix must not be empty", ErrInvalidConfig)
	}
	return nil
}

// RequireScope checks that a schema scope is set.
func (c *Config) RequireScope() error {
	if strings.Trim(c.Scope, "/") == "" {
		return fmt.Errorf("%w: scope is required", ErrInvalidConfig)
	}
	return nil
}

// RequireTarget checks the scope and folder a populate run writes to.
func (c *Config) RequireTarget() error {
	if err := c.RequireScope(); err != nil {
		return err
	}
	if c.Folder == "" {
		return fmt.Errorf("%w: folder is required", ErrInvalidConfig)
	}
	return nil
}
