// Package config loads the rating configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration.
const (
	DefaultCloneDir    = "cloned_repos"
	DefaultRegistryURL = "https://registry.npmjs.org"
)

// Log levels accepted in LOG_LEVEL.
const (
	LogLevelWarn  = 0
	LogLevelInfo  = 1
	LogLevelDebug = 2
)

// Config holds every setting of a rating run.
type Config struct {
	// Workers caps concurrently running metrics. 0 means min(NumCPU, 2 x metrics).
	Workers int `yaml:"workers"`

	// WorkDir is the parent of the throwaway npm projects used by the dependency audit.
	// Empty means the current directory.
	WorkDir string `yaml:"work_dir"`

	// CloneDir is where repositories are checked out before rating.
	CloneDir string `yaml:"clone_dir"`

	// RegistryURL is the npm registry used to map npm package URLs to repositories.
	RegistryURL string `yaml:"registry_url"`

	Tools ToolsConfig `yaml:"tools"`
	Lint  LintConfig  `yaml:"lint"`

	// SourceExtensions selects the files that are linted and counted for comment density.
	SourceExtensions []string `yaml:"source_extensions"`

	// The following come from the environment only.
	GitHubToken string `yaml:"-"`
	LogLevel    int    `yaml:"-"`
	LogFile     string `yaml:"-"`
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	NPM        string   `yaml:"npm"`
	ESLint     string   `yaml:"eslint"`
	ESLintArgs []string `yaml:"eslint_args"`
	Git        string   `yaml:"git"`
}

// ESLintCommand returns the eslint executable followed by its leading arguments.
func (t ToolsConfig) ESLintCommand() []string {
	return append([]string{t.ESLint}, t.ESLintArgs...)
}

// LintConfig controls the lint runner.
type LintConfig struct {
	// Config is an ESLint flat config file. Empty uses the built-in rules.
	Config string `yaml:"config"`
}

// Load reads the config file at path, when given, and applies the environment.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		CloneDir:    DefaultCloneDir,
		RegistryURL: DefaultRegistryURL,
		Tools: ToolsConfig{
			NPM:        "npm",
			ESLint:     "npx",
			ESLintArgs: []string{"eslint"},
			Git:        "git",
		},
		SourceExtensions: []string{".js", ".ts"},
		LogLevel:         LogLevelWarn,
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	cfg.GitHubToken = getenv("GITHUB_TOKEN")
	cfg.LogFile = getenv("LOG_FILE")
	if raw := strings.TrimSpace(getenv("LOG_LEVEL")); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("LOG_LEVEL %q is not a number", raw)
		}
		cfg.LogLevel = level
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if cfg.LogLevel < LogLevelWarn || cfg.LogLevel > LogLevelDebug {
		return fmt.Errorf("LOG_LEVEL %d is out of range [0, 2]", cfg.LogLevel)
	}
	if cfg.CloneDir == "" {
		return fmt.Errorf("clone_dir must not be empty")
	}
	if cfg.Tools.NPM == "" || cfg.Tools.ESLint == "" || cfg.Tools.Git == "" {
		return fmt.Errorf("tools.npm, tools.eslint and tools.git must be set")
	}
	if len(cfg.SourceExtensions) == 0 {
		return fmt.Errorf("source_extensions must not be empty")
	}
	for i, ext := range cfg.SourceExtensions {
		if !strings.HasPrefix(ext, ".") {
			cfg.SourceExtensions[i] = "." + ext
		}
	}
	return nil
}
