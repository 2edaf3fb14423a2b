package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProjectConfigFile is the name of the project-level playbook
	ProjectConfigFile = "semdocs.yml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semdocs"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. SEMDOCS_URLS_HTML_EXTENSION_STYLE
	EnvPrefix = "SEMDOCS"
)

// envKeys are the scalar settings that may be overridden from the environment.
var envKeys = []string{
	"site.title",
	"site.url",
	"site.start_page",
	"urls.html_extension_style",
	"urls.redirect_facility",
	"urls.latest_version_segment",
	"urls.latest_prerelease_version_segment",
	"urls.latest_version_segment_strategy",
}

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	env    *viper.Viper

	// workDir is where the project playbook search starts (default: cwd)
	workDir string
	// homeDir overrides the user home directory (default: os.UserHomeDir)
	homeDir string
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithWorkDir sets the directory the project playbook search starts from
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithHomeDir sets the directory the user config is read from
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = env.BindEnv(key)
	}

	l := &Loader{logger: logger, env: env}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semdocs/config.yaml)
// 3. Project playbook (the explicit path, or semdocs.yml in the current or
//    parent directories)
// 4. Environment variables (SEMDOCS_*)
func (l *Loader) Load(playbookPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project playbook; an explicit path must exist
	if playbookPath != "" {
		projectConfig, err := LoadFromFile(playbookPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded playbook", slog.String("path", playbookPath))
		config.Merge(projectConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides scalar settings from SEMDOCS_* environment variables
func (l *Loader) applyEnv(config *Config) {
	targets := map[string]*string{
		"site.title":                           &config.Site.Title,
		"site.url":                             &config.Site.URL,
		"site.start_page":                      &config.Site.StartPage,
		"urls.html_extension_style":            &config.URLs.HTMLExtensionStyle,
		"urls.redirect_facility":               &config.URLs.RedirectFacility,
		"urls.latest_version_segment_strategy": &config.URLs.LatestVersionSegmentStrategy,
	}
	for _, key := range envKeys {
		if !l.env.IsSet(key) {
			continue
		}
		value := l.env.GetString(key)
		switch key {
		case "urls.latest_version_segment":
			config.URLs.LatestVersionSegment = &value
		case "urls.latest_prerelease_version_segment":
			config.URLs.LatestPrereleaseVersionSegment = &value
		default:
			*targets[key] = value
		}
		l.logger.Debug("Applied environment override", slog.String("key", key))
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semdocs.yml in the work directory and its parents
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
