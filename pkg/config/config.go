// Package config loads viewer settings from defaults, an optional YAML file,
// CHATDB_VIEWER_* environment variables and command line flags, in order of
// increasing precedence.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "CHATDB_VIEWER"
	AppDir    = "~/.chatdb-viewer"
)

type Theme struct {
	Accent    string `mapstructure:"accent"`
	Neutral   string `mapstructure:"neutral"`
	Highlight string `mapstructure:"highlight"`
	Muted     string `mapstructure:"muted"`
	Border    string `mapstructure:"border"`
}

type Settings struct {
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	DropStaleLoads  bool          `mapstructure:"drop-stale-loads"`
	Workers         int           `mapstructure:"workers"`
	BubbleMaxWidth  int           `mapstructure:"bubble-max-width"`
	ListWidth       int           `mapstructure:"list-width"`
	Mouse           bool          `mapstructure:"mouse"`

	LogLevel   string `mapstructure:"log-level"`
	LogFile    string `mapstructure:"log-file"`
	LogFormat  string `mapstructure:"log-format"`
	WithCaller bool   `mapstructure:"with-caller"`

	Theme Theme `mapstructure:"theme"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("refresh-interval", 100*time.Millisecond)
	v.SetDefault("drop-stale-loads", false)
	v.SetDefault("workers", 4)
	v.SetDefault("bubble-max-width", 60)
	v.SetDefault("list-width", 42)
	v.SetDefault("mouse", true)

	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", filepath.Join(AppDir, "viewer.log"))
	v.SetDefault("log-format", "console")
	v.SetDefault("with-caller", false)

	v.SetDefault("theme.accent", "#0A84FF")
	v.SetDefault("theme.neutral", "#3A3A3C")
	v.SetDefault("theme.highlight", "62")
	v.SetDefault("theme.muted", "#888888")
	v.SetDefault("theme.border", "62")
}

// AddFlags registers the flags that override settings.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file (default "+AppDir+"/config.yaml)")
	fs.Duration("refresh-interval", 100*time.Millisecond, "Redraw cadence while loads are in flight")
	fs.Bool("drop-stale-loads", false, "Discard results of loads superseded by a newer selection")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.String("log-file", "", "Log file used while the viewer is running")
	fs.String("log-format", "console", "Log format (console, json)")
	fs.Bool("with-caller", false, "Include caller (file:line) in logs")
}

// Load resolves settings. Flags that were not changed on the command line
// do not override the file or the environment.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	configFile := ""
	if fs != nil {
		configFile, _ = fs.GetString("config")
		for _, name := range []string{"refresh-interval", "drop-stale-loads", "log-level", "log-file", "log-format", "with-caller"} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	logFile, err := homedir.Expand(s.LogFile)
	if err != nil {
		return nil, errors.Wrap(err, "expand log file path")
	}
	s.LogFile = logFile
	return s, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return errors.Wrap(err, "expand config path")
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		return nil
	}

	dir, err := homedir.Expand(AppDir)
	if err != nil {
		return errors.Wrap(err, "expand config dir")
	}
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

func (s *Settings) Validate() error {
	if s.RefreshInterval <= 0 {
		return errors.Errorf("refresh-interval must be positive, got %s", s.RefreshInterval)
	}
	if s.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.BubbleMaxWidth < 10 {
		return errors.Errorf("bubble-max-width must be at least 10, got %d", s.BubbleMaxWidth)
	}
	if s.ListWidth < 16 {
		return errors.Errorf("list-width must be at least 16, got %d", s.ListWidth)
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return errors.Errorf("unknown log-format %q", s.LogFormat)
	}
	return nil
}
