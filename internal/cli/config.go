package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	rterrors "github.com/toyz/annoroute/internal/errors"
	"github.com/toyz/annoroute/internal/utils"
	"github.com/toyz/annoroute/pkg/router"
)

const (
	// EnvPrefix prefixes every environment override, as in ANNOROUTE_FORMAT
	EnvPrefix = "ANNOROUTE"
	// ConfigName is the config file looked up in the working directory
	ConfigName = ".annoroute"
	// ConfigFileEnv names a config file explicitly
	ConfigFileEnv = "ANNOROUTE_CONFIG_FILE"
)

// Output formats understood by the routes command
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config holds the CLI configuration
type Config struct {
	// Dirs are the scan patterns used when no arguments are given
	Dirs []string `mapstructure:"dirs"`

	// Extensions are the source file suffixes scanned
	Extensions []string `mapstructure:"extensions"`

	// Methods are the verbs treated as route annotations
	Methods []string `mapstructure:"methods"`

	// Format is the routes output format: table, json or yaml
	Format string `mapstructure:"format"`

	// LogLevel is the diagnostic level: silent, error, warn, info, verbose or debug
	LogLevel string `mapstructure:"log_level"`

	// Module overrides the module name read from go.mod
	Module string `mapstructure:"module"`

	// WatchDelay is how long check --watch waits for changes to settle
	WatchDelay time.Duration `mapstructure:"watch_delay"`
}

// NewViper creates a viper instance with defaults, environment binding and
// the config file. configFile wins over ANNOROUTE_CONFIG_FILE, which wins
// over .annoroute.yml in the working directory. A missing default file is
// not an error.
func NewViper(configFile string, getenv func(string) string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("dirs", []string{"./..."})
	v.SetDefault("extensions", utils.DefaultExtensions)
	v.SetDefault("methods", router.DefaultMethods)
	v.SetDefault("format", FormatTable)
	v.SetDefault("log_level", "info")
	v.SetDefault("module", "")
	v.SetDefault("watch_delay", 300*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := configFile
	if explicit == "" && getenv != nil {
		explicit = getenv(ConfigFileEnv)
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, rterrors.WrapConfigurationError(explicit, "read", err)
	}
	return v, nil
}

// LoadConfig decodes and validates the configuration held by v
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, rterrors.WrapConfigurationError("annoroute", "decode", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes the configuration and rejects unusable values
func (c *Config) Validate() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	switch c.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return rterrors.WrapConfigurationError("format", "validate",
			fmt.Errorf("unsupported format %q (supported: table, json, yaml)", c.Format))
	}

	if _, err := utils.ParseDiagnosticLevel(c.LogLevel); err != nil {
		return rterrors.WrapConfigurationError("log_level", "validate", err)
	}

	if len(c.Dirs) == 0 {
		c.Dirs = []string{"./..."}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = utils.DefaultExtensions
	}
	for i, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Extensions[i] = "." + ext
		}
	}

	if len(c.Methods) == 0 {
		c.Methods = router.DefaultMethods
	}
	methods := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	c.Methods = methods

	if c.WatchDelay <= 0 {
		c.WatchDelay = 300 * time.Millisecond
	}
	return nil
}

// Diagnostics builds the diagnostic system for the configured level
func (c *Config) Diagnostics() *utils.DiagnosticSystem {
	level, err := utils.ParseDiagnosticLevel(c.LogLevel)
	if err != nil {
		level = utils.DiagnosticInfo
	}
	return utils.NewDiagnosticSystem(level)
}
