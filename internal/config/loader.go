package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".pkglister"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for pkglister settings.
const envPrefix = "PKGLISTER"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("scan.extensions", DefaultScanExtensions())
	viperCfg.SetDefault("scan.exclude", []string{})
	viperCfg.SetDefault("scan.gitignore", DefaultScanGitignore)
	viperCfg.SetDefault("scan.skip_vendor", DefaultScanSkipVendor)
	viperCfg.SetDefault("scan.detect_scripts", DefaultScanDetectScripts)
	viperCfg.SetDefault("scan.keep_going", DefaultScanKeepGoing)
	viperCfg.SetDefault("scan.max_file_size", DefaultScanMaxFileSize)

	viperCfg.SetDefault("python.interpreter", DefaultPythonInterpreter)
	viperCfg.SetDefault("python.version", DefaultPythonVersion)
	viperCfg.SetDefault("python.site_packages", []string{})
	viperCfg.SetDefault("python.probe", DefaultPythonProbe)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.specifier", DefaultOutputSpecifier)
	viperCfg.SetDefault("output.no_color", DefaultOutputNoColor)

	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_json", DefaultLogJSON)
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.metrics_file", "")
}
