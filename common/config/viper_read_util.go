package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/codecomet-io/codecomet-go/common/env"
	"github.com/codecomet-io/codecomet-go/common/logger"
)

const (
	fileFormat     = ".yaml"        // File format of the config files
	relativePath   = "./cmd/config" // Default relative path for config files (base path)
	binaryPath     = "./config"     // Path for binary build config (base path)
	binaryDir      = "target"       // Directory name for the binary target
	binaryInDocker = "app"          // Directory name for Docker deployment
	envVarPrefix   = "env://"       // Prefix for environment variable placeholders
)

// YamlReadConfig holds the configuration paths (relative and absolute).
type YamlReadConfig struct {
	RelativePath string // Path relative to the current directory
	AbsolutePath string // Absolute path if provided
	DynamicDir   string // Optional dynamic directory
}

// ReadConfigOption is a function signature used to set configuration options.
type ReadConfigOption func(*YamlReadConfig)

// WithRelativePath sets a relative path for the config file.
func WithRelativePath(path string) ReadConfigOption {
	return func(config *YamlReadConfig) {
		config.RelativePath = path
	}
}

// WithAbsolutePath sets an absolute path for the config file.
func WithAbsolutePath(path string) ReadConfigOption {
	return func(config *YamlReadConfig) {
		config.AbsolutePath = path
	}
}

// WithDynamicDir allows setting a dynamic subdirectory for the configuration path.
func WithDynamicDir(dynamicDir string) ReadConfigOption {
	return func(config *YamlReadConfig) {
		config.DynamicDir = dynamicDir
	}
}

// LoadConfig loads the YAML configuration file for the current environment
// and unmarshals it into conf. Values prefixed with "env://" are resolved
// from the process environment.
func LoadConfig(conf interface{}, log *logger.Logger, options ...ReadConfigOption) error { //nolint:cyclop
	var pathToConfigDir string

	config := &YamlReadConfig{RelativePath: relativePath}

	for _, option := range options {
		option(config)
	}

	currentDir, err := os.Getwd()
	if err != nil {
		log.Error("error getting current working directory", logger.Error(err))

		return errors.Wrap(err, "get current working directory")
	}

	// Adjust config path if running from binary target or Docker container
	if strings.Contains(currentDir, binaryDir) || strings.Contains(currentDir, binaryInDocker) {
		config.RelativePath = binaryPath
	}

	if config.DynamicDir != "" {
		config.RelativePath = fmt.Sprintf("%s/%s", config.RelativePath, config.DynamicDir)
		if config.AbsolutePath != "" {
			config.AbsolutePath = fmt.Sprintf("%s/%s", config.AbsolutePath, config.DynamicDir)
		}
	}

	if config.AbsolutePath != "" {
		pathToConfigDir = config.AbsolutePath
	} else {
		pathToConfigDir = config.RelativePath
	}

	currentEnv, err := env.GetApplicationEnv()
	if err != nil {
		return errors.Wrap(err, "invalid environment")
	}

	filePath := fmt.Sprintf("%s/%s%s", pathToConfigDir, currentEnv, fileFormat)
	log.Info("reading config file", logger.String("path", filePath))

	viper.SetConfigFile(filePath)
	viper.SetEnvPrefix("")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return errors.Wrap(err, "read configuration file")
	}

	// Replace environment variable placeholders with actual values
	for _, key := range viper.AllKeys() {
		value := viper.Get(key)
		setEnvVariableFromString(key, value, log)
	}

	err = viper.Unmarshal(conf)
	if err != nil {
		return errors.Wrap(err, "unmarshal configuration")
	}

	return nil
}

func setEnvVariableFromString(key string, value interface{}, log *logger.Logger) {
	if str, ok := value.(string); ok && strings.HasPrefix(str, envVarPrefix) {
		envVar := str[len(envVarPrefix):]

		envValue, exists := os.LookupEnv(envVar)
		if exists {
			viper.Set(key, envValue)
		} else {
			viper.Set(key, "") // Missing env vars resolve to empty, not an error
			log.Warn("environment variable not found", logger.String("variableName", envVar))
		}
	}
}
