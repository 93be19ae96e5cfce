package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "nx-keyring"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "NX_KEYRING"
)

// AppConfig holds the application configuration. The keyring package never
// reads this directly; cmd translates it into an explicit keyring.Config so
// keyring behaviour is fully determined by its inputs.
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Key file locations and key-set selection
	Keys struct {
		Dir         string `mapstructure:"dir"`          // primary key directory
		FallbackDir string `mapstructure:"fallback_dir"` // external-tool compatible directory
		UseDevKeys  bool   `mapstructure:"use_dev_keys"` // dev.keys instead of prod.keys
	} `mapstructure:"keys"`

	// Console storage dumps consumed by seed derivation
	Storage struct {
		NANDDir string `mapstructure:"nand_dir"` // system save data root
		SDMCDir string `mapstructure:"sdmc_dir"` // SD card contents root
	} `mapstructure:"storage"`
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	// Viper instance
	v *viper.Viper

	// Ensure thread safety
	initOnce sync.Once
)

// Initialize sets up the configuration system
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		v = viper.New()

		setDefaults(v)

		// Load configuration from file if specified
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName(AppName)
			v.SetConfigType("yaml")
			addSearchPaths(v)
		}

		// Set up environment variables
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()

		// Read configuration file
		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				// Only capture error if the config file was found but couldn't be read
				err = fmt.Errorf("error reading config file: %w", readErr)
			}
			// Config file not found, using defaults and environment variables
			ConfigLoaded = false
			ConfigFile = ""
		} else {
			ConfigLoaded = true
			ConfigFile = v.ConfigFileUsed()
		}

		// Unmarshal config into struct
		if unmarshalErr := v.Unmarshal(&Instance); unmarshalErr != nil {
			err = fmt.Errorf("error parsing config: %w", unmarshalErr)
			return
		}
	})

	return err
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")

	dataDir := defaultDataDir()

	// Primary key directory is ours; the fallback is the conventional
	// location shared with external key-dumping tools.
	v.SetDefault("keys.dir", filepath.Join(dataDir, "keys"))
	v.SetDefault("keys.fallback_dir", filepath.Join(homeDir(), ".switch"))
	v.SetDefault("keys.use_dev_keys", false)

	v.SetDefault("storage.nand_dir", filepath.Join(dataDir, "nand"))
	v.SetDefault("storage.sdmc_dir", filepath.Join(dataDir, "sdmc"))
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, AppName))
	}

	v.AddConfigPath("/etc/" + AppName)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir(), "."+AppName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
