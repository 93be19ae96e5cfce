package cmd

import (
	"fmt"

	"github.com/deploymenttheory/go-nx-keyring/internal/config"
	"github.com/deploymenttheory/go-nx-keyring/internal/keyring"
	"github.com/deploymenttheory/go-nx-keyring/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base CLI command
var rootCmd = &cobra.Command{
	Use:   "nx-keyring",
	Short: "A CLI tool for managing Switch decryption keys",
	Long: `nx-keyring loads, derives and caches the symmetric keys used to
decrypt Switch content. Keys come from prod.keys / dev.keys / title.keys
files in the configured key directories; keys the tool derives itself are
appended to the matching *_autogenerated files and reloaded on every run.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// CLI flags can override config settings
		if cmd.Flags().Changed("debug") {
			debug, _ := cmd.Flags().GetBool("debug")
			config.Instance.Debug = debug
		}
		if cmd.Flags().Changed("log-format") {
			logFormat, _ := cmd.Flags().GetString("log-format")
			config.Instance.LogFormat = logFormat
		}
		if cmd.Flags().Changed("keys-dir") {
			dir, _ := cmd.Flags().GetString("keys-dir")
			config.Instance.Keys.Dir = dir
		}
		if cmd.Flags().Changed("dev-keys") {
			dev, _ := cmd.Flags().GetBool("dev-keys")
			config.Instance.Keys.UseDevKeys = dev
		}

		// If config file was explicitly specified via flag, reinitialize
		if cmd.Flags().Changed("config") && cfgFile != "" {
			if err := config.Initialize(cfgFile); err != nil {
				logger.LogError("Error loading config file", err, map[string]interface{}{
					"config_file": cfgFile,
				})
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.LogError("Command execution failed", err, nil)
		// Let Cobra handle the exit
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "human", "Log format: json or human")
	rootCmd.PersistentFlags().String("keys-dir", "", "Primary key directory")
	rootCmd.PersistentFlags().Bool("dev-keys", false, "Use the dev key set instead of prod")

	// Bind flags to viper settings
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("keys.dir", rootCmd.PersistentFlags().Lookup("keys-dir"))
	viper.BindPFlag("keys.use_dev_keys", rootCmd.PersistentFlags().Lookup("dev-keys"))

	rootCmd.AddCommand(versionCmd)
}

// newKeyManager builds a keyring instance from the global app configuration.
// This is the only place the ambient config crosses into the keyring.
func newKeyManager() *keyring.KeyManager {
	return keyring.NewKeyManager(keyring.Config{
		KeysDir:         config.Instance.Keys.Dir,
		FallbackKeysDir: config.Instance.Keys.FallbackDir,
		UseDevKeys:      config.Instance.Keys.UseDevKeys,
		NANDDir:         config.Instance.Storage.NANDDir,
		SDMCDir:         config.Instance.Storage.SDMCDir,
	})
}

// versionCmd shows the application version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("nx-keyring v0.1.0")
	},
}
