package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/thanks/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "thanks",
	Short: "Acknowledge merged pull requests and applied patch series",
	Long: `thanks tracks pull requests and patch series you received for review,
finds the ones you integrated by looking at repository history, and writes
ready-to-send acknowledgment messages for git send-email.

Without a subcommand, lists the items currently being tracked.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runList,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/thanks/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding tracked items (overrides paths.data_dir)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug detail")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("paths.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/thanks")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("THANKS")
	// e.g., THANKS_MATCH_SINCE for match.since
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
