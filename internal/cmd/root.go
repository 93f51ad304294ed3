package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/drawbridge/internal/cmd/config"
	appconfig "github.com/Iron-Ham/drawbridge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "drawbridge",
	Short: "Drawbridge crossing simulator",
	Long: `Drawbridge simulates a single-lane bridge shared by cars and ships.

Cars cross while the bridge is lowered; ships pass while it is raised.
The bridge is raised only once enough ships are waiting, and every
crossing can be checked against the bridge rules afterwards.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/drawbridge/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/drawbridge")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DRAWBRIDGE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., DRAWBRIDGE_BRIDGE_CRIT_SHIPS for bridge.crit_ships
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
