// Package commands implements the CLI commands for postport.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postport/postport/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "postport",
	Short:   "Convert a blog post page into a portable HTML fragment",
	Version: version.String(),
	Long: `Postport converts a single blog post from one publishing platform's
markup into a minimal HTML fragment suitable for import into another
platform, downloading the post's images along the way.

Examples:
  # Convert a post into a directory named after its title
  postport convert "https://example.com/blog/my-trip"

  # Write the fragment to an explicit file
  postport convert "https://example.com/blog/my-trip" -o out/my-trip.html

  # Print the fragment to stdout
  postport convert "https://example.com/blog/my-trip" -o -

  # Strip images and insert placeholder markers instead
  postport convert "https://example.com/blog/my-trip" --image-mode placeholder`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetVersionTemplate(version.Full() + "\n")

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.postport.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".postport")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("POSTPORT")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
