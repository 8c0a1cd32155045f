package main

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCommand lets every subcommand read its settings from CLI flags,
// environment variables prefixed with PROJECTBOARD, or config.yaml (in that
// order). A .env file in the working directory is loaded into the environment
// first.
func newRootCommand() *cobra.Command {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PROJECTBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for _, path := range []string{"/etc/projectboard", "$HOME/.projectboard", "."} {
		viper.AddConfigPath(path)
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	return &cobra.Command{
		Use:   "projectboard",
		Short: "Announcements and comments API for project boards",
	}
}

func main() {
	rootCmd := newRootCommand()
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
