package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-image/pkg/simpleimage/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the imagectl command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imagectl",
		Short: "Signed imagor URL and image store tool",
		Long: `imagectl signs, parses and verifies imagor URLs and inspects the image store.

Configuration is read from the environment (and a .env file in the current
directory) using the same variables as the server. Run "imagectl env" for the list.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.PersistentFlags().String("imagor-url", "", "override IMAGOR_URL")
	rootCmd.PersistentFlags().String("imagor-secret", "", "override IMAGOR_SECRET")

	rootCmd.AddCommand(NewSignCommand())
	rootCmd.AddCommand(NewParseCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewPresetsCommand())
	rootCmd.AddCommand(NewImagesCommand())
	rootCmd.AddCommand(NewStorageCheckCommand())
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}

// loadConfig reads the environment and applies any imagor flag overrides
func loadConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	opts := []config.Option{config.WithEnv()}

	urlFlag, _ := cmd.Flags().GetString("imagor-url")
	secretFlag, _ := cmd.Flags().GetString("imagor-secret")
	if urlFlag != "" || secretFlag != "" {
		opts = append(opts, func(c *config.ServerConfig) error {
			if urlFlag != "" {
				c.ImagorURL = urlFlag
			}
			if secretFlag != "" {
				c.ImagorSecret = secretFlag
			}
			return nil
		})
	}

	return config.Load(opts...)
}
