package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tutorcli",
	Short: "Terminal client for the EduAI Socratic tutor",
	Long: `tutorcli runs a tutoring session in the terminal against the configured
model provider, using the same conversation rules as the web front end.`,
	PersistentPreRun: loadEnv,
	SilenceUsage:     true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadEnv(_ *cobra.Command, _ []string) {
	// A missing .env is fine; the process environment is used instead.
	_ = godotenv.Load()
}
