package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at release time; left as a constant here since this
// gateway ships as a single binary, not through the multi-artifact build
// pipeline some of the example repos use for ldflags injection.
const version = "0.1.0"

// rootCmd is the base command, grounded on the teacher-pack's
// cmd/root.go (a bare cobra.Command wired up in init, subcommands added
// via AddCommand) generalized from a multi-surface personal-assistant
// CLI down to this gateway's single serve subcommand.
var rootCmd = &cobra.Command{
	Use:   "llm-router",
	Short: "llm-router — a polyglot LLM gateway",
	Long:  "llm-router relays OpenAI- and Claude-dialect chat requests across configured providers, translating between dialects and falling back across providers on failure.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd)
}
