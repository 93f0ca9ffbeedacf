package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "modelplane",
	Short: "Model control plane: one catalog over chat, git, filesystem and Prometheus back-ends",
	Long: `modelplane is an HTTP broker that unifies heterogeneous back-ends behind
one capability-tagged model catalog: OpenAI-compatible chat/completion
providers, a git diff and requirements-change analyzer, a sandboxed
filesystem gateway and a Prometheus query proxy.

Clients enumerate models via GET /v1/models and invoke the
capability-appropriate endpoints with uniform request and response shapes.`,
	SilenceUsage: true,
}

// envOr reads an environment variable with a fallback; flags built on it
// keep flag-over-env precedence.
func envOr(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
