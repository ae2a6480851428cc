package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/llmblanket/core/registry"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the provider and endpoint a model resolves to",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	llm, err := newClient()
	if err != nil {
		return err
	}

	apiKey, baseURL := llm.Endpoint()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "model:    %s\n", llm.Model())
	fmt.Fprintf(out, "provider: %s (%s)\n", llm.Provider(), registry.FamilyOf(llm.Provider()))
	fmt.Fprintf(out, "endpoint: %s\n", baseURL)
	fmt.Fprintf(out, "api key:  %s\n", maskKey(apiKey))

	if !registry.Known(llm.Provider()) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not a built-in provider, using the OpenAI-compatible backend\n", llm.Provider())
	}
	if llm.Provider() != registry.Groq && registry.IsLikelyGroqModel(llm.Model()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "hint: this model is usually served by Groq, pass --provider groq")
	}
	return nil
}

// maskKey keeps the last four characters of a key.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}
