package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/llmblanket/core/client"
	"github.com/leofalp/llmblanket/core/parse"
	"github.com/leofalp/llmblanket/providers/ai"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt...>",
	Short: "Send a prompt and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringP("system", "s", "", "System prompt")
	askCmd.Flags().StringArrayP("option", "o", nil, "Backend option as key=value, repeatable (e.g. temperature=0.2)")
	askCmd.Flags().Bool("stream", false, "Print the reply as it is generated")
	askCmd.Flags().Bool("usage", false, "Print token usage after the reply")
	askCmd.Flags().Bool("json", false, "Decode the reply as JSON (repairing it if needed) and print it indented")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	system, _ := cmd.Flags().GetString("system")
	rawOptions, _ := cmd.Flags().GetStringArray("option")
	stream, _ := cmd.Flags().GetBool("stream")
	showUsage, _ := cmd.Flags().GetBool("usage")
	asJSON, _ := cmd.Flags().GetBool("json")

	options, err := parseOptions(rawOptions)
	if err != nil {
		return err
	}

	llm, err := newClient()
	if err != nil {
		return err
	}

	request := client.Request{
		System:  system,
		User:    strings.Join(args, " "),
		Options: options,
	}
	out := cmd.OutOrStdout()

	if stream && !asJSON {
		chunks, err := llm.InvokeStream(cmd.Context(), request)
		if err != nil {
			return err
		}
		defer func() { _ = chunks.Close() }()

		for chunk, err := range chunks.Iter() {
			if err != nil {
				return err
			}
			fmt.Fprint(out, chunk.Content)
		}
		fmt.Fprintln(out)
		return nil
	}

	response, err := invoke(cmd, llm, request, stream)
	if err != nil {
		return err
	}

	if asJSON {
		formatted, err := formatJSON(response)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatted)
	} else {
		fmt.Fprintln(out, response)
	}

	if showUsage && response.Usage != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "tokens: prompt=%d completion=%d total=%d\n",
			response.Usage.PromptTokens, response.Usage.CompletionTokens, response.Usage.TotalTokens)
	}
	return nil
}

// invoke performs a blocking call, or collects a stream when streaming was
// requested but the reply must be post-processed as a whole.
func invoke(cmd *cobra.Command, llm *client.Client, request client.Request, stream bool) (*ai.Response, error) {
	if !stream {
		return llm.Invoke(cmd.Context(), request)
	}
	chunks, err := llm.InvokeStream(cmd.Context(), request)
	if err != nil {
		return nil, err
	}
	return chunks.Collect()
}

// formatJSON decodes the reply with the lenient parser (code fences, single
// quotes and trailing commas are accepted) and re-encodes it indented.
func formatJSON(response *ai.Response) (string, error) {
	value, err := parse.ResponseAs[any](response)
	if err != nil {
		return "", fmt.Errorf("reply is not JSON: %w", err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
