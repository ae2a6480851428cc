// Command blanket sends a prompt to any supported LLM backend from the shell.
//
//	blanket ask -m claude-3-5-sonnet-20241022 --system "Be brief." "What is Go?"
//	blanket ask -m gpt-4o-mini --stream -o temperature=0.2 "Tell me a joke"
//	blanket resolve -m llama-3.1-8b-instant --provider groq
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
