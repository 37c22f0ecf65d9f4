package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const usage = `chat-gateway relays canonical chat completions to Claude, Gemini and OpenAI-compatible providers.

Usage:
  chat-gateway <command> [flags]

Commands:
  serve    Start the HTTP server
  check    Validate configuration and print the effective settings

Flags:
  -h, --help  Show this help message`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage(os.Stdout)
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "check":
		return check(os.Stdout, args[1:])
	case "help", "-h", "--help":
		return printUsage(os.Stdout)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage(w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.TrimSpace(usage))
	return err
}
