package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"chat-gateway/internal/config"
)

const checkUsage = `Usage:
  chat-gateway check [--config <path>] [--env-file <path>]`

// check loads configuration exactly as serve would and prints the result.
func check(out io.Writer, args []string) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, checkUsage)
	}

	var cfgPath, envFile string
	flags.StringVar(&cfgPath, "config", "", "path to configuration file")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse check flags: %w", err)
	}

	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode effective config: %w", err)
	}
	return enc.Close()
}
