package main

import (
	"context"
	"errors"
	"os"

	"github.com/germanamz/kernelkit/cmd/kernelctl/internal/logx"
	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cli holds the persistent flags shared by every subcommand.
type cli struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "kernelctl",
		Short:         "Build model kernels from an options file and talk to them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logx.Configure(c.logLevel, cmd.ErrOrStderr())
			return loadDotEnv(c.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "kernel.yaml", "path to the kernel options file (.yaml, .yml or .json)")
	flags.StringVar(&c.envFile, "env", ".env", "path to .env file (ignored if missing)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error, off")

	root.AddCommand(
		newInitCmd(c),
		newShowCmd(c),
		newChatCmd(c),
		newCompleteCmd(c),
		newEmbedCmd(c),
		newImageCmd(c),
		newTokensCmd(c),
	)

	return root
}

// loadOptions reads the options file with environment expansion.
func (c *cli) loadOptions() (*kernel.Options, error) {
	return kernel.LoadOptions(c.configPath)
}

// build loads the options, lets mutate adjust a copy and builds the kernel
// with the CLI logger attached to ctx.
func (c *cli) build(ctx context.Context, mutate func(*kernel.Options)) (*kernel.Kernel, error) {
	opts, err := c.loadOptions()
	if err != nil {
		return nil, err
	}

	if mutate != nil {
		opts = opts.Clone()
		mutate(opts)
	}

	return kernel.Build(logx.Log.WithContext(ctx), opts)
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
