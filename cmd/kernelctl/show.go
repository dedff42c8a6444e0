package main

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newShowCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the options file with the API key redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			load := kernel.LoadOptions
			if raw {
				load = kernel.LoadOptionsRaw
			}

			opts, err := load(c.configPath)
			if err != nil {
				return err
			}
			opts = opts.Redacted()

			var data []byte
			if asJSON {
				data, err = json.MarshalIndent(opts, "", "  ")
				data = append(data, '\n')
			} else {
				data, err = yaml.Marshal(opts)
			}
			if err != nil {
				return fmt.Errorf("encode options: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headerStyle.Render(c.configPath))
			_, err = w.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	cmd.Flags().BoolVar(&raw, "raw", false, "do not expand environment variables")

	return cmd
}
