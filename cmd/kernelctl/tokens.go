package main

import (
	"context"
	"fmt"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/spf13/cobra"
)

func newTokensCmd(c *cli) *cobra.Command {
	var (
		system    string
		heuristic bool
		mcpCmds   []string
	)

	cmd := &cobra.Command{
		Use:   "tokens [prompt...]",
		Short: "Estimate the input tokens a chat prompt would use",
		Long: "Counts with the tiktoken encoding of the configured model, falling back to a character heuristic. " +
			"Declarations of attached MCP tools are included. No model request is sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			plugins, closeAll, err := connectMCP(cmd.Context(), mcpCmds, nil)
			defer closeAll()
			if err != nil {
				return err
			}

			k, err := c.build(cmd.Context(), func(o *kernel.Options) {
				o.Type = kernel.Ptr(kernel.Chat)
				o.ConfigureBuilder = func(b kernel.Builder) {
					for _, p := range plugins {
						b.AddPlugin(p)
					}
				}
				o.ConfigureKernel = func(_ context.Context, k *kernel.Kernel) error {
					k.HeuristicTokens = heuristic
					return nil
				}
			})
			if err != nil {
				return err
			}

			h := chathistory.New()
			if system != "" {
				h.AddSystem(system)
			}
			h.AddUser(prompt)

			fmt.Fprintln(cmd.OutOrStdout(), k.EstimateTokens(h))
			return nil
		},
	}

	cmd.Flags().StringVarP(&system, "system", "s", "", "system prompt to include")
	cmd.Flags().BoolVar(&heuristic, "heuristic", false, "skip tiktoken and use the character heuristic")
	cmd.Flags().StringArrayVar(&mcpCmds, "mcp", nil, "MCP server command whose tools to include (repeatable)")

	return cmd
}
