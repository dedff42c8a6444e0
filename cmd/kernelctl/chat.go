package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/germanamz/kernelkit/pkg/plugin/mcpplugin"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

type chatFlags struct {
	system      string
	mcpCmds     []string
	mcpURLs     []string
	maxRounds   int
	raw         bool
	width       int
	interactive bool
}

func newChatCmd(c *cli) *cobra.Command {
	f := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Send one chat turn, running any MCP tools the model calls",
		Long: "Builds a chat kernel, attaches MCP servers as plugins and sends the prompt " +
			"(or stdin when no prompt is given). Function calls are executed until the model answers.\n\n" +
			"With --interactive the kernel stays up for a multi-turn session; a prompt given " +
			"as arguments is placed in the input box.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.interactive {
				return runSession(cmd, c, f, strings.Join(args, " "))
			}
			prompt, err := promptFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runChat(cmd, c, f, prompt)
		},
	}

	cmd.Flags().StringVarP(&f.system, "system", "s", "", "system prompt")
	cmd.Flags().StringArrayVar(&f.mcpCmds, "mcp", nil, "MCP server command to attach, e.g. \"npx -y @modelcontextprotocol/server-everything\" (repeatable)")
	cmd.Flags().StringArrayVar(&f.mcpURLs, "mcp-url", nil, "MCP SSE endpoint to attach (repeatable)")
	cmd.Flags().IntVar(&f.maxRounds, "max-rounds", kernel.DefaultMaxFunctionRounds, "maximum function call rounds")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "print the reply without markdown rendering")
	cmd.Flags().IntVar(&f.width, "width", 100, "markdown word wrap width")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "keep the session open and chat turn by turn")

	return cmd
}

// buildChatKernel connects the MCP servers in f and builds a chat kernel
// carrying them as plugins. The close func is always safe to call.
func buildChatKernel(cmd *cobra.Command, c *cli, f *chatFlags) (*kernel.Kernel, func(), error) {
	ctx := cmd.Context()

	plugins, closeAll, err := connectMCP(ctx, f.mcpCmds, f.mcpURLs)
	if err != nil {
		return nil, closeAll, err
	}

	k, err := c.build(ctx, func(o *kernel.Options) {
		o.Type = kernel.Ptr(kernel.Chat)
		o.ConfigureBuilder = func(b kernel.Builder) {
			for _, p := range plugins {
				b.AddPlugin(p)
			}
		}
		o.ConfigureKernel = func(_ context.Context, k *kernel.Kernel) error {
			k.MaxFunctionRounds = f.maxRounds
			return nil
		}
	})
	if err != nil {
		return nil, closeAll, err
	}

	return k, closeAll, nil
}

func runChat(cmd *cobra.Command, c *cli, f *chatFlags, prompt string) error {
	k, closeAll, err := buildChatKernel(cmd, c, f)
	defer closeAll()
	if err != nil {
		return err
	}

	h := chathistory.New()
	if f.system != "" {
		h.AddSystem(f.system)
	}
	h.AddUser(prompt)

	reply, err := k.Chat(cmd.Context(), h)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printFunctionCalls(out, h)

	text := reply.TextContent()
	if !f.raw {
		text = renderMarkdown(text, f.width)
	}
	fmt.Fprintln(out, text)
	printUsage(cmd.ErrOrStderr(), k)

	return nil
}

// connectMCP starts every MCP server and returns their plugins. The close
// func is always safe to call.
func connectMCP(ctx context.Context, commands, urls []string) ([]*plugin.Plugin, func(), error) {
	var (
		clients []*mcpplugin.Client
		plugins []*plugin.Plugin
	)

	closeAll := func() {
		for _, cl := range clients {
			_ = cl.Close()
		}
	}

	names := mcpNames{}

	add := func(cl *mcpplugin.Client) error {
		clients = append(clients, cl)
		p, err := cl.Plugin(ctx)
		if err != nil {
			return err
		}
		plugins = append(plugins, p)
		return nil
	}

	for _, line := range commands {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cl, err := mcpplugin.Start(ctx, names.unique(mcpName(fields[0])), fields[0], fields[1:]...)
		if err != nil {
			return nil, closeAll, err
		}
		if err := add(cl); err != nil {
			return nil, closeAll, err
		}
	}

	for _, u := range urls {
		cl, err := mcpplugin.Dial(ctx, names.unique("mcp"), u)
		if err != nil {
			return nil, closeAll, err
		}
		if err := add(cl); err != nil {
			return nil, closeAll, err
		}
	}

	return plugins, closeAll, nil
}

// mcpName derives a plugin name from a command path. Provider tool names
// only allow [a-zA-Z0-9_-], and '-' separates plugin from function.
func mcpName(command string) string {
	base := strings.TrimSuffix(filepath.Base(command), filepath.Ext(command))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "mcp"
	}
	return b.String()
}

// mcpNames hands out plugin names, suffixing repeats with their ordinal so
// that two servers launched through the same binary do not merge.
type mcpNames map[string]int

func (n mcpNames) unique(name string) string {
	for {
		n[name]++
		if n[name] == 1 {
			return name
		}
		candidate := fmt.Sprintf("%s_%d", name, n[name])
		if _, taken := n[candidate]; !taken {
			n[candidate] = 1
			return candidate
		}
	}
}

// printFunctionCalls lists the function results recorded in h.
func printFunctionCalls(w io.Writer, h *chathistory.History) {
	for _, line := range functionResults(h, 0) {
		fmt.Fprintln(w, line)
	}
}

// functionResults renders one line per function result in h, starting at
// message index from.
func functionResults(h *chathistory.History, from int) []string {
	var lines []string
	h.Each(func(i int, m chathistory.Message) bool {
		if i < from {
			return true
		}
		for _, p := range m.Parts {
			res, ok := p.(chathistory.FunctionResult)
			if !ok {
				continue
			}
			style := dimStyle
			if res.IsError {
				style = errorStyle
			}
			lines = append(lines, labelStyle.Render("⚙ "+res.Name)+" "+style.Render(truncate(res.Content, 80)))
		}
		return true
	})
	return lines
}

// truncate returns s on a single line, cut to at most n terminal columns.
func truncate(s string, n int) string {
	return runewidth.Truncate(strings.ReplaceAll(s, "\n", " "), n, "...")
}
