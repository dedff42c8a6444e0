package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/spf13/cobra"
)

func newCompleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "complete [prompt...]",
		Short: "Generate text for a prompt with a completion kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			k, err := c.build(cmd.Context(), func(o *kernel.Options) {
				o.Type = kernel.Ptr(kernel.Completion)
			})
			if err != nil {
				return err
			}

			out, err := k.Complete(cmd.Context(), prompt)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			printUsage(cmd.ErrOrStderr(), k)
			return nil
		},
	}
}

func newEmbedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "embed <text>...",
		Short: "Print one embedding vector per argument as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := c.build(cmd.Context(), func(o *kernel.Options) {
				o.Type = kernel.Ptr(kernel.Embedding)
			})
			if err != nil {
				return err
			}

			vecs, err := k.Embed(cmd.Context(), args...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, v := range vecs {
				if err := enc.Encode(v); err != nil {
					return err
				}
			}
			printUsage(cmd.ErrOrStderr(), k)
			return nil
		},
	}
}

func newImageCmd(c *cli) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "image [prompt...]",
		Short: "Generate an image; prints its URL or writes it to --out",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			k, err := c.build(cmd.Context(), func(o *kernel.Options) {
				o.Type = kernel.Ptr(kernel.Image)
			})
			if err != nil {
				return err
			}

			img, err := k.GenerateImage(cmd.Context(), prompt)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if img.RevisedPrompt != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("revised prompt: "+img.RevisedPrompt))
			}

			switch {
			case len(img.Data) > 0 && outPath != "":
				if err := os.WriteFile(outPath, img.Data, 0o600); err != nil {
					return fmt.Errorf("write image: %w", err)
				}
				fmt.Fprintln(w, outPath)
			case len(img.Data) > 0:
				return fmt.Errorf("image returned inline (%s, %d bytes); use --out to save it", mediaType(img.Data, img.MediaType), len(img.Data))
			default:
				fmt.Fprintln(w, img.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file to write inline image data to")

	return cmd
}

func mediaType(data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	return strings.SplitN(http.DetectContentType(data), ";", 2)[0]
}
