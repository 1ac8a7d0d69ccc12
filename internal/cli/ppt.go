package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/output"
)

const (
	generateRoute = "/generate"
	historyRoute  = "/history"
)

func (c *cli) pptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ppt",
		Aliases: []string{"deck"},
		Short:   "Generate and manage presentations",
	}

	cmd.AddCommand(
		c.pptGenerateCmd(),
		c.pptTemplatesCmd(),
		c.pptCompileCmd(),
		c.pptHistoryCmd(),
		c.pptGetCmd(),
		c.pptDeleteCmd(),
		c.pptDownloadCmd(),
	)

	return cmd
}

func (c *cli) showDeck(rec *models.PPTRecord, withSource bool) error {
	c.client.SetCurrent(rec)

	if err := output.Decks(c.printer.Writer(), c.printer, []models.PPTRecord{*rec}); err != nil {
		return err
	}

	if rec.ErrorMessage != "" {
		c.printer.Warning("%s", rec.ErrorMessage)
	}

	if withSource && rec.LatexContent != "" {
		_, err := fmt.Fprintf(c.printer.Writer(), "\n%s", rec.LatexContent)
		return err
	}

	return nil
}

func (c *cli) pptGenerateCmd() *cobra.Command {
	var (
		req    models.GeneratePPTRequest
		source bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a presentation from a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, generateRoute); err != nil {
				return err
			}

			rec, err := c.client.PPT.Generate(ctx, req)
			if err != nil {
				return err
			}

			return c.showDeck(rec, source)
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "presentation title")
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "what the presentation is about")
	cmd.Flags().StringVar(&req.Template, "template", "", "template name (see `slides ppt templates`)")
	cmd.Flags().UintSliceVar(&req.DocumentIDs, "doc", nil, "knowledge base document ids to use")
	cmd.Flags().BoolVar(&req.UseOpenAI, "openai", false, "use the OpenAI backend")
	cmd.Flags().BoolVar(&source, "source", false, "print the generated LaTeX")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (c *cli) pptTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, generateRoute); err != nil {
				return err
			}

			list, err := c.client.PPT.Templates(ctx)
			if err != nil {
				return err
			}

			for _, t := range list {
				c.printer.Info("%s", t)
			}

			return nil
		},
	}
}

func (c *cli) pptCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.tex|->",
		Short: "Compile LaTeX source into a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, generateRoute); err != nil {
				return err
			}

			var (
				src []byte
				err error
			)
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			rec, err := c.client.PPT.Compile(ctx, string(src))
			if err != nil {
				return err
			}

			return c.showDeck(rec, false)
		},
	}
}

func (c *cli) pptHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List generated presentations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, historyRoute); err != nil {
				return err
			}

			list, err := c.client.PPT.History(ctx)
			if err != nil {
				return err
			}

			if len(list) == 0 {
				c.printer.Info("no presentations yet")
				return nil
			}

			return output.Decks(c.printer.Writer(), c.printer, list)
		},
	}
}

func (c *cli) pptGetCmd() *cobra.Command {
	var source bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, historyRoute); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rec, err := c.client.PPT.Get(ctx, id)
			if err != nil {
				return err
			}

			return c.showDeck(rec, source)
		},
	}

	cmd.Flags().BoolVar(&source, "source", false, "print the LaTeX source")

	return cmd
}

func (c *cli) pptDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, historyRoute); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := c.client.PPT.Delete(ctx, id); err != nil {
				return err
			}

			c.printer.Success("presentation %d deleted", id)
			return nil
		},
	}
}

func (c *cli) pptDownloadCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the PDF of a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, historyRoute); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			raw, err := c.client.PPT.Download(ctx, id)
			if err != nil {
				return err
			}
			defer raw.Body.Close()

			path := out
			if path == "" {
				path = raw.Filename
			}
			if path == "" {
				path = fmt.Sprintf("deck-%d.pdf", id)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}

			n, err := io.Copy(f, raw.Body)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			c.printer.Success("saved %s (%s)", path, output.HumanSize(n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: name suggested by the server)")

	return cmd
}
