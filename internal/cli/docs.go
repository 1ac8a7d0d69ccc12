package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-slides-client/internal/api"
	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/output"
)

const knowledgeRoute = "/knowledge"

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return uint(id), nil
}

func (c *cli) docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"knowledge"},
		Short:   "Manage knowledge base documents",
	}

	cmd.AddCommand(
		c.docsUploadCmd(),
		c.docsListCmd(),
		c.docsGetCmd(),
		c.docsDeleteCmd(),
		c.docsSearchCmd(),
	)

	return cmd
}

func (c *cli) docsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, knowledgeRoute); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := c.client.Knowledge.Upload(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			c.printer.Success("uploaded %s (id %d, %d chunks)", doc.Filename, doc.ID, doc.ChunkCount)
			return nil
		},
	}
}

func (c *cli) docsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, knowledgeRoute); err != nil {
				return err
			}

			docs, err := c.client.Knowledge.List(ctx)
			if err != nil {
				return err
			}

			if len(docs) == 0 {
				c.printer.Info("no documents yet")
				return nil
			}

			return output.Documents(c.printer.Writer(), c.printer, docs)
		},
	}
}

func (c *cli) docsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, knowledgeRoute); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			doc, err := c.client.Knowledge.Get(ctx, id)
			if err != nil {
				return err
			}

			return output.Documents(c.printer.Writer(), c.printer, []models.Document{*doc})
		},
	}
}

func (c *cli) docsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, knowledgeRoute); err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := c.client.Knowledge.Delete(ctx, id); err != nil {
				return err
			}

			c.printer.Success("document %d deleted", id)
			return nil
		},
	}
}

func (c *cli) docsSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, knowledgeRoute); err != nil {
				return err
			}

			res, err := c.client.Knowledge.Search(ctx, models.SearchRequest{
				Query: strings.Join(args, " "),
				TopK:  topK,
			})
			if err != nil {
				return err
			}

			if len(res) == 0 {
				c.printer.Info("nothing found")
				return nil
			}

			return output.SearchResults(c.printer.Writer(), res)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", api.DefaultTopK, "number of chunks to return")

	return cmd
}
