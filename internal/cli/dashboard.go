package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/output"
)

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show profile, documents and recent presentations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.open(ctx, "/profile"); err != nil {
				return err
			}

			var (
				user  *models.User
				docs  []models.Document
				decks []models.PPTRecord
			)

			// Вызовы независимы и не отменяют друг друга: каждый сбой даёт
			// своё уведомление, а не сетевую ошибку из-за отмены.
			var g errgroup.Group
			g.Go(func() error {
				var err error
				user, err = c.client.Session.FetchProfile(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				docs, err = c.client.Knowledge.List(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				decks, err = c.client.PPT.History(ctx)
				return err
			})

			if err := g.Wait(); err != nil {
				return err
			}

			w := c.printer.Writer()
			if err := output.User(w, user); err != nil {
				return err
			}

			c.printer.Info("\nDocuments: %d", len(docs))
			if len(docs) > 0 {
				if err := output.Documents(w, c.printer, docs); err != nil {
					return err
				}
			}

			c.printer.Info("\nPresentations: %d", len(decks))
			if len(decks) > 0 {
				return output.Decks(w, c.printer, decks)
			}

			return nil
		},
	}
}
