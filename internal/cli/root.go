// Package cli - команды slides. Каждая команда - это "экран": перед работой
// она проходит через guard.Router, как переход на соответствующий маршрут.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/go-slides-client/internal/app"
	"github.com/pribylovaa/go-slides-client/internal/config"
	"github.com/pribylovaa/go-slides-client/internal/credentials"
	"github.com/pribylovaa/go-slides-client/internal/notice"
	"github.com/pribylovaa/go-slides-client/internal/output"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
)

// ErrLoginRequired - защищённая команда без сессии.
var ErrLoginRequired = errors.New("login required")

// Options позволяют тестам подменить конфиг, потоки и хранилище.
type Options struct {
	Config *config.Config
	Out    io.Writer
	Err    io.Writer
	KV     credentials.KV
}

type cli struct {
	opts Options

	cfgFile   string
	verbose   bool
	colorFlag string

	client  *app.Client
	printer *output.Printer
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:   "slides",
		Short: "Client for the slide-deck generation API",
		Long: `slides talks to the slide-deck generation API: upload documents to the
knowledge base, search them and generate or compile presentations.

Example usage:
  slides login -u alice          # Start a session
  slides docs upload notes.md    # Add a document to the knowledge base
  slides ppt generate --title "Intro" --prompt "Graph theory basics"
  slides ppt download 3 -o intro.pdf`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: CONFIG_PATH or ./local.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&c.colorFlag, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.docsCmd(),
		c.pptCmd(),
		c.dashboardCmd(),
	)

	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	mode, err := output.ParseColorMode(c.colorFlag)
	if err != nil {
		return err
	}
	colors := output.ResolveColors(mode)

	cfg := c.opts.Config
	if cfg == nil {
		cfg, err = config.Load(c.cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	log := app.SetupLogger(cfg.Env, c.opts.Err, c.verbose)

	c.printer = output.NewPrinter(c.opts.Out, colors)
	c.client, err = app.New(cmd.Context(), *cfg, app.Options{
		Logger:   log,
		Notifier: notice.NewPrinter(c.opts.Err, colors),
		KV:       c.opts.KV,
	})
	if err != nil {
		return err
	}

	log.Debug("configuration loaded",
		"env", cfg.Env,
		"base_url", cfg.API.BaseURL,
		"credentials", cfg.Credentials.Backend,
	)

	return nil
}

func (c *cli) teardown(*cobra.Command, []string) error {
	if c.client == nil {
		return nil
	}

	return c.client.Close()
}

// open - переход на маршрут команды. Без сессии guard уводит на логин,
// а команда завершается с ErrLoginRequired.
func (c *cli) open(ctx context.Context, route string) error {
	d, err := c.client.Router.Navigate(ctx, route)
	if err != nil {
		return err
	}

	if !d.Proceed {
		c.printer.Warning("%s requires a session, run `slides login` first", route)
		return fmt.Errorf("%s: %w", route, ErrLoginRequired)
	}

	return nil
}

// Execute запускает CLI и возвращает код выхода. Ошибки pipeline уже показаны
// уведомлением, повторно они не печатаются.
func Execute(ctx context.Context, opts Options) int {
	root := NewRootCommand(opts)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if pipeline.KindOf(err) == "" && !errors.Is(err, ErrLoginRequired) {
		errw := opts.Err
		if errw == nil {
			errw = os.Stderr
		}
		_, _ = fmt.Fprintln(errw, "Error: "+err.Error())
	}

	return 1
}
