package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TFMV/keywordgraph/config"
	"github.com/TFMV/keywordgraph/ingest"
	"github.com/TFMV/keywordgraph/logger"
	"github.com/TFMV/keywordgraph/metrics"
	"github.com/TFMV/keywordgraph/render"
	"github.com/TFMV/keywordgraph/server"
	"github.com/TFMV/keywordgraph/session"
	"github.com/TFMV/keywordgraph/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// progressEvery is how many ticks the render command runs between progress logs
const progressEvery = 100

// Terminal colors
var (
	bad    = color.New(color.FgRed, color.Bold)
	hint   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	subtle = color.New(color.FgHiBlack)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		bad.Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		for _, h := range errors.GetAllHints(err) {
			hint.Fprint(os.Stderr, "Hint: ")
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "keywordgraph",
		Short: "Interactive keyword co-occurrence network",
		Long: `keywordgraph lays out a keyword co-occurrence network with a force-directed
simulation and lets you explore it by hovering and selecting keywords.

Available commands:
  serve  - Serve the live graph to a browser
  render - Run the simulation headless and export a snapshot
  tui    - Explore the live graph in the terminal

Examples:
  keywordgraph serve --addr :8080 --data keywords.json --watch
  keywordgraph render --ticks 500 --format svg -o network.svg
  keywordgraph tui --synthetic-count 120`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultFile+")")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newRenderCmd(&configPath))
	root.AddCommand(newTUICmd(&configPath))
	return root
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			logger.Logger.Infow("received shutdown signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}

func loadConfig(cmd *cobra.Command, configPath string, initLogger bool) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), configPath)
	if err != nil {
		return nil, err
	}
	if initLogger {
		if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// startSession runs a session until ctx is done. The returned channel
// yields the result of Run.
func startSession(ctx context.Context, cfg *config.Config, fps int) (*session.Session, <-chan error, error) {
	sess, err := session.New(session.Options{
		Width:      cfg.Width,
		Height:     cfg.Height,
		FPS:        fps,
		Background: cfg.Background,
		Source:     ingest.NewSource(cfg.Data, cfg.Synthetic.Count, cfg.Synthetic.Seed),
		Logger:     logger.Named("session"),
		Metrics:    metrics.DefaultRegistry(),
	})
	if err != nil {
		return nil, nil, err
	}

	errc := make(chan error, 1)
	go func() { errc <- sess.Run(ctx) }()
	return sess, errc, nil
}

// watchData reloads sess whenever the data source changes
func watchData(ctx context.Context, cfg *config.Config, sess *session.Session) error {
	if !cfg.Watch {
		return nil
	}
	if cfg.Data == "" || cfg.Synthetic.Count > 0 {
		logger.Logger.Warnw("watch ignored without a data file")
		return nil
	}

	log := logger.Named("watch")
	w, err := ingest.NewWatcher(cfg.Data, ingest.DefaultQuietPeriod, log)
	if err != nil {
		return err
	}
	go w.Run(ctx, func() {
		log.Infow("data changed, reloading", "path", cfg.Data)
		if err := sess.Reload(ctx); err != nil {
			log.Warnw("reload failed, keeping current model", "error", err)
		}
	})
	return nil
}

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live graph over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath, true)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			sess, sessErr, err := startSession(ctx, cfg, cfg.FPS)
			if err != nil {
				return err
			}
			if err := watchData(ctx, cfg, sess); err != nil {
				return err
			}

			srv := server.New(sess, metrics.DefaultRegistry(), logger.Named("server"))
			srvErr := make(chan error, 1)
			go func() { srvErr <- srv.ListenAndServe(ctx, cfg.Addr) }()

			select {
			case err := <-sessErr:
				cancel()
				<-srvErr
				return err
			case err := <-srvErr:
				cancel()
				<-sess.Done()
				return err
			}
		},
	}
	config.DefineFlags(cmd.Flags())
	return cmd
}

func newRenderCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run the simulation headless and export a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath, true)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			// Frames only run through Advance
			sess, sessErr, err := startSession(ctx, cfg, 0)
			if err != nil {
				return err
			}
			defer func() {
				cancel()
				<-sess.Done()
			}()

			for done := 0; done < cfg.Ticks; done += progressEvery {
				if err := sess.Advance(ctx, min(progressEvery, cfg.Ticks-done)); err != nil {
					if errors.Is(err, session.ErrClosed) {
						return <-sessErr
					}
					return err
				}
				logger.Logger.Debugw("simulating", "ticks", min(done+progressEvery, cfg.Ticks), "of", cfg.Ticks)
			}

			data, r, err := sess.Export(ctx, cfg.Format)
			if err != nil {
				if errors.Is(err, session.ErrClosed) {
					return <-sessErr
				}
				return err
			}

			if cfg.Output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			output := cfg.Output
			if output == "" {
				output = render.Filename(r)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(err, "failed to write output file")
			}
			logger.Logger.Infow("processing complete", "output", output, "format", r.Extension(), "ticks", cfg.Ticks)
			good.Fprintf(os.Stderr, "wrote %s ", output)
			subtle.Fprintf(os.Stderr, "(%s, %d ticks, %d bytes)\n", r.Name(), cfg.Ticks, len(data))
			return nil
		},
	}
	config.DefineFlags(cmd.Flags())
	return cmd
}

func newTUICmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore the live graph in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal owns the screen, so logging stays off unless JSON
			// output was requested and can be redirected
			cfg, err := loadConfig(cmd, *configPath, false)
			if err != nil {
				return err
			}
			if cfg.Log.JSON {
				if err := logger.Initialize(true, cfg.Log.Level); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			// Frames are driven by the program
			sess, sessErr, err := startSession(ctx, cfg, 0)
			if err != nil {
				return err
			}
			defer func() {
				cancel()
				<-sess.Done()
			}()
			if err := watchData(ctx, cfg, sess); err != nil {
				return err
			}

			model := tui.New(ctx, sess, tui.Options{
				CellWidth:  cfg.Cell.Width,
				CellHeight: cfg.Cell.Height,
				FPS:        cfg.FPS,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return errors.Wrap(err, "terminal program")
			}

			select {
			case err := <-sessErr:
				return err
			default:
				return nil
			}
		},
	}
	config.DefineFlags(cmd.Flags())
	return cmd
}
