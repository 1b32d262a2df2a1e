// File: cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/llmclient"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/observability"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/observer"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/orchestrator"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/panel"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/planner"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/store"
)

// newServeCmd creates and configures the `serve` command, the long-running
// engine the browser panel connects to.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the guidance engine and the websocket panel server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("panel.listen_addr", cmd.Flags().Lookup("listen")); err != nil {
				return err
			}
			if err := viper.BindPFlag("observer.remote_url", cmd.Flags().Lookup("attach")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	serveCmd.Flags().String("listen", "", "panel websocket listen address (host:port)")
	serveCmd.Flags().String("attach", "", "devtools websocket URL of an already-running Chrome")
	return serveCmd
}

func runServe(parentCtx context.Context, cfg *config.Config) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable state first; everything else hangs off it.
	st, err := store.New(ctx, cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	llmPlanner, llmCfg, err := buildLLMPlanner(ctx, cfg, st, logger)
	if err != nil {
		return err
	}

	browser, err := observer.New(ctx, cfg.Observer, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	panelServer, err := panel.NewServer(cfg.Panel, logger)
	if err != nil {
		return err
	}

	engine, err := orchestrator.New(
		cfg.Engine, logger, browser, browser,
		planner.NewHeuristic(), llmPlanner, st, panelServer,
	)
	if err != nil {
		return err
	}
	panelServer.SetController(engine)

	if err := engine.Restore(ctx); err != nil {
		logger.Warn("Could not restore previous session", zap.Error(err))
	}

	if llmCfg != nil {
		logger.Info("LLM planner enabled",
			zap.String("provider", string(llmCfg.Provider)),
			zap.String("model", llmCfg.Model))
	} else {
		logger.Info("LLM planner not configured, heuristic only")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return panelServer.Run(gCtx)
	})
	g.Go(func() error {
		pumpBrowserEvents(gCtx, browser, engine)
		return nil
	})

	logger.Info("Engine running, waiting for panel commands")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	engine.Stop(context.Background())
	logger.Info("Engine shut down cleanly")
	return nil
}

// buildLLMPlanner resolves the LLM configuration (env/file first, falling
// back to the persisted record) and constructs the planner when a usable
// config exists. A missing config is not an error; the engine simply runs
// heuristic-only.
func buildLLMPlanner(ctx context.Context, cfg *config.Config, st *store.Store, logger *zap.Logger) (schemas.Planner, *schemas.LLMConfig, error) {
	resolved := cfg.LLM.Schema()
	if !resolved.Ready() {
		saved, err := st.LoadLLMConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		if saved == nil || !saved.Ready() {
			return nil, nil, nil
		}
		resolved = *saved
	} else if err := st.SaveLLMConfig(ctx, &resolved); err != nil {
		// The record is a convenience for later runs; losing it is survivable.
		logger.Warn("Failed to persist LLM configuration", zap.Error(err))
	}

	client, err := llmclient.New(resolved, logger, cfg.LLM.RatePerMin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build LLM client: %w", err)
	}
	p := planner.NewLLM(client, logger,
		planner.WithTimeout(cfg.LLM.Timeout),
		planner.WithMaxTokens(cfg.LLM.MaxTokens))
	return p, &resolved, nil
}

// pumpBrowserEvents forwards navigation and action-confirmation events from
// the browser into the orchestrator until the context ends.
func pumpBrowserEvents(ctx context.Context, browser *observer.Browser, engine *orchestrator.Orchestrator) {
	logger := observability.GetLogger()
	for {
		select {
		case <-ctx.Done():
			return
		case url := <-browser.Navigations():
			engine.NavigationDetected(url)
		case action := <-browser.Actions():
			if err := engine.ActionConfirmed(ctx, action); err != nil {
				logger.Debug("Ignored action confirmation", zap.Error(err))
			}
		}
	}
}
