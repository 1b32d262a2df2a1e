// File: cmd/guide.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/observability"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/observer"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/orchestrator"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/planner"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/store"
)

// newGuideCmd creates the `guide` command: a one-shot console session that
// opens a page and walks the goal without the websocket panel. Useful for
// trying the engine out and for debugging planners against live pages.
func newGuideCmd() *cobra.Command {
	var (
		startURL string
		goal     string
		useLLM   bool
	)

	guideCmd := &cobra.Command{
		Use:   "guide",
		Short: "Runs a single guidance session from the terminal",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if goal == "" {
				return fmt.Errorf("--goal is required")
			}
			if startURL == "" {
				return fmt.Errorf("--url is required")
			}
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			// A visible browser is the whole point of a console session.
			cfg.Observer.Headless = false
			return runGuide(cmd.Context(), cfg, startURL, goal, useLLM)
		},
	}

	guideCmd.Flags().StringVar(&startURL, "url", "", "page to open before planning begins")
	guideCmd.Flags().StringVar(&goal, "goal", "", "natural language goal to guide toward")
	guideCmd.Flags().BoolVar(&useLLM, "llm", false, "use the language model planner when configured")
	return guideCmd
}

// consoleEvents prints session events to the terminal in place of the
// websocket panel.
type consoleEvents struct {
	logger *zap.Logger
}

func (e *consoleEvents) State(state schemas.SessionState) {
	if state.Current == nil {
		return
	}
	fmt.Fprintf(os.Stdout, "\n  Step %d: %s\n", state.Current.StepNumber, state.Current.Instruction)
}

func (e *consoleEvents) Error(message string) {
	fmt.Fprintf(os.Stdout, "\n  ! %s\n", message)
}

func (e *consoleEvents) Completed() {
	fmt.Fprintln(os.Stdout, "\n  Goal reached.")
}

func runGuide(parentCtx context.Context, cfg *config.Config, startURL, goal string, useLLM bool) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var llmPlanner schemas.Planner
	mode := schemas.ModeHeuristic
	if useLLM {
		llmPlanner, _, err = buildLLMPlanner(ctx, cfg, st, logger)
		if err != nil {
			return err
		}
		if llmPlanner == nil {
			return fmt.Errorf("--llm requested but no LLM is configured (set llm.provider, llm.model and NAVAI_LLM_API_KEY)")
		}
		mode = schemas.ModeLLM
	}

	browser, err := observer.New(ctx, cfg.Observer, logger)
	if err != nil {
		return err
	}
	defer browser.Close()

	events := &consoleEvents{logger: logger}
	engine, err := orchestrator.New(
		cfg.Engine, logger, browser, browser,
		planner.NewHeuristic(), llmPlanner, st, events,
	)
	if err != nil {
		return err
	}

	if err := browser.Navigate(ctx, startURL); err != nil {
		return err
	}
	if err := engine.Start(ctx, goal, mode); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Guiding toward: %s\nFollow the highlights in the browser. Ctrl-C to stop.\n", goal)

	for {
		select {
		case <-ctx.Done():
			engine.Stop(context.Background())
			return nil
		case url := <-browser.Navigations():
			engine.NavigationDetected(url)
		case action := <-browser.Actions():
			if err := engine.ActionConfirmed(ctx, action); err != nil {
				logger.Debug("Ignored action confirmation", zap.Error(err))
			}
		}
	}
}
