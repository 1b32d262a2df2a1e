// File: internal/observer/observer.go
// Description: The chromedp-backed page observer and on-page actuator. Owns
// the browser allocator and tab contexts, extracts page snapshots through
// the injected collection script, and surfaces navigation and action
// confirmation events on channels for the orchestrator to consume.

package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
)

// actionDoneBinding is the name of the CDP binding the guidance overlay
// calls when the user interacts with the highlighted element.
const actionDoneBinding = "__navaiActionDone"

// Browser attaches to (or launches) a Chrome instance and provides the
// PageObserver and Actuator surfaces over a single tab.
type Browser struct {
	cfg    config.ObserverConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	navs    chan string
	actions chan schemas.ActionType

	collectScript string
}

var (
	_ schemas.PageObserver = (*Browser)(nil)
	_ schemas.Actuator     = (*Browser)(nil)
)

// New connects to the devtools endpoint named in cfg.RemoteURL, or starts
// a local headless Chrome when it is empty. The returned Browser owns the
// tab until Close is called.
func New(ctx context.Context, cfg config.ObserverConfig, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		return nil, fmt.Errorf("cannot initialize observer with a nil logger")
	}
	b := &Browser{
		cfg:    cfg,
		logger: logger.Named("observer"),
		// Buffered so a burst of page events never blocks the CDP listener.
		navs:          make(chan string, 8),
		actions:       make(chan schemas.ActionType, 8),
		collectScript: strings.Replace(jsCollectSnapshot, "__MAX_ELEMENTS__", fmt.Sprintf("%d", cfg.MaxElements), 1),
	}

	if cfg.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}
	b.tabCtx, b.tabCancel = chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		b.logger.Debug(fmt.Sprintf(format, args...))
	}))

	// Establishes the tab and installs the overlay's callback binding.
	if err := chromedp.Run(b.tabCtx,
		runtime.AddBinding(actionDoneBinding),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to initialize browser tab: %w", err)
	}

	chromedp.ListenTarget(b.tabCtx, b.handleEvent)
	b.logger.Info("Browser observer attached",
		zap.Bool("remote", cfg.RemoteURL != ""),
		zap.Bool("headless", cfg.Headless))
	return b, nil
}

func (b *Browser) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventFrameNavigated:
		// Sub-frame churn (ads, embeds) is noise; only the top frame counts.
		if e.Frame.ParentID != "" {
			return
		}
		select {
		case b.navs <- e.Frame.URL:
		default:
			b.logger.Debug("Navigation event dropped, channel full")
		}
	case *runtime.EventBindingCalled:
		if e.Name != actionDoneBinding {
			return
		}
		var verb string
		if err := json.Unmarshal([]byte(e.Payload), &verb); err != nil {
			verb = e.Payload
		}
		select {
		case b.actions <- schemas.ActionType(verb):
		default:
			b.logger.Debug("Action event dropped, channel full")
		}
	}
}

// Navigations emits the URL of every top-frame navigation.
func (b *Browser) Navigations() <-chan string { return b.navs }

// Actions emits a value each time the user completes the highlighted step.
func (b *Browser) Actions() <-chan schemas.ActionType { return b.actions }

// Navigate loads the given URL in the observed tab.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := mergeDeadline(b.tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Extract captures a fresh snapshot of the page's interactive surface.
func (b *Browser) Extract(ctx context.Context) (*schemas.PageSnapshot, error) {
	runCtx, cancel := mergeDeadline(b.tabCtx, ctx)
	defer cancel()

	var snapshot schemas.PageSnapshot
	tasks := chromedp.Tasks{
		chromedp.Sleep(b.cfg.ExtractWait),
		chromedp.Evaluate(b.collectScript, &snapshot),
	}
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return nil, fmt.Errorf("failed to extract page snapshot: %w", err)
	}
	b.logger.Debug("Snapshot extracted",
		zap.String("url", snapshot.URL),
		zap.Int("elements", len(snapshot.Elements)),
		zap.Bool("active_panel", snapshot.HasActivePanel))
	return &snapshot, nil
}

// Show renders the guidance overlay for the step. A target that no longer
// matches anything on the page is reported as an error so the orchestrator
// can rescan.
func (b *Browser) Show(ctx context.Context, step *schemas.GuidanceStep) error {
	runCtx, cancel := mergeDeadline(b.tabCtx, ctx)
	defer cancel()

	script := renderShowScript(step)
	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("failed to render guidance overlay: %w", err)
	}
	if !ok {
		return fmt.Errorf("guidance target %q not found on page", step.TargetLocator)
	}
	return nil
}

// renderShowScript splices the step into the overlay template. The template
// holds literal CSS percent signs, so arguments go in by placeholder rather
// than Sprintf.
func renderShowScript(step *schemas.GuidanceStep) string {
	return strings.NewReplacer(
		"__LOCATOR__", jsString(step.TargetLocator),
		"__INSTRUCTION__", jsString(step.Instruction),
		"__ACTION__", jsString(string(step.Action)),
	).Replace(jsShowGuidance)
}

// Hide removes any visible guidance overlay. Safe to call when none is
// showing.
func (b *Browser) Hide(ctx context.Context) error {
	runCtx, cancel := mergeDeadline(b.tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(jsHideGuidance, nil)); err != nil {
		return fmt.Errorf("failed to remove guidance overlay: %w", err)
	}
	return nil
}

// Close tears down the tab and, when locally launched, the browser process.
func (b *Browser) Close() {
	if b.tabCancel != nil {
		b.tabCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// mergeDeadline runs chromedp actions on the tab context while honoring
// the caller's deadline. chromedp.Run requires the tab's context chain,
// so the caller's deadline is grafted onto it rather than used directly.
func mergeDeadline(tabCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := callerCtx.Deadline(); ok {
		return context.WithDeadline(tabCtx, deadline)
	}
	return context.WithTimeout(tabCtx, 30*time.Second)
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
