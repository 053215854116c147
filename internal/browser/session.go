// File: internal/browser/session.go
// A Session owns one headless browser tab driven over CDP and exposes the
// two capabilities the rest of the system is built on: navigation and
// blocking execute-script round trips. Script results come back as the
// restricted tagged value set in api/schemas; driver and page-script
// errors propagate to the caller unmodified apart from %w wrapping.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
	"github.com/xkilldash9x/pagewright/internal/config"
)

// Session represents a single browsing session backed by chromedp.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel tears down the exec allocator (the browser process).
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger
}

// New launches a browser process and opens a fresh tab. The session lives
// until Close is called or parent is canceled.
func New(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", id))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		// Required for containerized environments.
		chromedp.NoSandbox,
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		name, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Errorf),
	)

	s := &Session{
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      log,
	}

	// chromedp defers spawning the browser until the first action; run an
	// empty task list now so launch failures surface at construction.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Close tears down the tab and the browser process. Safe to call more
// than once.
func (s *Session) Close() error {
	s.logger.Info("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

// RunActions executes chromedp actions against this session's tab,
// honoring both the session lifetime and the caller's context.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, runCancel := CombineContext(s.ctx, ctx)
	defer runCancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		// Report the more specific cause when a context was the reason.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("session closed: %w", s.ctx.Err())
		}
		return err
	}
	return nil
}

// Navigate loads a URL and waits for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	s.logger.Info("Navigating.", zap.String("url", url))

	err := s.RunActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, navTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// evaluate is the single execute-script round trip every script helper
// funnels through. It blocks until the page returns a value or the driver
// reports an error; script exceptions come back as driver errors and are
// passed through untouched.
func (s *Session) evaluate(ctx context.Context, source string) (json.RawMessage, error) {
	scriptTimeout := s.cfg.ScriptTimeout
	if scriptTimeout <= 0 {
		scriptTimeout = 20 * time.Second
	}
	opCtx, opCancel := context.WithTimeout(ctx, scriptTimeout)
	defer opCancel()

	var res json.RawMessage
	err := s.RunActions(opCtx,
		chromedp.Evaluate(source, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		if opCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("script execution timed out after %v: %w", scriptTimeout, opCtx.Err())
		}
		return nil, err
	}
	return res, nil
}

// ExecuteScript runs a script in page context and folds the result into
// the tagged script value set.
func (s *Session) ExecuteScript(ctx context.Context, source string) (schemas.ScriptValue, error) {
	raw, err := s.evaluate(ctx, source)
	if err != nil {
		return schemas.ScriptValue{}, err
	}
	return schemas.DecodeScriptValue(raw)
}

// ExecuteScriptInto runs a script and unmarshals its JSON result into out.
// A nil out discards the result.
func (s *Session) ExecuteScriptInto(ctx context.Context, source string, out any) error {
	raw, err := s.evaluate(ctx, source)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal script result into %T: %w", out, err)
	}
	return nil
}
