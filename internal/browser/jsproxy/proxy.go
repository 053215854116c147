// File: internal/browser/jsproxy/proxy.go
// Package jsproxy exposes page-global JavaScript state to Go: reading and
// writing window variables, calling window functions, and firing jQuery
// events. Everything crosses the script-execution boundary as JSON.
package jsproxy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
)

// ErrJQueryUnavailable reports that the page has no window.jQuery to
// dispatch events through.
var ErrJQueryUnavailable = errors.New("jQuery is not available on the page")

// ScriptRunner is the driver slice the proxy needs. *browser.Session
// satisfies both methods.
type ScriptRunner interface {
	ExecuteScript(ctx context.Context, source string) (schemas.ScriptValue, error)
	ExecuteScriptInto(ctx context.Context, source string, out any) error
}

// Proxy reads and writes page-global JavaScript over a ScriptRunner.
type Proxy struct {
	runner ScriptRunner
	logger *zap.Logger
}

// New returns a proxy bound to one browser session.
func New(runner ScriptRunner, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{runner: runner, logger: logger.Named("jsproxy")}
}

// Variable reads window[name]. An undefined or null variable comes back
// as a ScriptValue of kind ScriptNull, not an error.
func (p *Proxy) Variable(ctx context.Context, name string) (schemas.ScriptValue, error) {
	script := fmt.Sprintf(`(function(n) { return window[n]; })(%s)`, schemas.JSString(name))
	val, err := p.runner.ExecuteScript(ctx, script)
	if err != nil {
		return schemas.ScriptValue{}, fmt.Errorf("failed to read variable %q: %w", name, err)
	}
	return val, nil
}

// SetVariable assigns window[name] = value. The value must be
// JSON-encodable; page code observes the decoded equivalent.
func (p *Proxy) SetVariable(ctx context.Context, name string, value any) error {
	script := fmt.Sprintf(`(function(n, v) { window[n] = v; return true; })(%s, %s)`,
		schemas.JSString(name), schemas.JSString(value))
	var ok bool
	if err := p.runner.ExecuteScriptInto(ctx, script, &ok); err != nil {
		return fmt.Errorf("failed to set variable %q: %w", name, err)
	}
	return nil
}

// Call invokes window[fn](args...) and returns its result. A missing or
// non-function binding is reported as an error from the page side.
func (p *Proxy) Call(ctx context.Context, fn string, args ...any) (schemas.ScriptValue, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		encoded = append(encoded, schemas.JSString(a))
	}
	script := fmt.Sprintf(`(function(n) {
		var f = window[n];
		if (typeof f !== 'function') { throw new Error('window.' + n + ' is not a function'); }
		return f(%s);
	})(%s)`, strings.Join(encoded, ", "), schemas.JSString(fn))

	val, err := p.runner.ExecuteScript(ctx, script)
	if err != nil {
		return schemas.ScriptValue{}, fmt.Errorf("failed to call %q: %w", fn, err)
	}
	return val, nil
}

// TriggerJQuery fires event through jQuery on every element matching
// selector and returns the match count. Pages without jQuery get
// ErrJQueryUnavailable; triggering against zero matches is not an error.
func (p *Proxy) TriggerJQuery(ctx context.Context, event, selector string) (int, error) {
	script := fmt.Sprintf(`(function(ev, sel) {
		if (!window.jQuery) { return { ok: false, count: 0 }; }
		var m = window.jQuery(sel);
		m.trigger(ev);
		return { ok: true, count: m.length };
	})(%s, %s)`, schemas.JSString(event), schemas.JSString(selector))

	var res struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	if err := p.runner.ExecuteScriptInto(ctx, script, &res); err != nil {
		return 0, fmt.Errorf("failed to trigger %q on %q: %w", event, selector, err)
	}
	if !res.OK {
		return 0, ErrJQueryUnavailable
	}
	if res.Count == 0 {
		p.logger.Debug("jQuery trigger matched no elements.",
			zap.String("event", event), zap.String("selector", selector))
	}
	return res.Count, nil
}

// VariableInto reads window[name] and unmarshals it into out, for callers
// that know the shape they expect back.
func (p *Proxy) VariableInto(ctx context.Context, name string, out any) error {
	script := fmt.Sprintf(`(function(n) { return window[n]; })(%s)`, schemas.JSString(name))
	if err := p.runner.ExecuteScriptInto(ctx, script, out); err != nil {
		return fmt.Errorf("failed to read variable %q: %w", name, err)
	}
	return nil
}
