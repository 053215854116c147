// File: internal/browser/dialog/dialog.go
// Dialog interception keeps native alert()/confirm() calls from blocking
// an automated session. The native functions are replaced with capturing
// stubs before the caller's actions run, and the captured state is
// inspected afterwards.
//
// prompt() is deliberately not interceptable: a page calling prompt()
// during intercepted actions falls through to real browser behavior.
//
// Navigation during the actions destroys the page-global capture slot, at
// which point "a dialog fired then the page navigated" cannot be told
// apart from "the page navigated without a dialog". The interceptor does
// not guess: Expect* calls report NavigatedAway, ExpectNo* calls succeed
// vacuously. This is a documented limitation of the override mechanism.
package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/pagewright/api/schemas"
	"github.com/xkilldash9x/pagewright/internal/browser"
)

// Assertion-style failures. Both are terminal for the calling operation
// and never retried.
var (
	// ErrDialogNotRaised reports that an expected dialog never fired.
	ErrDialogNotRaised = errors.New("expected dialog was not raised")
	// ErrUnexpectedDialog reports that a forbidden dialog fired.
	ErrUnexpectedDialog = errors.New("unexpected dialog was raised")
	// ErrInterceptionActive reports an attempt to nest interceptions.
	// Interception is not reentrant: one session, one active DialogSession.
	ErrInterceptionActive = errors.New("another dialog interception is already active")
)

type kind string

const (
	kindAlert   kind = "alert"
	kindConfirm kind = "confirm"
)

// ScriptRunner is the slice of the driver the interceptor needs: blocking
// execute-script round trips with the JSON result decoded into a Go value.
// *browser.Session satisfies it.
type ScriptRunner interface {
	ExecuteScriptInto(ctx context.Context, source string, out any) error
}

// Actions is the caller-supplied work performed while the override is in
// place, typically a click that triggers the dialog.
type Actions func(ctx context.Context) error

// Outcome is the tagged result of an Expect{Alert,Confirm} call. When
// NavigatedAway is true, Message is empty and unknowable; the overridden
// page is gone along with its capture slot.
type Outcome struct {
	Message       string
	NavigatedAway bool
}

// dialogSession is the transient state of one interception call.
type dialogSession struct {
	kind          kind
	captured      *string
	pageChanged   bool
	confirmResult bool
}

// Interceptor installs, inspects, and restores dialog overrides over the
// script-execution boundary.
type Interceptor struct {
	runner ScriptRunner
	logger *zap.Logger
	active *semaphore.Weighted
}

// New returns an interceptor bound to one browser session.
func New(runner ScriptRunner, logger *zap.Logger) *Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		runner: runner,
		logger: logger.Named("dialog"),
		active: semaphore.NewWeighted(1),
	}
}

// ExpectAlert runs actions with window.alert intercepted and returns the
// captured message. It fails with ErrDialogNotRaised when no alert fired
// and the page did not navigate.
func (i *Interceptor) ExpectAlert(ctx context.Context, actions Actions) (Outcome, error) {
	sess, err := i.intercept(ctx, kindAlert, true, actions)
	if err != nil {
		return Outcome{}, err
	}
	return i.expectOutcome(sess)
}

// ExpectNoAlert runs actions with window.alert intercepted and fails with
// ErrUnexpectedDialog if one fired. Navigation counts as absence: the
// inability to prove a dialog occurred is treated as none occurring.
func (i *Interceptor) ExpectNoAlert(ctx context.Context, actions Actions) error {
	sess, err := i.intercept(ctx, kindAlert, true, actions)
	if err != nil {
		return err
	}
	return i.expectAbsence(sess)
}

// ExpectConfirm runs actions with window.confirm intercepted. The page's
// confirm() call observes ok as its return value, simulating the user
// pressing OK (true) or Cancel (false). Returns the captured message.
func (i *Interceptor) ExpectConfirm(ctx context.Context, ok bool, actions Actions) (Outcome, error) {
	sess, err := i.intercept(ctx, kindConfirm, ok, actions)
	if err != nil {
		return Outcome{}, err
	}
	return i.expectOutcome(sess)
}

// ExpectNoConfirm mirrors ExpectNoAlert for confirm dialogs. An
// intercepted confirm() observes true, as if the user accepted it.
func (i *Interceptor) ExpectNoConfirm(ctx context.Context, actions Actions) error {
	sess, err := i.intercept(ctx, kindConfirm, true, actions)
	if err != nil {
		return err
	}
	return i.expectAbsence(sess)
}

func (i *Interceptor) expectOutcome(sess *dialogSession) (Outcome, error) {
	if sess.pageChanged {
		i.logger.Debug("Page navigated during interception; captured state unrecoverable.",
			zap.String("kind", string(sess.kind)))
		return Outcome{NavigatedAway: true}, nil
	}
	if sess.captured == nil {
		return Outcome{}, fmt.Errorf("%s: %w", sess.kind, ErrDialogNotRaised)
	}
	return Outcome{Message: *sess.captured}, nil
}

func (i *Interceptor) expectAbsence(sess *dialogSession) error {
	if sess.pageChanged {
		return nil
	}
	if sess.captured != nil {
		return fmt.Errorf("%s with message %q: %w", sess.kind, *sess.captured, ErrUnexpectedDialog)
	}
	return nil
}

// intercept is the install / act / inspect / restore protocol shared by
// all four operations.
func (i *Interceptor) intercept(ctx context.Context, k kind, ok bool, actions Actions) (*dialogSession, error) {
	if !i.active.TryAcquire(1) {
		return nil, ErrInterceptionActive
	}
	defer i.active.Release(1)

	sess := &dialogSession{kind: k, confirmResult: ok}
	token := uuid.New().String()

	var installed bool
	install := fmt.Sprintf(installScript,
		schemas.JSString(token), schemas.JSString(string(k)), schemas.JSString(ok))
	if err := i.runner.ExecuteScriptInto(ctx, install, &installed); err != nil {
		return nil, fmt.Errorf("failed to install %s override: %w", k, err)
	}
	if !installed {
		return nil, fmt.Errorf("failed to install %s override: page rejected the script", k)
	}

	if err := actions(ctx); err != nil {
		// The caller's error wins; undo the override on a best-effort basis
		// so a failed action does not leak a stubbed dialog function. The
		// detached context keeps the cleanup alive past a canceled ctx.
		i.restore(browser.Detach(ctx), k)
		return nil, err
	}

	var state struct {
		Present bool    `json:"present"`
		Token   string  `json:"token"`
		Fired   bool    `json:"fired"`
		Message *string `json:"message"`
	}
	if err := i.runner.ExecuteScriptInto(ctx, inspectScript, &state); err != nil {
		return nil, fmt.Errorf("failed to inspect %s capture slot: %w", k, err)
	}

	if !state.Present || state.Token != token {
		// The page was replaced; a fresh document has no overrides to undo.
		sess.pageChanged = true
		return sess, nil
	}

	if state.Fired {
		msg := ""
		if state.Message != nil {
			msg = *state.Message
		}
		sess.captured = &msg
	}

	if err := i.restore(ctx, k); err != nil {
		return nil, err
	}
	return sess, nil
}

// restore reinstates the native dialog function and clears the slot.
func (i *Interceptor) restore(ctx context.Context, k kind) error {
	var restored bool
	script := fmt.Sprintf(restoreScript, schemas.JSString(string(k)))
	if err := i.runner.ExecuteScriptInto(ctx, script, &restored); err != nil {
		i.logger.Warn("Failed to restore native dialog function.",
			zap.String("kind", string(k)), zap.Error(err))
		return fmt.Errorf("failed to restore %s override: %w", k, err)
	}
	return nil
}
