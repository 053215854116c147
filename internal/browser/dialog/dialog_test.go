// File: internal/browser/dialog/dialog_test.go
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeRunner simulates the page side of the interception protocol. It
// recognizes the three scripts by their markers and plays back a
// scripted page state.
type fakeRunner struct {
	t *testing.T

	// behavior knobs
	fireMessage   *string // message "captured" while actions run, nil = no dialog
	navigate      bool    // drop the slot after install, as a navigation would
	replaceToken  string  // stamp a different token on inspect (old page gone, new install present)
	installErr    error
	inspectErr    error
	restoreErr    error
	rejectInstall bool

	// recorded protocol
	installedToken string
	installedKind  string
	installedOK    string
	restores       int
	calls          []string
}

var installArgs = regexp.MustCompile(`\}\)\("([^"]+)", "(alert|confirm)", (true|false)\)$`)

func (f *fakeRunner) ExecuteScriptInto(ctx context.Context, source string, out any) error {
	switch {
	case strings.Contains(source, "window.__pwOriginals ="):
		f.calls = append(f.calls, "install")
		if f.installErr != nil {
			return f.installErr
		}
		m := installArgs.FindStringSubmatch(source)
		require.NotNil(f.t, m, "install script must end with (token, kind, ok) args")
		f.installedToken, f.installedKind, f.installedOK = m[1], m[2], m[3]
		*(out.(*bool)) = !f.rejectInstall
		return nil

	case strings.Contains(source, "const slot = window.__pwDialog"):
		f.calls = append(f.calls, "inspect")
		if f.inspectErr != nil {
			return f.inspectErr
		}
		state := map[string]any{"present": true, "token": f.installedToken, "fired": false, "message": nil}
		if f.navigate {
			state = map[string]any{"present": false}
		} else if f.replaceToken != "" {
			state["token"] = f.replaceToken
		} else if f.fireMessage != nil {
			state["fired"] = true
			state["message"] = *f.fireMessage
		}
		raw, err := json.Marshal(state)
		require.NoError(f.t, err)
		return json.Unmarshal(raw, out)

	case strings.Contains(source, "delete window.__pwDialog"):
		f.calls = append(f.calls, "restore")
		if f.restoreErr != nil {
			return f.restoreErr
		}
		f.restores++
		*(out.(*bool)) = true
		return nil
	}

	return fmt.Errorf("unrecognized script: %s", source)
}

func strptr(s string) *string { return &s }

func newTestInterceptor(t *testing.T, runner *fakeRunner) *Interceptor {
	runner.t = t
	return New(runner, zaptest.NewLogger(t))
}

func noop(ctx context.Context) error { return nil }

func TestExpectAlert_CapturesMessage(t *testing.T) {
	runner := &fakeRunner{fireMessage: strptr("Bang!")}
	i := newTestInterceptor(t, runner)

	outcome, err := i.ExpectAlert(context.Background(), noop)

	require.NoError(t, err)
	assert.Equal(t, "Bang!", outcome.Message)
	assert.False(t, outcome.NavigatedAway)
	assert.Equal(t, []string{"install", "inspect", "restore"}, runner.calls)
	assert.Equal(t, "alert", runner.installedKind)
}

func TestExpectAlert_NotRaised(t *testing.T) {
	i := newTestInterceptor(t, &fakeRunner{})

	_, err := i.ExpectAlert(context.Background(), noop)

	require.ErrorIs(t, err, ErrDialogNotRaised)
}

func TestExpectAlert_NavigationYieldsTaggedOutcome(t *testing.T) {
	runner := &fakeRunner{navigate: true}
	i := newTestInterceptor(t, runner)

	outcome, err := i.ExpectAlert(context.Background(), noop)

	require.NoError(t, err)
	assert.True(t, outcome.NavigatedAway)
	assert.Empty(t, outcome.Message)
	assert.Zero(t, runner.restores, "a replaced page has nothing to restore")
}

func TestExpectAlert_ForeignTokenMeansNavigation(t *testing.T) {
	// The slot exists but carries another token: the page was replaced and
	// something reinstalled an override on the new document.
	runner := &fakeRunner{replaceToken: "someone-else"}
	i := newTestInterceptor(t, runner)

	outcome, err := i.ExpectAlert(context.Background(), noop)

	require.NoError(t, err)
	assert.True(t, outcome.NavigatedAway)
	assert.Zero(t, runner.restores)
}

func TestExpectNoAlert(t *testing.T) {
	t.Run("passes when nothing fires", func(t *testing.T) {
		runner := &fakeRunner{}
		i := newTestInterceptor(t, runner)

		require.NoError(t, i.ExpectNoAlert(context.Background(), noop))
		assert.Equal(t, 1, runner.restores)
	})

	t.Run("fails when an alert fires", func(t *testing.T) {
		i := newTestInterceptor(t, &fakeRunner{fireMessage: strptr("surprise")})

		err := i.ExpectNoAlert(context.Background(), noop)

		require.ErrorIs(t, err, ErrUnexpectedDialog)
		assert.Contains(t, err.Error(), "surprise")
	})

	t.Run("navigation counts as absence", func(t *testing.T) {
		i := newTestInterceptor(t, &fakeRunner{navigate: true})

		require.NoError(t, i.ExpectNoAlert(context.Background(), noop))
	})
}

func TestExpectConfirm_ButtonValueReachesThePage(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		runner := &fakeRunner{fireMessage: strptr("Proceed?")}
		i := newTestInterceptor(t, runner)

		outcome, err := i.ExpectConfirm(context.Background(), true, noop)

		require.NoError(t, err)
		assert.Equal(t, "Proceed?", outcome.Message)
		assert.Equal(t, "confirm", runner.installedKind)
		assert.Equal(t, "true", runner.installedOK)
	})

	t.Run("dismiss", func(t *testing.T) {
		runner := &fakeRunner{fireMessage: strptr("Proceed?")}
		i := newTestInterceptor(t, runner)

		_, err := i.ExpectConfirm(context.Background(), false, noop)

		require.NoError(t, err)
		assert.Equal(t, "false", runner.installedOK)
	})
}

func TestExpectNoConfirm_FailsWhenConfirmFires(t *testing.T) {
	i := newTestInterceptor(t, &fakeRunner{fireMessage: strptr("sure?")})

	err := i.ExpectNoConfirm(context.Background(), noop)

	require.ErrorIs(t, err, ErrUnexpectedDialog)
}

func TestIntercept_ActionErrorWinsAndRestores(t *testing.T) {
	boom := errors.New("click failed")
	runner := &fakeRunner{}
	i := newTestInterceptor(t, runner)

	_, err := i.ExpectAlert(context.Background(), func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"install", "restore"}, runner.calls,
		"a failed action restores without inspecting")
}

func TestIntercept_ActionErrorRestoresDespiteCanceledContext(t *testing.T) {
	runner := &fakeRunner{}
	i := newTestInterceptor(t, runner)

	ctx, cancel := context.WithCancel(context.Background())

	_, err := i.ExpectAlert(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.restores, "cleanup must outlive the canceled operation")
}

func TestIntercept_InstallFailures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		i := newTestInterceptor(t, &fakeRunner{installErr: errors.New("target crashed")})

		_, err := i.ExpectAlert(context.Background(), noop)

		require.ErrorContains(t, err, "failed to install alert override")
	})

	t.Run("page rejects the script", func(t *testing.T) {
		i := newTestInterceptor(t, &fakeRunner{rejectInstall: true})

		_, err := i.ExpectAlert(context.Background(), noop)

		require.ErrorContains(t, err, "page rejected the script")
	})
}

func TestIntercept_NotReentrant(t *testing.T) {
	runner := &fakeRunner{fireMessage: strptr("outer")}
	i := newTestInterceptor(t, runner)

	var nested error
	outcome, err := i.ExpectAlert(context.Background(), func(ctx context.Context) error {
		_, nested = i.ExpectAlert(ctx, noop)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "outer", outcome.Message)
	require.ErrorIs(t, nested, ErrInterceptionActive)
}

func TestIntercept_SequentialCallsAllowed(t *testing.T) {
	runner := &fakeRunner{fireMessage: strptr("first")}
	i := newTestInterceptor(t, runner)

	_, err := i.ExpectAlert(context.Background(), noop)
	require.NoError(t, err)

	runner.fireMessage = strptr("second")
	outcome, err := i.ExpectAlert(context.Background(), noop)
	require.NoError(t, err)
	assert.Equal(t, "second", outcome.Message)
}

func TestIntercept_FreshTokenPerCall(t *testing.T) {
	runner := &fakeRunner{fireMessage: strptr("x")}
	i := newTestInterceptor(t, runner)

	_, err := i.ExpectAlert(context.Background(), noop)
	require.NoError(t, err)
	first := runner.installedToken

	_, err = i.ExpectAlert(context.Background(), noop)
	require.NoError(t, err)

	assert.NotEqual(t, first, runner.installedToken)
}

func TestIntercept_RestoreFailureSurfaces(t *testing.T) {
	runner := &fakeRunner{fireMessage: strptr("x"), restoreErr: errors.New("gone")}
	i := newTestInterceptor(t, runner)

	_, err := i.ExpectAlert(context.Background(), noop)

	require.ErrorContains(t, err, "failed to restore alert override")
}
