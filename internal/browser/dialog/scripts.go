// File: internal/browser/dialog/scripts.go
package dialog

// The interception lifecycle is three discrete script round trips so that
// every stage is visible and individually testable: install the override,
// inspect the capture slot, restore the originals. The slot and the saved
// originals live on window and therefore die with the page on navigation,
// which is exactly the staleness signal the inspect step relies on.
const (
	// installScript saves the native dialog function, replaces it with a
	// capturing stub, and stamps the page-identity token. The confirm stub
	// additionally resolves the dialog with the configured button value.
	// Args: token (string), kind ("alert"|"confirm"), ok (bool).
	installScript = `(function(token, kind, ok) {
		if (!window.__pwOriginals) {
			window.__pwOriginals = { alert: window.alert, confirm: window.confirm };
		}
		window.__pwDialog = { token: token, kind: kind, fired: false, message: null };
		if (kind === 'alert') {
			window.alert = function(msg) {
				window.__pwDialog.fired = true;
				window.__pwDialog.message = String(msg);
			};
		} else {
			window.confirm = function(msg) {
				window.__pwDialog.fired = true;
				window.__pwDialog.message = String(msg);
				return ok;
			};
		}
		return true;
	})(%s, %s, %s)`

	// inspectScript reads the capture slot. A missing slot, or a slot
	// stamped with a different token, means the page was replaced while
	// the actions ran.
	inspectScript = `(function() {
		const slot = window.__pwDialog;
		if (!slot) {
			return { present: false };
		}
		return { present: true, token: slot.token, fired: slot.fired, message: slot.message };
	})()`

	// restoreScript reinstates the native function and clears the slot.
	// Only runs when the page did not navigate; a fresh page has no
	// overrides to undo. Args: kind ("alert"|"confirm").
	restoreScript = `(function(kind) {
		const orig = window.__pwOriginals;
		if (orig) {
			if (kind === 'alert') {
				window.alert = orig.alert;
			} else {
				window.confirm = orig.confirm;
			}
		}
		delete window.__pwDialog;
		return true;
	})(%s)`
)
