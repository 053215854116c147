// File: internal/browser/query.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
)

// countCSS and countXPath implement the element query boundary: a selector
// either matches at least one node or it does not. Both run as a single
// script round trip so presence checks stay cheap inside wait loops.
const (
	countCSS = `(function(q) {
		return document.querySelectorAll(q).length;
	})(%s)`

	countXPath = `(function(q) {
		return document.evaluate(q, document, null,
			XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength;
	})(%s)`

	textCSS = `(function(q) {
		const node = document.querySelector(q);
		return node === null ? null : node.textContent;
	})(%s)`

	textXPath = `(function(q) {
		const r = document.evaluate(q, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		return r.singleNodeValue === null ? null : r.singleNodeValue.textContent;
	})(%s)`
)

// Count returns how many elements currently match the locator.
func (s *Session) Count(ctx context.Context, loc schemas.Locator) (int, error) {
	tmpl := countCSS
	if loc.By == schemas.ByXPath {
		tmpl = countXPath
	}

	var n int
	if err := s.ExecuteScriptInto(ctx, fmt.Sprintf(tmpl, schemas.JSString(loc.Query)), &n); err != nil {
		return 0, fmt.Errorf("element count for %q failed: %w", loc.Query, err)
	}
	return n, nil
}

// Present reports whether the locator matches at least one element.
func (s *Session) Present(ctx context.Context, loc schemas.Locator) (bool, error) {
	n, err := s.Count(ctx, loc)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Text returns the text content of the first element matching the locator.
func (s *Session) Text(ctx context.Context, loc schemas.Locator) (string, error) {
	tmpl := textCSS
	if loc.By == schemas.ByXPath {
		tmpl = textXPath
	}

	var text *string
	if err := s.ExecuteScriptInto(ctx, fmt.Sprintf(tmpl, schemas.JSString(loc.Query)), &text); err != nil {
		return "", fmt.Errorf("text lookup for %q failed: %w", loc.Query, err)
	}
	if text == nil {
		return "", fmt.Errorf("no element matches %q", loc.Query)
	}
	return *text, nil
}

// Click clicks the first element matching the locator.
func (s *Session) Click(ctx context.Context, loc schemas.Locator) error {
	s.logger.Debug("Clicking element.", zap.String("query", loc.Query), zap.String("by", string(loc.By)))

	by := chromedp.ByQuery
	if loc.By == schemas.ByXPath {
		by = chromedp.BySearch
	}
	if err := s.RunActions(ctx,
		chromedp.ScrollIntoView(loc.Query, by),
		chromedp.Click(loc.Query, by),
	); err != nil {
		return fmt.Errorf("click on %q failed: %w", loc.Query, err)
	}
	return nil
}
