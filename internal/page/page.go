// File: internal/page/page.go
package page

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
	"github.com/xkilldash9x/pagewright/internal/browser/waiter"
)

// Driver is the slice of the browser session a page object needs.
// *browser.Session satisfies it.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Count(ctx context.Context, loc schemas.Locator) (int, error)
	Present(ctx context.Context, loc schemas.Locator) (bool, error)
	Text(ctx context.Context, loc schemas.Locator) (string, error)
	Click(ctx context.Context, loc schemas.Locator) error
}

// Page is a registered page map bound to a live driver. All element
// operations address elements by their logical name; an unknown name is
// an immediate error, never a silent miss.
type Page struct {
	pm     schemas.PageMap
	driver Driver
	logger *zap.Logger
}

// Name returns the page's registered name.
func (p *Page) Name() string { return p.pm.Name }

// Locator returns the locator mapped to the logical element name.
func (p *Page) Locator(element string) (schemas.Locator, error) {
	loc, ok := p.pm.Elements[element]
	if !ok {
		return schemas.Locator{}, fmt.Errorf("page %q has no element %q", p.pm.Name, element)
	}
	return loc, nil
}

// Open navigates the driver to the page's URL. Pages without a URL (for
// example, states reached only by in-app navigation) cannot be opened
// directly.
func (p *Page) Open(ctx context.Context) error {
	if p.pm.URL == "" {
		return fmt.Errorf("page %q has no URL to open", p.pm.Name)
	}
	p.logger.Debug("Opening page.", zap.String("url", p.pm.URL))
	return p.driver.Navigate(ctx, p.pm.URL)
}

// Present reports whether the named element currently matches at least
// one node.
func (p *Page) Present(ctx context.Context, element string) (bool, error) {
	loc, err := p.Locator(element)
	if err != nil {
		return false, err
	}
	return p.driver.Present(ctx, loc)
}

// Count returns how many nodes the named element's locator matches.
func (p *Page) Count(ctx context.Context, element string) (int, error) {
	loc, err := p.Locator(element)
	if err != nil {
		return 0, err
	}
	return p.driver.Count(ctx, loc)
}

// Text returns the visible text of the named element.
func (p *Page) Text(ctx context.Context, element string) (string, error) {
	loc, err := p.Locator(element)
	if err != nil {
		return "", err
	}
	return p.driver.Text(ctx, loc)
}

// Click clicks the named element.
func (p *Page) Click(ctx context.Context, element string) error {
	loc, err := p.Locator(element)
	if err != nil {
		return err
	}
	return p.driver.Click(ctx, loc)
}

// WaitUntilPresent polls until the named element is present. The zero
// Spec uses the waiter defaults.
func (p *Page) WaitUntilPresent(ctx context.Context, element string, spec waiter.Spec) error {
	loc, err := p.Locator(element)
	if err != nil {
		return err
	}
	err = waiter.Until(ctx, spec, func(ctx context.Context) (bool, error) {
		return p.driver.Present(ctx, loc)
	})
	if err != nil {
		return fmt.Errorf("waiting for %q on page %q: %w", element, p.pm.Name, err)
	}
	return nil
}
