// File: api/schemas/pagemap.go
package schemas

import (
	"fmt"
	"time"
)

// LocatorStrategy selects how a locator query is interpreted by the
// element query boundary.
type LocatorStrategy string

const (
	ByCSS   LocatorStrategy = "css"
	ByXPath LocatorStrategy = "xpath"
)

// Locator is a statically declared element lookup: a query string plus
// the strategy used to run it. Locators are data, never behavior; they
// are resolved through explicit Page accessors.
type Locator struct {
	Query string          `mapstructure:"query" yaml:"query" json:"query"`
	By    LocatorStrategy `mapstructure:"by" yaml:"by" json:"by"`
}

// Validate normalizes the strategy (empty means CSS) and rejects
// unusable locators.
func (l *Locator) Validate() error {
	if l.Query == "" {
		return fmt.Errorf("locator has an empty query")
	}
	switch l.By {
	case "":
		l.By = ByCSS
	case ByCSS, ByXPath:
	default:
		return fmt.Errorf("unknown locator strategy %q (supported: css, xpath)", l.By)
	}
	return nil
}

// PageMap is the declarative description of one page: a name, the URL it
// lives at, and a finite set of named element locators. The mapping is
// fixed at registration time; there is no dynamic property resolution.
type PageMap struct {
	Name     string             `mapstructure:"name" yaml:"name" json:"name"`
	URL      string             `mapstructure:"url" yaml:"url" json:"url"`
	Elements map[string]Locator `mapstructure:"elements" yaml:"elements" json:"elements"`
}

// Validate checks the map and all of its locators.
func (p *PageMap) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("page map has an empty name")
	}
	for name, loc := range p.Elements {
		if name == "" {
			return fmt.Errorf("page %q declares an element with an empty name", p.Name)
		}
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("page %q, element %q: %w", p.Name, name, err)
		}
		p.Elements[name] = loc
	}
	return nil
}

// Step is one instruction in a scenario file executed by the run command.
type Step struct {
	// Action is one of: navigate, click, wait_present, eval,
	// expect_alert, expect_no_alert, expect_confirm, expect_no_confirm.
	Action  string `mapstructure:"action" yaml:"action" json:"action"`
	Page    string `mapstructure:"page" yaml:"page" json:"page"`
	Element string `mapstructure:"element" yaml:"element" json:"element"`
	Script  string `mapstructure:"script" yaml:"script" json:"script"`
	// OK is the simulated button for expect_confirm; nil means accept.
	OK       *bool         `mapstructure:"ok" yaml:"ok" json:"ok,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout,omitempty"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval,omitempty"`
}

// Scenario is the on-disk format consumed by `pagewright run`: the page
// maps in play plus the ordered steps to drive them.
type Scenario struct {
	Pages []PageMap `mapstructure:"pages" yaml:"pages" json:"pages"`
	Steps []Step    `mapstructure:"steps" yaml:"steps" json:"steps"`
}

// Validate checks every page map and rejects steps that reference nothing.
func (s *Scenario) Validate() error {
	seen := make(map[string]bool, len(s.Pages))
	for i := range s.Pages {
		if err := s.Pages[i].Validate(); err != nil {
			return err
		}
		if seen[s.Pages[i].Name] {
			return fmt.Errorf("duplicate page map %q", s.Pages[i].Name)
		}
		seen[s.Pages[i].Name] = true
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("step %d has no action", i)
		}
		if step.Page != "" && !seen[step.Page] {
			return fmt.Errorf("step %d references unknown page %q", i, step.Page)
		}
	}
	return nil
}
