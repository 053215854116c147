// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagewright/api/schemas"
	"github.com/xkilldash9x/pagewright/internal/browser"
	"github.com/xkilldash9x/pagewright/internal/browser/dialog"
	"github.com/xkilldash9x/pagewright/internal/browser/jsproxy"
	"github.com/xkilldash9x/pagewright/internal/browser/waiter"
	"github.com/xkilldash9x/pagewright/internal/config"
	"github.com/xkilldash9x/pagewright/internal/observability"
	"github.com/xkilldash9x/pagewright/internal/page"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Execute a scenario file against a live browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := loadScenario(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runScenario(ctx, scenario, appCfg, observability.GetLogger())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadScenario reads and validates a scenario file via a dedicated viper
// instance, so scenario keys never collide with application config.
func loadScenario(path string) (*schemas.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	var scenario schemas.Scenario
	if err := v.Unmarshal(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// scenarioRunner carries the live session and its derived helpers through
// one scenario execution.
type scenarioRunner struct {
	session     *browser.Session
	registry    *page.Registry
	interceptor *dialog.Interceptor
	proxy       *jsproxy.Proxy
	wait        config.WaitConfig
	logger      *zap.Logger
}

func runScenario(ctx context.Context, scenario *schemas.Scenario, cfg config.Config, logger *zap.Logger) error {
	session, err := browser.New(ctx, cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	registry := page.NewRegistry(logger)
	if err := registry.RegisterAll(scenario.Pages); err != nil {
		return err
	}

	r := &scenarioRunner{
		session:     session,
		registry:    registry,
		interceptor: dialog.New(session, logger),
		proxy:       jsproxy.New(session, logger),
		wait:        cfg.Wait,
		logger:      logger.Named("run"),
	}

	start := time.Now()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Info("Executing step.",
			zap.Int("step", i+1), zap.String("action", step.Action),
			zap.String("page", step.Page), zap.String("element", step.Element))
		if err := r.execute(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	r.logger.Info("Scenario complete.",
		zap.Int("steps", len(scenario.Steps)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *scenarioRunner) execute(ctx context.Context, step schemas.Step) error {
	switch step.Action {
	case "navigate":
		pg, err := r.page(step)
		if err != nil {
			return err
		}
		return pg.Open(ctx)

	case "click":
		pg, err := r.page(step)
		if err != nil {
			return err
		}
		return pg.Click(ctx, step.Element)

	case "wait_present":
		pg, err := r.page(step)
		if err != nil {
			return err
		}
		return pg.WaitUntilPresent(ctx, step.Element, r.waitSpec(step))

	case "eval":
		val, err := r.session.ExecuteScript(ctx, step.Script)
		if err != nil {
			return err
		}
		r.logger.Info("Script evaluated.", zap.Stringer("result", val))
		return nil

	case "expect_alert":
		outcome, err := r.interceptor.ExpectAlert(ctx, r.trigger(step))
		if err != nil {
			return err
		}
		r.logOutcome("alert", outcome)
		return nil

	case "expect_no_alert":
		return r.interceptor.ExpectNoAlert(ctx, r.trigger(step))

	case "expect_confirm":
		ok := true
		if step.OK != nil {
			ok = *step.OK
		}
		outcome, err := r.interceptor.ExpectConfirm(ctx, ok, r.trigger(step))
		if err != nil {
			return err
		}
		r.logOutcome("confirm", outcome)
		return nil

	case "expect_no_confirm":
		return r.interceptor.ExpectNoConfirm(ctx, r.trigger(step))

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (r *scenarioRunner) page(step schemas.Step) (*page.Page, error) {
	if step.Page == "" {
		return nil, fmt.Errorf("action %q requires a page", step.Action)
	}
	return r.registry.Resolve(step.Page, r.session)
}

// trigger builds the dialog-provoking action for an expect_* step: click
// the named element when one is given, otherwise run the step's script.
func (r *scenarioRunner) trigger(step schemas.Step) dialog.Actions {
	return func(ctx context.Context) error {
		if step.Element != "" {
			pg, err := r.page(step)
			if err != nil {
				return err
			}
			return pg.Click(ctx, step.Element)
		}
		if step.Script != "" {
			_, err := r.session.ExecuteScript(ctx, step.Script)
			return err
		}
		return fmt.Errorf("action %q requires an element or a script", step.Action)
	}
}

func (r *scenarioRunner) waitSpec(step schemas.Step) waiter.Spec {
	spec := waiter.Spec{Timeout: r.wait.Timeout, Interval: r.wait.Interval}
	if step.Timeout > 0 {
		spec.Timeout = step.Timeout
	}
	if step.Interval > 0 {
		spec.Interval = step.Interval
	}
	return spec
}

func (r *scenarioRunner) logOutcome(kind string, outcome dialog.Outcome) {
	if outcome.NavigatedAway {
		r.logger.Info("Dialog outcome unknowable; page navigated.", zap.String("kind", kind))
		return
	}
	r.logger.Info("Dialog captured.", zap.String("kind", kind), zap.String("message", outcome.Message))
}
