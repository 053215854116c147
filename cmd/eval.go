// File: cmd/eval.go
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pagewright/internal/browser"
	"github.com/xkilldash9x/pagewright/internal/observability"
)

var (
	evalURL    string
	evalScript string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a script on a page and print the tagged result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session, err := browser.New(ctx, appCfg.Browser, observability.GetLogger())
		if err != nil {
			return fmt.Errorf("failed to start browser session: %w", err)
		}
		defer session.Close()

		if err := session.Navigate(ctx, evalURL); err != nil {
			return err
		}

		val, err := session.ExecuteScript(ctx, evalScript)
		if err != nil {
			return err
		}

		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(val, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalURL, "url", "", "page to evaluate against")
	evalCmd.Flags().StringVar(&evalScript, "script", "", "script source to evaluate")
	_ = evalCmd.MarkFlagRequired("url")
	_ = evalCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(evalCmd)
}
