package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmehdipour/teams-notify/internal/app"
	"github.com/jmehdipour/teams-notify/internal/host"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/util"
	"github.com/spf13/cobra"
)

var (
	sendAttrs []string
	sendID    string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Handle a single record built from --attr flags",
	Example: `  teams-notify send --attr title=Alert --attr "body=Disk full on db-1"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := parseAttrs(sendAttrs)
		if err != nil {
			return err
		}
		if err := model.ValidateID(sendID); err != nil {
			return fmt.Errorf("invalid --id: %w", err)
		}

		a, err := app.Bootstrap(cfgPath, "cli")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		a.Start(ctx)

		mem := host.NewMemory(&model.Record{ID: util.EnsureID(sendID), Attributes: attrs})
		res, err := a.Processor.Trigger(ctx, mem, mem)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s status=%d title=%q\n",
			res.Outcome.DisplayName(), res.StatusCode, res.Message.Title)
		if res.Outcome == model.OutcomeFailure {
			return fmt.Errorf("record routed to %s: %w", res.Outcome.DisplayName(), res.Err)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringArrayVar(&sendAttrs, "attr", nil, "record attribute as key=value (repeatable)")
	sendCmd.Flags().StringVar(&sendID, "id", "", "record id (default: generated ULID)")
}

func parseAttrs(kvs []string) (map[string]string, error) {
	attrs := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --attr %q, want key=value", kv)
		}
		attrs[k] = v
	}
	return attrs, nil
}
