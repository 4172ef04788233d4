package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/storage"
)

func newAuditCommand() *Command {
	cmd := &Command{
		Name:        "audit",
		Description: "Print audit events as newline-delimited JSON",
		Flags:       flag.NewFlagSet("audit", flag.ContinueOnError),
	}
	user := cmd.Flags.String("user", "", "Only events by this user id")
	resource := cmd.Flags.String("resource", "", "Only events on this todo id or account email")
	status := cmd.Flags.String("status", "", "Only events with this status (success or denied)")
	types := cmd.Flags.String("type", "", "Comma-separated event types, e.g. authz.access_denied")
	since := cmd.Flags.Duration("since", 0, "Only events newer than this, e.g. 24h")
	limit := cmd.Flags.Int("limit", 100, "Maximum number of events")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}

		filter := audit.SearchFilter{
			UserID:     *user,
			ResourceID: *resource,
			Status:     audit.EventStatus(*status),
			Limit:      *limit,
		}
		switch filter.Status {
		case "", audit.EventStatusSuccess, audit.EventStatusDenied:
		default:
			return fmt.Errorf("unknown status %q", *status)
		}
		for _, t := range strings.Split(*types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.EventTypes = append(filter.EventTypes, audit.EventType(t))
			}
		}
		if *since > 0 {
			filter.Since = time.Now().Add(-*since)
		}
		return runAudit(context.Background(), filter)
	}
	return cmd
}

func runAudit(ctx context.Context, filter audit.SearchFilter) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	logger, err := audit.NewDBLogger(db)
	if err != nil {
		return err
	}
	events, err := logger.Search(ctx, filter)
	if err != nil {
		return err
	}
	return audit.WriteNDJSON(os.Stdout, events)
}
