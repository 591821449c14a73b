package sched

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	CalendarApp "peppertree/internal/app/handlers/calendar"
	"peppertree/internal/infra/config"
)

// FeedSyncScheduler runs the configured external calendar imports on a
// cron schedule. Each feed syncs independently; one failing feed never
// stops the others.
type FeedSyncScheduler struct {
	Commands commands.Bus
	Feeds    []config.SyncFeed
	Schedule string
	Logger   *slog.Logger

	runner *cron.Cron
}

func (s *FeedSyncScheduler) Start(ctx context.Context) error {
	if len(s.Feeds) == 0 {
		return nil
	}
	s.runner = cron.New()
	_, err := s.runner.AddFunc(s.Schedule, func() { s.SyncAll(ctx) })
	if err != nil {
		return err
	}
	s.runner.Start()
	return nil
}

func (s *FeedSyncScheduler) Stop() {
	if s.runner != nil {
		<-s.runner.Stop().Done()
	}
}

// SyncAll imports every configured feed once. Also called at startup so a
// fresh deployment does not wait a full schedule interval for state.
func (s *FeedSyncScheduler) SyncAll(ctx context.Context) {
	for _, feed := range s.Feeds {
		cmd := CalendarApp.ImportFeedCommand{
			CommandID: uuid.NewString(),
			FeedURL:   feed.URL,
			Platform:  feed.Platform,
		}
		report, err := commands.Dispatch[CalendarApp.ImportFeedCommand, *dto.ImportReport](ctx, s.Commands, cmd)
		if err != nil {
			s.log().Error("feed sync failed", "platform", feed.Platform, "url", feed.URL, "error", err)
			continue
		}
		s.log().Info("feed sync completed",
			"platform", feed.Platform,
			"imported", report.Imported,
			"skipped", report.Skipped,
			"conflicts", len(report.Conflicts),
			"malformed", len(report.Malformed))
	}
}

func (s *FeedSyncScheduler) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
