package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	availabilityapp "peppertree/internal/app/handlers/availability"
	bookingapp "peppertree/internal/app/handlers/booking"
	calendarapp "peppertree/internal/app/handlers/calendar"
	ratesapp "peppertree/internal/app/handlers/rates"
	"peppertree/internal/app/middleware"
	appoutbox "peppertree/internal/app/outbox"
	"peppertree/internal/app/policies"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	domainrates "peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/money"
	"peppertree/internal/infra/broker/kafka"
	"peppertree/internal/infra/config"
	mongodb "peppertree/internal/infra/db/mongo"
	ginserver "peppertree/internal/infra/http/gin"
	"peppertree/internal/infra/ical"
	"peppertree/internal/infra/notify"
	"peppertree/internal/infra/obs"
	infraoutbox "peppertree/internal/infra/outbox"
	"peppertree/internal/infra/sched"
	"peppertree/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if err := app.scheduler.Start(ctx); err != nil {
		logger.Error("feed scheduler failed to start", "error", err)
		os.Exit(1)
	}
	defer app.scheduler.Stop()
	if len(cfg.SyncFeeds) > 0 {
		// Initial sync so a fresh deployment picks up external bookings
		// without waiting for the first scheduled run.
		go app.scheduler.SyncAll(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers  ginserver.Handlers
	scheduler *sched.FeedSyncScheduler
	ready     func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	cleanup := func() {}

	var (
		uowFactory uow.UoWFactory
		box        appoutbox.Outbox
		ready      = func() error { return nil }
	)

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		bookingRepo := mongodb.NewBookingRepository(client.DB)
		rateRepo := mongodb.NewRateRepository(client.DB)
		uowFactory = mongodb.Factory{DB: client.DB, BookingRepo: bookingRepo, RateRepo: rateRepo}
		store := infraoutbox.NewStore(client.DB)
		box = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, cleanup, err
			}
			cleanup = func() { _ = producer.Close() }
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				ID:          uuid.NewString(),
			}
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		} else {
			logger.Warn("KAFKA_BROKERS not set, outbox records will accumulate unsent")
		}
	} else {
		logger.Info("MONGO_URI not set, running on in-memory storage")
		uowFactory = memory.Factory{
			BookingRepo: memory.NewBookingRepository(),
			RateRepo:    memory.NewRateRepository(),
		}
		box = memory.NewOutbox(nil)
	}

	if err := seedDefaultRates(ctx, uowFactory, logger); err != nil {
		return application{}, cleanup, err
	}

	idStore := memory.NewIdempotencyStore()
	var notifier policies.Notifier = notify.LogNotifier{Logger: logger}
	fetcher := ical.NewFetcher(cfg.FeedTimeout)

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	requestHandler := &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Notifier:   notifier,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), requestHandler)

	decide := &bookingapp.DecideBookingHandler{
		UoWFactory: uowFactory,
		Notifier:   notifier,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.ApproveBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ApproveBookingCommand, *bookingapp.DecisionResult](decide.HandleApprove))
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.RejectBookingCommand, *bookingapp.DecisionResult](decide.HandleReject))
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CancelBookingCommand, *bookingapp.DecisionResult](decide.HandleCancel))
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CompleteBookingCommand, *bookingapp.DecisionResult](decide.HandleComplete))
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.DeleteBookingCommand, *bookingapp.DecisionResult](decide.HandleDelete))

	manageRates := &ratesapp.ManageRatesHandler{UoWFactory: uowFactory}
	commands.RegisterHandler(commandBus, ratesapp.CreateRateCommand{}.Key(),
		commands.HandlerFunc[ratesapp.CreateRateCommand, dto.RateRuleView](manageRates.HandleCreate))
	commands.RegisterHandler(commandBus, ratesapp.UpdateRateCommand{}.Key(),
		commands.HandlerFunc[ratesapp.UpdateRateCommand, dto.RateRuleView](manageRates.HandleUpdate))
	commands.RegisterHandler(commandBus, ratesapp.DeactivateRateCommand{}.Key(),
		commands.HandlerFunc[ratesapp.DeactivateRateCommand, dto.RateRuleView](manageRates.HandleDeactivate))

	importHandler := &calendarapp.ImportFeedHandler{
		UoWFactory: uowFactory,
		Fetcher:    fetcher,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, calendarapp.ImportFeedCommand{}.Key(), importHandler)

	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.MonthAvailabilityQuery{}.Key(), &availabilityapp.MonthAvailabilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratesapp.QuoteStayQuery{}.Key(), &ratesapp.QuoteStayHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratesapp.ListRatesQuery{}.Key(), &ratesapp.ListRatesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, calendarapp.ExportFeedQuery{}.Key(), &calendarapp.ExportFeedHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, calendarapp.FeedInfoQuery{}.Key(), &calendarapp.FeedInfoHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Idempotency(idStore, nil, cfg.IdempotencyTTL),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
	)

	scheduler := &sched.FeedSyncScheduler{
		Commands: commandBusWithMiddleware,
		Feeds:    cfg.SyncFeeds,
		Schedule: cfg.SyncSchedule,
		Logger:   logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Booking:         ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Availability:    ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
			Rates:           ginserver.RateHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Calendar:        ginserver.CalendarHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, BaseURL: cfg.BaseURL},
			AdminMiddleware: ginserver.AdminTokenMiddleware(cfg.AdminToken),
		},
		scheduler: scheduler,
		ready:     ready,
	}, cleanup, nil
}

// seedDefaultRates installs the property's standing base rates the first
// time the service runs against an empty store, so quoting works out of
// the box. Admin edits take over from there.
func seedDefaultRates(ctx context.Context, factory uow.UoWFactory, logger *slog.Logger) error {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	existing, err := unit.Rates().List(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	defaults := []domainrates.RateRule{
		{ID: domainrates.RuleID(uuid.NewString()), Type: domainrates.TypeBase, Guests: 1, Amount: money.ZAR(85000), Description: "Standard rate, single guest", Active: true, CreatedAt: now, UpdatedAt: now, CreatedBy: "system", UpdatedBy: "system"},
		{ID: domainrates.RuleID(uuid.NewString()), Type: domainrates.TypeBase, Guests: 2, Amount: money.ZAR(95000), Description: "Standard rate, two guests", Active: true, CreatedAt: now, UpdatedAt: now, CreatedBy: "system", UpdatedBy: "system"},
	}
	for _, rule := range defaults {
		if err := unit.Rates().Save(ctx, rule); err != nil {
			return err
		}
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	logger.Info("seeded default base rates", "rules", len(defaults))
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
