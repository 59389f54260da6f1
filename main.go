package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	accountingapp "tbill-market/internal/accounting/application"
	accounting "tbill-market/internal/accounting/domain"
	accountinghttp "tbill-market/internal/accounting/interfaces/http"
	accountingmem "tbill-market/internal/accounting/infrastructure/memory"
	accountingpg "tbill-market/internal/accounting/infrastructure/postgres"
	"tbill-market/internal/audit"
	"tbill-market/internal/auth"
	billsapp "tbill-market/internal/bills/application"
	billevents "tbill-market/internal/bills/application/events"
	bills "tbill-market/internal/bills/domain"
	billsmem "tbill-market/internal/bills/infrastructure/memory"
	billspg "tbill-market/internal/bills/infrastructure/postgres"
	billshttp "tbill-market/internal/bills/interfaces/http"
	"tbill-market/internal/eventing"
	eventingpg "tbill-market/internal/eventing/infrastructure/postgres"
	"tbill-market/internal/observability/metrics"
	"tbill-market/internal/payments"
	paymentsmem "tbill-market/internal/payments/memory"
	paymentspg "tbill-market/internal/payments/postgres"
	repoapp "tbill-market/internal/repomarket/application"
	repoevents "tbill-market/internal/repomarket/application/events"
	repomarket "tbill-market/internal/repomarket/domain"
	repomem "tbill-market/internal/repomarket/infrastructure/memory"
	repopg "tbill-market/internal/repomarket/infrastructure/postgres"
	repohttp "tbill-market/internal/repomarket/interfaces/http"
	seriesapp "tbill-market/internal/series/application"
	seriesevents "tbill-market/internal/series/application/events"
	series "tbill-market/internal/series/domain"
	seriesmem "tbill-market/internal/series/infrastructure/memory"
	seriespg "tbill-market/internal/series/infrastructure/postgres"
	serieshttp "tbill-market/internal/series/interfaces/http"
	"tbill-market/internal/uow"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// storage bundles the persistence surface main wires the services over,
// built either on postgres or on in-memory stores.
type storage struct {
	db        *sql.DB
	runner    uow.Runner
	balances  bills.BalanceRepository
	operators bills.OperatorRepository
	series    series.Repository
	subs      series.SubscriptionRepository
	positions repomarket.Repository
	ledger    accounting.Store
	rail      payments.Rail
	auditor   audit.Logger
}

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	bus := eventing.NewInMemoryBus()

	var store storage
	switch cfg.StorageMode {
	case storageModePostgres:
		store = buildPostgresStorage(cfg, bus, logger)
		defer store.db.Close()
	case storageModeMemory:
		store = buildMemoryStorage(cfg, bus, logger)
	}

	metrics.Init(store.db, logger)

	billsOpts := []billsapp.ServiceOption{}
	if store.auditor != nil {
		billsOpts = append(billsOpts, billsapp.WithAuditor(store.auditor))
	}
	billsService, err := billsapp.NewService(store.balances, store.operators, store.runner, billsOpts...)
	if err != nil {
		logger.Fatalf("bills service error: %v", err)
	}

	accountingService, err := accountingapp.NewService(store.ledger)
	if err != nil {
		logger.Fatalf("accounting service error: %v", err)
	}

	engineParty := auth.Party(cfg.EngineParty)
	marketParty := auth.Party(cfg.MarketParty)
	treasuryParty := auth.Party(cfg.TreasuryParty)

	engineOpts := []seriesapp.EngineOption{}
	marketOpts := []repoapp.MarketOption{}
	if store.auditor != nil {
		engineOpts = append(engineOpts, seriesapp.WithAuditor(store.auditor))
		marketOpts = append(marketOpts, repoapp.WithAuditor(store.auditor))
	}

	engine, err := seriesapp.NewEngine(store.series, store.subs, billsService, store.rail, accountingService, store.runner, engineParty, treasuryParty, engineOpts...)
	if err != nil {
		logger.Fatalf("series engine error: %v", err)
	}

	market, err := repoapp.NewMarket(store.positions, engine, billsService, store.rail, accountingService, store.runner, cfg.Market.HaircutBps, cfg.Market.SpreadBps, marketParty, treasuryParty, marketOpts...)
	if err != nil {
		logger.Fatalf("repo market error: %v", err)
	}

	// The engine and market mint, burn, and move collateral under their own
	// ledger identities.
	bootCtx := auth.WithIdentity(context.Background(), auth.Party("system"), auth.RoleAdmin)
	for _, operator := range []auth.Party{engineParty, marketParty} {
		if err := billsService.AddOperator(bootCtx, operator); err != nil {
			logger.Fatalf("register operator %s error: %v", operator, err)
		}
	}

	subscribeEventMetrics(bus,
		eventing.EventTypeOf[billevents.BillsMinted](),
		eventing.EventTypeOf[billevents.BillsBurned](),
		eventing.EventTypeOf[billevents.BillsTransferred](),
		eventing.EventTypeOf[seriesevents.SeriesCreated](),
		eventing.EventTypeOf[seriesevents.SeriesActivated](),
		eventing.EventTypeOf[seriesevents.SeriesMatured](),
		eventing.EventTypeOf[seriesevents.Subscribed](),
		eventing.EventTypeOf[seriesevents.Redeemed](),
		eventing.EventTypeOf[repoevents.RepoOpened](),
		eventing.EventTypeOf[repoevents.RepoClosed](),
		eventing.EventTypeOf[repoevents.RepoDefaulted](),
	)
	bus.Subscribe(eventing.EventTypeOf[seriesevents.Subscribed](), func(ctx context.Context, event any) error {
		evt, ok := event.(seriesevents.Subscribed)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("subscription: series=%s holder=%s pay=%d price=%d minted=%d", evt.SeriesID, evt.Holder, evt.PayAmount, evt.Price, evt.MintedPar)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[repoevents.RepoDefaulted](), func(ctx context.Context, event any) error {
		evt, ok := event.(repoevents.RepoDefaulted)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("repo default: position=%d series=%s borrower=%s", evt.PositionID, evt.SeriesID, evt.Borrower)
		return nil
	})

	seriesHandler, err := serieshttp.NewHandler(engine)
	if err != nil {
		logger.Fatalf("series handler error: %v", err)
	}
	ledgerHandler, err := billshttp.NewHandler(billsService)
	if err != nil {
		logger.Fatalf("ledger handler error: %v", err)
	}
	reposHandler, err := repohttp.NewHandler(market)
	if err != nil {
		logger.Fatalf("repos handler error: %v", err)
	}
	accountingHandler, err := accountinghttp.NewHandler(accountingService)
	if err != nil {
		logger.Fatalf("accounting handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/series", seriesHandler)
	mux.Handle("/api/v1/series/", seriesHandler)
	mux.Handle("/api/v1/ledger/", ledgerHandler)
	mux.Handle("/api/v1/repos", reposHandler)
	mux.Handle("/api/v1/repos/", reposHandler)
	mux.Handle("/api/v1/accounting", accountingHandler)
	mux.Handle("/api/v1/accounting/", accountingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func buildPostgresStorage(cfg config, bus eventing.EventBus, logger *log.Logger) storage {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	publisher := eventing.NewPublisher(eventingpg.NewOutboxStore(db), bus)
	runner, err := uow.NewPostgresRunner(db, publisher, logger)
	if err != nil {
		logger.Fatalf("uow runner error: %v", err)
	}

	return storage{
		db:        db,
		runner:    runner,
		balances:  billspg.NewBalanceRepository(db),
		operators: billspg.NewOperatorRepository(db),
		series:    seriespg.NewSeriesRepository(db),
		subs:      seriespg.NewSubscriptionRepository(db),
		positions: repopg.NewPositionRepository(db),
		ledger:    accountingpg.NewAccountingStore(db),
		rail:      paymentspg.NewRail(db),
		auditor:   audit.NewRepository(db),
	}
}

func buildMemoryStorage(cfg config, bus eventing.EventBus, logger *log.Logger) storage {
	balances := billsmem.NewBalanceRepository()
	operators := billsmem.NewOperatorRepository()
	seriesStore := seriesmem.NewSeriesRepository()
	subs := seriesmem.NewSubscriptionRepository()
	positions := repomem.NewPositionRepository()
	ledger := accountingmem.NewAccountingStore()
	rail := paymentsmem.NewRail()

	if seed := getenvInt64Default("TREASURY_SEED", 0); seed > 0 {
		rail.Deposit(auth.Party(cfg.TreasuryParty), seed)
		logger.Printf("seeded treasury %s with %d", cfg.TreasuryParty, seed)
	}

	publisher := eventing.NewPublisher(nil, bus)
	runner := uow.NewMemoryRunner(publisher, logger,
		balances, operators, seriesStore, subs, positions, ledger, rail)

	return storage{
		runner:    runner,
		balances:  balances,
		operators: operators,
		series:    seriesStore,
		subs:      subs,
		positions: positions,
		ledger:    ledger,
		rail:      rail,
	}
}

func subscribeEventMetrics(bus eventing.EventBus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		eventType := eventType
		bus.Subscribe(eventType, func(ctx context.Context, event any) error {
			metrics.IncEventPublished(eventType)
			return nil
		})
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
