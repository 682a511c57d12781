package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	alertApp "signalist/internal/application/alert"
	"signalist/internal/application/engagement"
	"signalist/internal/application/jobs"
	marketApp "signalist/internal/application/market"
	watchApp "signalist/internal/application/watchlist"
	"signalist/internal/infra/memory"
	"signalist/internal/infrastructure/ai"
	"signalist/internal/infrastructure/cache"
	"signalist/internal/infrastructure/config"
	"signalist/internal/infrastructure/db"
	"signalist/internal/infrastructure/external/finnhub"
	"signalist/internal/infrastructure/metrics"
	"signalist/internal/infrastructure/notify"
	mongoRepo "signalist/internal/infrastructure/persistence/mongo"
	pgRepo "signalist/internal/infrastructure/persistence/postgres"
	"signalist/internal/infrastructure/tracing"
)

// UserStore 使用者查詢、批次解析與造訪紀錄。
type UserStore interface {
	alertApp.OwnerResolver
	alertApp.UserFinder
	engagement.UserDirectory
}

// Storage 選定 driver 的 repository 組合。
type Storage struct {
	Driver    string
	Alerts    alertApp.Repository
	Users     UserStore
	Watchlist watchApp.Store
}

// MarketGateway 報價、基本面、新聞與搜尋。
type MarketGateway interface {
	alertApp.QuoteFetcher
	watchApp.MarketData
	marketApp.Provider
}

// Components 組裝 App 所需的外部元件。
type Components struct {
	Storage Storage
	Market  MarketGateway
	Mailer  *notify.Mailer
	Writer  engagement.Writer // nil 時使用預設文字
}

// App 持有所有應用服務。
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Storage   Storage
	Alerts    *alertApp.Service
	Engine    *alertApp.Engine
	Watchlist *watchApp.Service
	Market    *marketApp.Service
	Welcome   *engagement.WelcomeUseCase
	News      *engagement.NewsUseCase
	Inactive  *engagement.InactiveUseCase
	Visits    *engagement.VisitUseCase
	Jobs      *jobs.Registry

	closers []func(context.Context) error
}

// NewApp 以給定元件組裝服務並註冊排程工作。
func NewApp(cfg config.Config, logger *zap.Logger, c Components) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := metrics.NewRecorder()
	st := c.Storage

	evaluator := alertApp.NewEvaluator(c.Market, c.Mailer, st.Alerts, logger).
		WithLease(cfg.Alerts.ClaimLease).
		WithRecorder(recorder)
	engine := alertApp.NewEngine(st.Alerts, st.Users, evaluator, logger).
		WithConcurrency(cfg.Alerts.Concurrency)

	watchSvc := watchApp.NewService(st.Watchlist, st.Users, c.Market, logger)
	marketSvc := marketApp.NewService(c.Market, watchSvc, logger)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Storage:   st,
		Alerts:    alertApp.NewService(st.Alerts, st.Users),
		Engine:    engine,
		Watchlist: watchSvc,
		Market:    marketSvc,
		Welcome:   engagement.NewWelcomeUseCase(c.Writer, c.Mailer, cfg.AI.ModelWelcome, logger),
		News:      engagement.NewNewsUseCase(st.Users, watchSvc, marketSvc, c.Writer, c.Mailer, cfg.AI.ModelNews, logger),
		Inactive: engagement.NewInactiveUseCase(st.Users, c.Mailer, cfg.App.DashboardURL, cfg.App.UnsubscribeURL, logger).
			WithDays(cfg.App.InactiveDays),
		Visits: engagement.NewVisitUseCase(st.Users),
		Jobs:   jobs.NewRegistry(logger).WithRecorder(recorder),
	}
	if err := jobs.RegisterStandard(app.Jobs, jobs.Deps{
		Alerts:    engine,
		News:      app.News,
		Inactive:  app.Inactive,
		Schedules: cfg.Schedule,
	}); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}
	return app, nil
}

// Bootstrap 依設定連線外部服務並建立 App。
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var closers []func(context.Context) error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](context.Background())
		}
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, logger)
	if err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
	} else {
		closers = append(closers, shutdownTracing)
	}

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, closeStorage)

	store, limiter, closeRedis := openCache(ctx, cfg, logger)
	closers = append(closers, closeRedis)

	client := finnhub.NewClient(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, cfg.Finnhub.Timeout)
	if limiter != nil {
		client.WithLimiter(limiter)
	}
	if cfg.Finnhub.APIKey == "" {
		logger.Warn("FINNHUB_API_KEY not set; quotes and news will be unavailable")
	}
	gateway := finnhub.NewAdapter(client, store, cfg.Finnhub.CacheTTL, logger).WithObserver(metrics.NewRecorder())

	transport, err := newTransport(cfg.Mail, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	mailer := notify.NewMailer(transport, logger).WithObserver(metrics.NewRecorder())

	var writer engagement.Writer
	if cfg.AI.APIKey != "" {
		writer = ai.NewWriter(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Timeout)
	} else {
		logger.Warn("GEMINI_API_KEY not set; emails use default text")
	}

	app, err := NewApp(cfg, logger, Components{Storage: storage, Market: gateway, Mailer: mailer, Writer: writer})
	if err != nil {
		cleanup()
		return nil, err
	}
	app.closers = closers
	logger.Info("application ready", zap.String("storage", storage.Driver))
	return app, nil
}

// Close 依建立的相反順序釋放資源。
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("close resource failed", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
}

func noopClose(context.Context) error { return nil }

// openStorage 依 driver 連線；未明確指定 driver 且連線失敗時改用記憶體。
func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (Storage, func(context.Context) error, error) {
	explicit := cfg.Storage.Driver != ""
	switch cfg.StorageDriver() {
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DB)
		if err == nil && sqlDB != nil {
			return Storage{
				Driver:    "postgres",
				Alerts:    pgRepo.NewAlertRepo(sqlDB),
				Users:     pgRepo.NewUserRepo(sqlDB),
				Watchlist: pgRepo.NewWatchlistRepo(sqlDB),
			}, func(context.Context) error { return sqlDB.Close() }, nil
		}
		if err == nil {
			err = errors.New("db dsn is empty")
		}
		if explicit {
			return Storage{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Warn("database connection failed, falling back to in-memory store", zap.Error(err))
	case "mongo":
		client, database, err := db.ConnectMongo(ctx, cfg.Mongo)
		if err == nil && database != nil {
			if err := mongoRepo.EnsureIndexes(ctx, database); err != nil {
				logger.Warn("ensure mongo indexes failed", zap.Error(err))
			}
			return Storage{
				Driver:    "mongo",
				Alerts:    mongoRepo.NewAlertRepo(database),
				Users:     mongoRepo.NewUserRepo(database),
				Watchlist: mongoRepo.NewWatchlistRepo(database),
			}, client.Disconnect, nil
		}
		if err == nil {
			err = errors.New("mongo uri is empty")
		}
		if explicit {
			return Storage{}, nil, fmt.Errorf("connect mongo: %w", err)
		}
		logger.Warn("mongo connection failed, falling back to in-memory store", zap.Error(err))
	}
	logger.Warn("running with in-memory store; data is not persisted")
	return MemoryStorage(memory.NewStore()), noopClose, nil
}

// MemoryStorage 以記憶體 Store 組成 Storage。
func MemoryStorage(s *memory.Store) Storage {
	return Storage{Driver: "memory", Alerts: s.Alerts(), Users: s.Users(), Watchlist: s.Watchlist()}
}

// openCache 有 Redis 時使用共享快取與限流，否則使用行程內快取。
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Store, finnhub.Limiter, func(context.Context) error) {
	client, err := db.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
	}
	if client == nil {
		return cache.NewMemoryStore(), nil, noopClose
	}
	var limiter finnhub.Limiter
	if cfg.Finnhub.RatePerMinute > 0 {
		limiter = cache.NewRedisLimiter(client, "signalist:finnhub", cfg.Finnhub.RatePerMinute)
	}
	return cache.NewRedisStore(client, "signalist:"), limiter, func(context.Context) error { return client.Close() }
}

func newTransport(cfg config.MailConfig, logger *zap.Logger) (notify.Transport, error) {
	if cfg.DryRun {
		logger.Info("mail dry run enabled")
		return notify.NewLogTransport(logger), nil
	}
	if cfg.Username == "" || cfg.Password == "" {
		logger.Warn("NODEMAILER_EMAIL/NODEMAILER_PASSWORD not set; emails will fail")
		return notify.DisabledTransport{}, nil
	}
	t, err := notify.NewSMTPTransport(notify.SMTPConfig{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Username:    cfg.Username,
		Password:    cfg.Password,
		FromName:    cfg.FromName,
		FromAddress: cfg.FromAddress,
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
