// Точка входа Catalog Admin — административный интерфейс каталога товаров.
// Загружает конфигурацию, открывает key/value хранилище (файл или PostgreSQL),
// выбирает бэкенд каталога (локальный или удалённый REST API), создаёт сервисы,
// Route Guard и UI handlers, запускает topologymetrics и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	apihandlers "github.com/bigkaa/goartstore/catalog-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/config"
	"github.com/bigkaa/goartstore/catalog-admin/internal/database"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
	"github.com/bigkaa/goartstore/catalog-admin/internal/repository"
	"github.com/bigkaa/goartstore/catalog-admin/internal/server"
	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
	uihandlers "github.com/bigkaa/goartstore/catalog-admin/internal/ui/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog Admin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend", cfg.Backend),
		slog.String("store", cfg.Store),
	)

	if os.Getenv("CA_DEPHEALTH_GROUP") == "" {
		logger.Warn("CA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx := context.Background()
	checks := map[string]apihandlers.ReadinessChecker{}
	deps := service.Dependencies{}

	// 3. Key/value хранилище
	var store kvstore.Store
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.Open(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		store = kvstore.NewPostgresStore(pool)
		checks["postgresql"] = database.NewReadinessChecker(pool)
		deps.DB = pgDB
		deps.PostgresURL = cfg.DatabaseURL()
	default:
		fileStore, err := kvstore.OpenFileStore(cfg.StorePath)
		if err != nil {
			logger.Error("Ошибка открытия хранилища", slog.String("path", cfg.StorePath), slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = fileStore
		checks["store"] = fileStore
		logger.Info("Файловое хранилище открыто", slog.String("path", fileStore.Path()))
	}

	// 4. Бэкенд каталога и эмитент токенов
	var (
		repo   repository.ProductRepository
		images service.ImageBlobs
		issuer service.Authenticator
	)
	switch cfg.Backend {
	case config.BackendRemote:
		// Токен для изменяющих запросов — из сессии текущего запроса
		client := catalogapi.New(cfg.APIURL, cfg.APITimeout, func(ctx context.Context) (string, error) {
			token := uimiddleware.TokenFromContext(ctx)
			if token == "" {
				return "", auth.ErrNoSession
			}
			return token, nil
		}, logger)

		repo = repository.NewRemoteProductRepository(client, cfg.RemoteCacheSize, cfg.RemoteCacheTTL, logger)
		issuer = client
		checks["catalog-api"] = client
		deps.CatalogAPIURL = client.BaseURL()
		logger.Info("Удалённый каталог", slog.String("api_url", client.BaseURL()))
	default:
		imageStore := repository.NewImageStore(store)
		localRepo := repository.NewLocalProductRepository(store, imageStore, logger)

		if cfg.ResetData {
			if err := localRepo.ClearAll(ctx); err != nil {
				logger.Error("Ошибка очистки локального каталога", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		if cfg.SeedDemo {
			if seeded, err := localRepo.SeedDemoData(ctx); err != nil {
				logger.Warn("Ошибка заполнения демо-данными", slog.String("error", err.Error()))
			} else if seeded {
				logger.Info("Каталог заполнен демо-данными")
			}
		}

		accounts, err := loadAccounts(cfg, logger)
		if err != nil {
			logger.Error("Ошибка загрузки учётных записей", slog.String("error", err.Error()))
			os.Exit(1)
		}

		repo = localRepo
		images = imageStore
		issuer = auth.NewLocalIssuer(accounts, cfg.Secret, cfg.TokenTTL, logger)
	}

	// 5. Services
	snapshot := service.NewSnapshot()
	productsSvc := service.NewProductService(repo, images, snapshot, logger)
	authSvc := service.NewAuthService(issuer, cfg.Secret, logger)

	// 6. Каталоги переводов, сессии, Route Guard, UI handlers
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("Ошибка загрузки каталогов переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sessions := auth.NewSessionManager(cfg.Secret, cfg.SecureCookie)
	routes := server.Routes{
		Guard:    uimiddleware.NewGuard(sessions, logger),
		Auth:     uihandlers.NewAuthHandler(authSvc, sessions, logger),
		Menu:     uihandlers.NewMenuHandler(logger),
		Products: uihandlers.NewProductsHandler(productsSvc, sessions, repository.DemoImageURLs(), uihandlers.DefaultMaxUpload, logger),
		Events:   uihandlers.NewEventsHandler(productsSvc, snapshot, cfg.SSEInterval, logger),
		Health:   apihandlers.NewHealthHandler("catalog-admin", checks),
	}

	// 7. topologymetrics — мониторинг зависимостей (PostgreSQL, API каталога)
	dephealthSvc, err := service.NewDephealthService(
		"catalog-admin",
		cfg.DephealthGroup,
		deps,
		cfg.DephealthCheckInterval,
		logger,
	)
	switch {
	case errors.Is(err, service.ErrNoDependencies):
		logger.Info("Внешних зависимостей нет, topologymetrics не запускается")
	case err != nil:
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	default:
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. HTTP-сервер
	srv := server.New(cfg.Port, server.NewRouter(routes, logger), cfg.ShutdownTimeout, logger)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Catalog Admin остановлен")
}

// loadAccounts читает учётные записи из CA_ACCOUNTS_FILE или возвращает
// демо-записи, если файл не задан.
func loadAccounts(cfg *config.Config, logger *slog.Logger) ([]auth.Account, error) {
	if cfg.AccountsFile != "" {
		accounts, err := auth.LoadAccounts(cfg.AccountsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Учётные записи загружены",
			slog.String("path", cfg.AccountsFile),
			slog.Int("count", len(accounts)),
		)
		return accounts, nil
	}

	logger.Warn("CA_ACCOUNTS_FILE не задан, используются демо-учётные записи admin/admin и viewer/viewer")
	return auth.DemoAccounts()
}
