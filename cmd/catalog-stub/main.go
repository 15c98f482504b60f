// Точка входа Catalog Stub — stub-сервер REST API каталога для разработки
// и e2e-тестов удалённого варианта Catalog Admin. Реализует контракт
// internal/stubapi/openapi.yaml поверх key/value хранилища.
package main

import (
	"context"
	"log/slog"
	"os"

	apihandlers "github.com/bigkaa/goartstore/catalog-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/config"
	"github.com/bigkaa/goartstore/catalog-admin/internal/database"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
	"github.com/bigkaa/goartstore/catalog-admin/internal/repository"
	"github.com/bigkaa/goartstore/catalog-admin/internal/server"
	"github.com/bigkaa/goartstore/catalog-admin/internal/stubapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

func main() {
	// 1. Конфигурация и логирование
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog Stub запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.StubPort),
		slog.String("store", cfg.Store),
	)

	ctx := context.Background()
	checks := map[string]apihandlers.ReadinessChecker{}

	// 2. Хранилище товаров stub-сервера
	var store kvstore.Store
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.Open(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		store = kvstore.NewPostgresStore(pool)
		checks["postgresql"] = database.NewReadinessChecker(pool)
	default:
		fileStore, err := kvstore.OpenFileStore(cfg.StorePath)
		if err != nil {
			logger.Error("Ошибка открытия хранилища", slog.String("path", cfg.StorePath), slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = fileStore
		checks["store"] = fileStore
	}

	// 3. Учётные записи и эмитент токенов
	var accounts []auth.Account
	if cfg.AccountsFile != "" {
		accounts, err = auth.LoadAccounts(cfg.AccountsFile)
	} else {
		logger.Warn("CA_ACCOUNTS_FILE не задан, используются демо-учётные записи")
		accounts, err = auth.DemoAccounts()
	}
	if err != nil {
		logger.Error("Ошибка загрузки учётных записей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	issuer := auth.NewLocalIssuer(accounts, cfg.Secret, cfg.TokenTTL, logger)

	// 4. Обработчик API и демо-данные
	handler := stubapi.NewHandler(store, issuer, cfg.Secret, logger)
	if cfg.SeedDemo {
		if err := handler.Seed(ctx, []catalogapi.Product{demoProduct()}); err != nil {
			logger.Warn("Ошибка заполнения демо-данными", slog.String("error", err.Error()))
		}
	}

	// 5. HTTP-сервер
	router, err := stubapi.NewRouter(handler, apihandlers.NewHealthHandler("catalog-stub", checks), logger)
	if err != nil {
		logger.Error("Ошибка создания роутера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(cfg.StubPort, router, cfg.ShutdownTimeout, logger)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Catalog Stub остановлен")
}

// demoProduct — демо-товар в формате API.
func demoProduct() catalogapi.Product {
	in := repository.DemoProduct()
	return catalogapi.Product{
		ID:            "6650c1f2a9d3e4b5c6d7e8f9",
		Code:          "SVF000001VSP",
		Name:          in.Name,
		Description:   in.Description,
		Images:        in.Images,
		Price:         in.Price,
		ExtendedPrice: in.ExtendedPrice,
		Stock:         in.Stock,
	}
}
