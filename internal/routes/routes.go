package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/marketpay/marketpay/internal/account"
	"github.com/marketpay/marketpay/internal/callback"
	"github.com/marketpay/marketpay/internal/config"
	"github.com/marketpay/marketpay/internal/ledger"
	"github.com/marketpay/marketpay/internal/middleware"
	"github.com/marketpay/marketpay/internal/notification"
	"github.com/marketpay/marketpay/internal/recharge"
	"github.com/marketpay/marketpay/internal/withdrawal"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Services exposes the wired domain services so the process entrypoint can
// attach background work, like the recharge sweeper, to the same instances
// the routes use.
type Services struct {
	Recharge *recharge.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Services, error) {
	// Dev runs on in-memory stores; everywhere else the database is the ledger
	// of record and must be present.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return Services{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return Services{}, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var (
		accounts      account.Store
		entries       ledger.Reader
		withdrawStore withdrawal.Store
		rechargeStore recharge.Store
		callbackStore callback.Store
	)
	if d.DB != nil {
		accounts = account.NewPostgresStore(d.DB)
		entries = ledger.NewPostgresLedger(d.DB)
		withdrawStore = withdrawal.NewPostgresStore(d.DB)
		rechargeStore = recharge.NewPostgresStore(d.DB)
		callbackStore = callback.NewPostgresStore(d.DB)
	} else {
		memAccounts := account.NewMemoryStore()
		memEntries := ledger.NewMemory()
		memOrders := recharge.NewMemoryStore(memAccounts, memEntries)
		accounts = memAccounts
		entries = memEntries
		withdrawStore = withdrawal.NewMemoryStore(memAccounts, memEntries)
		rechargeStore = memOrders
		callbackStore = callback.NewMemoryStore(memOrders, memAccounts, memEntries)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)

	minimums := withdrawal.Minimums{
		Buyer:          d.Cfg.BuyerWithdrawMin,
		Merchant:       d.Cfg.MerchantWithdrawMin,
		BuyerSilver:    d.Cfg.BuyerSilverWithdrawMin,
		MerchantSilver: d.Cfg.MerchantSilverWithdrawMin,
	}
	feeRule := withdrawal.BasisPointsFee(d.Cfg.BuyerFeeBps, d.Cfg.MerchantFeeBps)
	withdrawSvc := withdrawal.NewService(withdrawStore, minimums, feeRule, notifier)
	rechargeSvc := recharge.NewService(rechargeStore, d.Cfg.RechargeTTL)
	processor := callback.NewProcessor(callbackStore, d.Cfg.ChannelSecrets(), notifier, d.Logger)

	withdrawHandler := withdrawal.NewHandler(withdrawSvc)
	rechargeHandler := recharge.NewHandler(rechargeSvc)

	api := app.Group("/api/v1")
	RegisterWithdrawalRoutes(api, withdrawHandler)
	RegisterRechargeRoutes(api, rechargeHandler)
	RegisterOwnerRoutes(api, accounts, entries, withdrawHandler, rechargeHandler)

	// Gateway callbacks live outside the versioned API; the endpoint shape is
	// part of the contract with each gateway.
	RegisterCallbackRoutes(app, callback.NewHandler(processor))

	return Services{Recharge: rechargeSvc}, nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
