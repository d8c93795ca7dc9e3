package router

import (
	"context"
	"time"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/cart"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/config"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/handler"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/infra"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/middleware"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/model"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/repository"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds the background goroutines owned by the engine (limiter purge).
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, events infra.EventPublisher, mailer *infra.Mailer) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxReceiptBytes + 1<<20

	apiLimiter := middleware.NewRateLimiter("api", 1000, time.Minute, "Too many requests, slow down")
	loginLimiter := middleware.LoginRateLimiter()
	apiLimiter.StartPurge(ctx, 5*time.Minute)
	loginLimiter.StartPurge(ctx, 5*time.Minute)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware()) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	carts := cart.NewRedisStore(rdb, time.Duration(cfg.CartTTLHours)*time.Hour)
	receipts := infra.NewFileReceiptStorage(cfg.ReceiptStoragePath)
	dispatcher := worker.NewDispatcher(rdb)
	layout := infra.ReceiptLayout{StoreName: cfg.StoreName, CurrencySymbol: cfg.CurrencySymbol}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	catalogSvc := service.NewCatalogService(productRepo, movementRepo, priceRepo, rdb)
	cartSvc := service.NewCartService(carts, productRepo)
	txSvc := service.NewTransactionService(txRepo, productRepo, movementRepo, carts, receipts, events, dispatcher,
		service.TransactionOptions{MaxReceiptBytes: cfg.MaxReceiptBytes, Layout: layout, Prices: service.NewRedisPriceCache(rdb)})
	reportSvc := service.NewReportService(txRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(catalogSvc)
	priceH := handler.NewPriceCheckHandler(catalogSvc, rdb)
	cartH := handler.NewCartHandler(cartSvc)
	txH := handler.NewTransactionsHandler(txSvc, cfg.MaxReceiptBytes)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	var mailCB *infra.CircuitBreaker
	if mailer != nil {
		mailCB = mailer.Breaker()
	}
	r.GET("/health", handler.Health(db, rdb, mailCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check: no auth required
	r.GET("/v1/price/:barcode", priceH.GetByBarcode)

	staff := middleware.RequireRole(model.RoleCashier, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/products", staff, productsH.List)
		v1.GET("/products/barcode/:barcode", staff, productsH.GetByBarcode)
		v1.GET("/products/:id", staff, productsH.Get)
		prods := v1.Group("/products", admin)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
			prods.PATCH("/:id/stock", productsH.AdjustStock)
			prods.GET("/:id/movements", productsH.Movements)
			prods.GET("/:id/price-history", productsH.PriceHistory)
		}
		v1.GET("/inventory/low-stock", admin, productsH.LowStock)

		c := v1.Group("/cart", staff)
		{
			c.GET("", cartH.View)
			c.POST("/items", cartH.Add)
			c.POST("/scan", cartH.Scan)
			c.PUT("/items/:product_id", cartH.Update)
			c.DELETE("/items/:product_id", cartH.Remove)
			c.DELETE("", cartH.Clear)
		}

		txs := v1.Group("/transactions", staff)
		{
			txs.POST("", txH.Commit)
			txs.GET("", txH.List)
			txs.GET("/:id", txH.Get)
			txs.GET("/:id/receipt.pdf", txH.ReceiptPDF)
			txs.POST("/:id/wallet-receipt", txH.WalletReceipt)
			txs.POST("/:id/card", txH.CardDetail)
			// the service re-checks the role on the identity
			txs.PATCH("/:id/status", admin, txH.SetStatus)
		}

		reports := v1.Group("/reports", admin)
		{
			reports.GET("/sales", reportsH.Sales)
			reports.GET("/sales.xlsx", reportsH.SalesXLSX)
		}

		users := v1.Group("/users", admin)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
