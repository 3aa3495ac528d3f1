package router

import (
	"context"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/config"
	"github.com/vuhoangviet271/packing-video-app/internal/handler"
	"github.com/vuhoangviet271/packing-video-app/internal/infra"
	"github.com/vuhoangviet271/packing-video-app/internal/middleware"
	"github.com/vuhoangviet271/packing-video-app/internal/model"
	"github.com/vuhoangviet271/packing-video-app/internal/repository"
	"github.com/vuhoangviet271/packing-video-app/internal/service"
	"github.com/vuhoangviet271/packing-video-app/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Engine/Service ← Repository ← DB/Redis
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	capture infra.CaptureDevice,
	store infra.ArtifactStore,
	dispatcher *worker.Dispatcher,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	backend := service.NewBackend(productRepo, orderRepo, videoRepo, inventoryRepo)
	cache := service.NewProductCache()
	ledger := service.NewLedger()

	// Initial catalog load is best effort: until it completes, scans fall back
	// to per-code backend lookups; POST /cache/reload retries on demand.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		products, err := backend.LoadAllProducts(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("initial product cache load failed")
			return
		}
		cache.Load(products)
		log.Info().Int("products", len(products)).Int("barcodes", cache.Size()).Msg("product cache loaded")
	}()

	prompt := handler.NewDuplicatePrompt(time.Duration(cfg.DuplicateDecisionTimeoutS) * time.Second)

	engine := service.NewRecordingEngine(service.EngineConfig{
		Type:           model.VideoType(cfg.StationMode),
		StaffID:        cfg.StaffID,
		MachineName:    infra.MachineName(),
		DebounceWindow: time.Duration(cfg.ScanDebounceMS) * time.Millisecond,
		OnDuplicate:    prompt.Resolver(),
		Failures:       dispatcher,
	}, backend, capture, store, cache, ledger)

	// The gun reassembles keystroke bursts into codes and feeds the engine
	// directly; there is no request context to thread through.
	gun := service.NewScannerGun(
		time.Duration(cfg.ScannerMaxGapMS)*time.Millisecond,
		cfg.ScannerMinLength,
		func(code string) { engine.SubmitCode(context.Background(), code) },
	)
	deduper := service.NewQRDeduper(time.Duration(cfg.ScanDebounceMS) * time.Millisecond)

	// ── Handlers ─────────────────────────────────────────────────────────────
	sessionH := handler.NewSessionHandler(engine, ledger, gun, deduper, prompt)
	catalogH := handler.NewCatalogHandler(productRepo, orderRepo, videoRepo, inventoryRepo, reconciliationRepo, backend, cache)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		session := v1.Group("/session")
		{
			session.GET("", sessionH.Snapshot)
			session.POST("/scan", sessionH.Scan)
			session.POST("/stop", sessionH.Stop)
			session.GET("/completeness", sessionH.Completeness)
			session.POST("/duplicate", sessionH.ResolveDuplicate)
			session.POST("/type", sessionH.SetType)
			session.POST("/scans/:productId/decrement", sessionH.DecrementScan)
			session.DELETE("/scans/:productId", sessionH.RemoveScan)
			session.PUT("/returns/:entryId/quality", sessionH.SetReturnQuality)
			session.DELETE("/returns/:entryId", sessionH.RemoveReturnEntry)
			session.POST("/alert/dismiss", sessionH.DismissAlert)
			session.GET("/history", sessionH.History)
			session.DELETE("/history", sessionH.ClearHistory)
		}

		v1.POST("/input/keys", sessionH.FeedKeys)
		v1.POST("/cache/reload", catalogH.ReloadCache)

		v1.GET("/products", catalogH.ListProducts)
		v1.GET("/products/barcode/:code", catalogH.GetProductByBarcode)
		v1.GET("/orders/:shippingCode", catalogH.GetOrder)
		v1.GET("/recordings", catalogH.ListRecordings)
		v1.GET("/inventory/transactions", catalogH.ListInventoryTransactions)
		v1.GET("/reconciliations", catalogH.ListReconciliations)
		v1.POST("/reconciliations/:id/resolve", catalogH.ResolveReconciliation)
	}

	return r
}
