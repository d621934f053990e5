// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"skycover-agent/internal/backend"
	"skycover-agent/internal/chain"
	"skycover-agent/internal/config"
	"skycover-agent/internal/db"
	catalogHandler "skycover-agent/internal/handlers/catalog"
	notifyHandler "skycover-agent/internal/handlers/notification"
	purchaseHandler "skycover-agent/internal/handlers/purchase"
	sessionHandler "skycover-agent/internal/handlers/session"
	walletHandler "skycover-agent/internal/handlers/wallet"
	wsHandler "skycover-agent/internal/handlers/websocket"
	"skycover-agent/internal/middleware"
	"skycover-agent/internal/pkg/tokenstore"
	"skycover-agent/internal/provider"
	"skycover-agent/internal/repository/postgres"
	purchaseUsecase "skycover-agent/internal/service/purchase"
	sessionUsecase "skycover-agent/internal/service/session"
	walletUsecase "skycover-agent/internal/service/wallet"
	"skycover-agent/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg      config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	sessions *sessionUsecase.Manager
	cancel   context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.Default()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	store := tokenstore.NewRedisStore(redisClient, "skycover")

	// ----- Optional PostgreSQL purchase journal -----
	var purchaseRepo *postgres.PurchaseRepository
	if s.cfg.PostgresDSN != "" {
		pool, err := db.ConnectDB(ctx, s.cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		purchaseRepo = postgres.NewPurchaseRepository(pool)
		if err := purchaseRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare purchase journal: %w", err)
		}
		log.Println("[POSTGRES] purchase journal enabled")
	}

	// ----- Notification hub -----
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// ----- Backend client -----
	// Token source closes over the session manager built just below.
	backendClient := backend.NewClient(s.cfg.BackendBaseURL, func() string {
		if s.sessions == nil {
			return ""
		}
		return s.sessions.Token()
	})

	// ----- Session manager -----
	sessions := sessionUsecase.NewManager(store, backendClient, hub, logger, sessionUsecase.Options{
		RevalidateInterval: s.cfg.RevalidateInterval,
		ActivityDebounce:   s.cfg.ActivityDebounce,
	})
	s.sessions = sessions

	// ----- Wallet provider -----
	var prov provider.Provider
	if s.cfg.ChainRPCURL != "" && s.cfg.ChainPrivateKey != "" {
		ks, err := provider.NewKeystoreProvider(ctx, s.cfg.ChainRPCURL, s.cfg.ChainPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to connect to chain RPC: %w", err)
		}
		prov = ks
		log.Println("[CHAIN] provider ready")
	} else {
		logger.Warn("no chain provider configured, wallet operations disabled")
	}

	// ----- Wallet binder -----
	binder := walletUsecase.NewBinder(prov, store, backendClient, sessions, hub, logger)
	sessions.SetSessionEndCallback(binder.HandleSessionEnd)
	go binder.Run(ctx)

	// ----- Purchase orchestrator -----
	var contract *chain.Contract
	if s.cfg.ContractAddress != "" {
		contract, err = chain.NewContract(s.cfg.ContractAddress, s.cfg.GasLimit)
		if err != nil {
			return fmt.Errorf("failed to build contract binding: %w", err)
		}
	}

	var journal purchaseUsecase.Journal
	if purchaseRepo != nil {
		journal = purchaseRepo
	}
	var caller purchaseUsecase.ContractCaller
	if contract != nil {
		caller = contract
	}
	orchestrator := purchaseUsecase.NewOrchestrator(binder, prov, caller, backendClient, journal, hub, logger)

	// ----- Restore persisted state -----
	if err := sessions.Initialize(ctx); err != nil {
		logger.Warn("session restore failed", zap.Error(err))
	}
	binder.Initialize(ctx)

	// ----- Handlers -----
	sessionHandlerInst := sessionHandler.NewSessionHandler(sessions, logger)
	walletHandlerInst := walletHandler.NewWalletHandler(binder, logger)
	purchaseHandlerInst := purchaseHandler.NewPurchaseHandler(orchestrator, backendClient, purchaseRepo, logger)
	catalogHandlerInst := catalogHandler.NewCatalogHandler(backendClient, logger)
	notifHandlerInst := notifyHandler.NewNotificationHandler(hub)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	sessionMiddleware := middleware.NewSessionMiddleware(sessions)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		SessionHandler:    sessionHandlerInst,
		WalletHandler:     walletHandlerInst,
		PurchaseHandler:   purchaseHandlerInst,
		CatalogHandler:    catalogHandlerInst,
		NotifHandler:      notifHandlerInst,
		WSHandler:         wsHandlerInst,
		SessionMiddleware: sessionMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("agent running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown stops background loops. The HTTP listener dies with the process.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}
