package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"thrum-backend/internal/common/config"
	"thrum-backend/internal/common/logger"
	"thrum-backend/internal/common/middleware"
	compliancehttp "thrum-backend/internal/features/compliance/delivery/http"
	compliancepg "thrum-backend/internal/features/compliance/repository/postgres"
	complianceredis "thrum-backend/internal/features/compliance/repository/redis"
	complianceservice "thrum-backend/internal/features/compliance/service"
	deposithttp "thrum-backend/internal/features/deposit/delivery/http"
	depositpg "thrum-backend/internal/features/deposit/repository/postgres"
	depositservice "thrum-backend/internal/features/deposit/service"
	poolpg "thrum-backend/internal/features/pool/repository/postgres"
	poolservice "thrum-backend/internal/features/pool/service"
	userhttp "thrum-backend/internal/features/user/delivery/http"
	userpg "thrum-backend/internal/features/user/repository/postgres"
	userservice "thrum-backend/internal/features/user/service"
	"thrum-backend/internal/platform/db"
	"thrum-backend/internal/platform/etherscan"
	"thrum-backend/internal/platform/ofac"
	redisplatform "thrum-backend/internal/platform/redis"
)

func main() {
	// Cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init("thrum-backend", cfg.Debug)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	pg, err := db.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres open")
	}
	defer pg.Close()

	if err := db.EnsureSchema(ctx, pg); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap")
	}

	rdb, err := redisplatform.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis open")
	}
	defer rdb.Close()

	// Repositories.
	userRepo := userpg.NewPostgresRepository(pg)
	poolRepo := poolpg.NewPostgresRepository(pg)
	depositRepo := depositpg.NewPostgresRepository(pg)
	auditRepo := compliancepg.NewPostgresRepository(pg)
	snapshotStore := complianceredis.NewSnapshotStore(rdb)

	// External collaborators.
	chainClient := etherscan.NewClient(cfg.Chain.EtherscanURL, cfg.Chain.EtherscanAPIKey, cfg.Chain.ChainID, cfg.Chain.RequestTimeout)
	sanctionsFetcher := ofac.NewFetcher(cfg.Compliance.SanctionsURLs, cfg.Compliance.FetchTimeout)

	// Services. The compliance engine is wired into the credit path: a
	// deposit is credited only after its compliance decision allows it.
	userSvc := userservice.NewUserService(userRepo)
	poolSvc := poolservice.NewPoolService(poolRepo)

	sanctions := complianceservice.NewSanctionsChecker(snapshotStore, sanctionsFetcher, cfg.Compliance.SanctionsTTL)
	complianceSvc := complianceservice.NewComplianceService(auditRepo, sanctions, depositRepo, complianceservice.Config{
		EnforceSanctions:   cfg.Compliance.EnforceSanctions,
		ConsentLookback:    cfg.Compliance.ConsentLookback,
		TermsVersion:       cfg.Compliance.TermsVersion,
		PrivacyVersion:     cfg.Compliance.PrivacyVersion,
		DisclosuresVersion: cfg.Compliance.DisclosuresVersion,
	})

	depositSvc := depositservice.NewDepositService(depositRepo, chainClient, complianceSvc, depositservice.Config{
		MinConfirmations: cfg.Credits.MinConfirmations,
		WeiPerCredit:     cfg.Credits.WeiPerCredit,
		MaxTxValueWei:    cfg.Credits.MaxTxValueWei,
	})

	// HTTP edge.
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api/v1")
	userhttp.NewUserHandler(userSvc).RegisterRoutes(api)
	deposithttp.NewDepositHandler(depositSvc, poolSvc, userSvc).RegisterRoutes(api)
	compliancehttp.NewComplianceHandler(complianceSvc).RegisterRoutes(api)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	logger.Info().Msg("server stopped")
}
