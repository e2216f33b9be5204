package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/core/cache"
	"campus-events-api/internal/core/config"
	"campus-events-api/internal/core/database"
	"campus-events-api/internal/core/logger"
	"campus-events-api/internal/core/server"
	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/event"
	"campus-events-api/internal/feature/rsvp"
	"campus-events-api/internal/feature/user"
	"campus-events-api/internal/repo"
	"campus-events-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.User{}, &domain.Event{}, &domain.Registration{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	// 领域依赖：报名协调器 / 活动目录 / 账号策略
	coordinator := rsvp.NewCoordinator(repo.NewRegistrationRepo(db), log, rsvp.Options{
		StoreTimeout: time.Duration(cfg.RSVP.StoreTimeoutSec) * time.Second,
		OnDuplicate:  rsvp.ParseDuplicateMode(cfg.RSVP.OnDuplicate),
	})
	rdb := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	catalog := event.NewCatalog(repo.NewEventRepo(db), rdb,
		time.Duration(cfg.Redis.CatalogTTLSec)*time.Second, log)
	policy, err := user.NewCampusPolicy(cfg.Signup.EmailPattern, cfg.Signup.AdminKey)
	if err != nil {
		log.Fatal("bad signup email pattern", zap.Error(err))
	}

	// 路由（用户端）
	r := router.NewAPIEngine(router.Deps{
		Log:         log,
		DB:          db,
		JWT:         jwter,
		Coordinator: coordinator,
		Catalog:     catalog,
		Policy:      policy,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("campus events api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("campus events api start FAILED", zap.Error(err))
		}
	}()
	log.Info("campus events api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("campus events api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File != "" {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
			cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
