package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/core/server"
	"campus-events-api/internal/feature/event"
	mdw "campus-events-api/internal/transport/http/middleware"
)

// AdminDeps 管理端引擎的依赖
type AdminDeps struct {
	Log     *zap.Logger
	DB      *gorm.DB
	JWT     *auth.JWTer
	Catalog *event.Catalog
}

func NewAdminEngine(d AdminDeps) *gin.Engine {
	// 基础引擎带 ginzap + CORS，再补限流等
	r := server.NewRouter(d.Log)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(100, 200),
		mdw.ConcurrencyLimit(100),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, "admin"))

	// 自动发现（如有）
	MountAllAdmin(admin)

	mountAdminActions(admin, d.DB, d.Catalog)

	return r
}
