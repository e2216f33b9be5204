package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/feature/event"
	"campus-events-api/internal/feature/rsvp"
	"campus-events-api/internal/feature/user"
	mdw "campus-events-api/internal/transport/http/middleware"
)

// Deps 用户端引擎的依赖集合
type Deps struct {
	Log         *zap.Logger
	DB          *gorm.DB
	JWT         *auth.JWTer
	Coordinator *rsvp.Coordinator
	Catalog     *event.Catalog
	Policy      user.AccountPolicy
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.Default(),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	// 前缀
	api := r.Group("/api/v1")

	// 统一注册器（模块自注册用）
	MountAllAPI(api)

	// 鉴权分组（/me /rsvp 必须挂这里，才能拿到 userId）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, ""))

	mountAuthActions(api, authed, d.DB, d.JWT, d.Policy)
	mountEventActions(api, d.Catalog)
	mountRSVPActions(authed, d.Coordinator, d.Catalog)

	return r
}
