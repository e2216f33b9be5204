package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version 构建号，发布时用 -ldflags "-X ...router.Version=v1.2.3" 注入。
var Version = "dev"

// Categories 活动分类的展示顺序，前端下拉框直接用。
var Categories = []string{"Technical", "Cultural", "Sports", "Workshop", "Talk"}

// metaModule 旁路路由：版本、分类枚举，admin 侧加 Prometheus 指标。
type metaModule struct{}

func init() { Register(metaModule{}) }

func (metaModule) MountAPI(api *gin.RouterGroup) {
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	})
	api.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": Categories})
	})
}

func (metaModule) MountAdmin(admin *gin.RouterGroup) {
	admin.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	})
	admin.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
