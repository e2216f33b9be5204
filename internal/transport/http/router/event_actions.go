package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-events-api/internal/feature/event"
	resp "campus-events-api/internal/transport/http/response"
)

// ---------- 活动目录（只读，无决策逻辑） ----------

func mountEventActions(api *gin.RouterGroup, cat *event.Catalog) {
	// GET /events?q=&category=
	api.GET("/events", func(c *gin.Context) {
		views, err := cat.List(c.Request.Context(), c.Query("q"), c.Query("category"))
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "list events failed"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"items": views, "total": len(views)}))
	})

	// GET /events/:id
	api.GET("/events/:id", func(c *gin.Context) {
		v, err := cat.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "load event failed"))
			return
		}
		if v == nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "event not found"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(v))
	})
}
