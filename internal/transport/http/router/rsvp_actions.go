package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/calendar"
	"campus-events-api/internal/feature/event"
	"campus-events-api/internal/feature/rsvp"
	mdw "campus-events-api/internal/transport/http/middleware"
	resp "campus-events-api/internal/transport/http/response"
)

// ---------- 报名工作流 ----------

func mountRSVPActions(authed *gin.RouterGroup, co *rsvp.Coordinator, cat *event.Catalog) {
	// POST /events/:id/rsvp  body: {"replace": null|false|true}
	// 第一次不带 replace；撞到时段冲突会拿到 409 + 旧报名，确认后带 replace=true 重试。
	type rsvpIn struct {
		Replace *bool `json:"replace"`
	}
	authed.POST("/events/:id/rsvp", func(c *gin.Context) {
		var in rsvpIn
		if err := c.ShouldBindJSON(&in); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
			return
		}
		v, err := cat.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "load event failed"))
			return
		}
		if v == nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "event not found"))
			return
		}

		decision := rsvp.DecisionAsk
		if in.Replace != nil {
			if *in.Replace {
				decision = rsvp.DecisionConfirm
			} else {
				decision = rsvp.DecisionDecline
			}
		}

		reg, err := co.Register(c.Request.Context(), mdw.Snapshot(c), v.Event, decision)
		if err != nil {
			writeRSVPErr(c, err)
			return
		}
		outcome := "registered"
		if decision == rsvp.DecisionConfirm {
			outcome = "replaced"
		}
		mdw.CountRSVP(outcome)
		c.JSON(http.StatusOK, resp.OK(reg))
	})

	// DELETE /events/:id/rsvp  取消报名；删 0 条也算成功
	authed.DELETE("/events/:id/rsvp", func(c *gin.Context) {
		n, err := co.Cancel(c.Request.Context(), c.GetString("userId"), c.Param("id"))
		if err != nil {
			writeRSVPErr(c, err)
			return
		}
		mdw.CountRSVP("cancelled")
		c.JSON(http.StatusOK, resp.OK(gin.H{"removed": n}))
	})

	// GET /me/conflict?date=&startTime=  报名前探测时段占用，前端据此先弹确认框
	authed.GET("/me/conflict", func(c *gin.Context) {
		reg, err := co.CheckConflict(c.Request.Context(), c.GetString("userId"),
			c.Query("date"), c.Query("startTime"))
		if err != nil {
			writeRSVPErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"conflict": reg}))
	})

	// GET /me/registrations  我的报名，最近的在前
	authed.GET("/me/registrations", func(c *gin.Context) {
		regs, err := co.MyRegistrations(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			writeRSVPErr(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"items": regs, "total": len(regs)}))
	})

	// GET /me/calendar.ics  日历导出（非 JSON 信封）
	authed.GET("/me/calendar.ics", func(c *gin.Context) {
		regs, err := co.MyRegistrations(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			writeRSVPErr(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="my-events.ics"`)
		c.Data(http.StatusOK, calendar.ContentType, []byte(calendar.Build(regs)))
	})
}

// writeRSVPErr 把协调器的错误族映射成可区分的响应码。
func writeRSVPErr(c *gin.Context, err error) {
	var rr *domain.ReplaceRequiredError
	switch {
	case errors.As(err, &rr):
		mdw.CountRSVP("conflict")
		c.JSON(http.StatusOK, resp.ErrorData(resp.CodeConflict,
			"slot already registered, confirm replace", gin.H{"conflict": rr.Existing}))
	case errors.Is(err, domain.ErrConflictDeclined):
		mdw.CountRSVP("declined")
		c.JSON(http.StatusOK, resp.Error(resp.CodeConflict, "replace declined"))
	case errors.Is(err, domain.ErrDuplicateRegistration):
		mdw.CountRSVP("duplicate")
		c.JSON(http.StatusOK, resp.Error(resp.CodeConflict, "already registered for this event"))
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
	case errors.Is(err, domain.ErrStoreTimeout):
		mdw.CountRSVP("timeout")
		c.JSON(http.StatusOK, resp.Error(resp.CodeTimeout, "store round trip timed out"))
	default:
		mdw.CountRSVP("failed")
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "rsvp failed"))
	}
}
