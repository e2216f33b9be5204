package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/event"
	"campus-events-api/internal/repo"
	httpez "campus-events-api/internal/transport/http/ez"
	"campus-events-api/pkg/utils"
)

// 把管理端接口集中在这里注册
func mountAdminActions(admin *gin.RouterGroup, db *gorm.DB, cat *event.Catalog) {
	ez := httpez.New(admin)

	// --- POST /admin/v1/events  建活动 ---
	type eventIn struct {
		Title       string `json:"title"       binding:"required,max=128"`
		Description string `json:"description" binding:"omitempty"`
		Category    string `json:"category"    binding:"required,max=32"`
		SubCategory string `json:"subCategory" binding:"omitempty,max=32"`
		Venue       string `json:"venue"       binding:"required,max=128"`
		Date        string `json:"date"        binding:"required"`
		StartTime   string `json:"startTime"   binding:"required"`
		EndTime     string `json:"endTime"     binding:"required"`
		PosterURL   string `json:"posterUrl"   binding:"omitempty,max=512"`
		CreatedBy   string `json:"createdBy"   binding:"required,max=64"`
	}
	httpez.RegisterAction[eventIn, domain.Event](ez, db, httpez.Action[eventIn, domain.Event]{
		Method: http.MethodPost,
		Path:   "/events",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *eventIn) (domain.Event, error) {
			ev := domain.Event{
				ID:          utils.NewID(),
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Category:    in.Category,
				SubCategory: in.SubCategory,
				Venue:       strings.TrimSpace(in.Venue),
				Date:        in.Date,
				StartTime:   in.StartTime,
				EndTime:     in.EndTime,
				PosterURL:   in.PosterURL,
				CreatedBy:   strings.TrimSpace(in.CreatedBy),
			}
			if err := cat.Create(c.Request.Context(), &ev); err != nil {
				if errors.Is(err, domain.ErrValidation) {
					return domain.Event{}, httpez.BadRequest(err.Error())
				}
				return domain.Event{}, httpez.Internal("create event failed", err)
			}
			return ev, nil
		},
	})

	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"`            // 按 email/name 模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含被封禁的
	}
	type row struct {
		ID         string    `json:"id"`
		Email      string    `json:"email"`
		Name       string    `json:"name"`
		Role       string    `json:"role"`
		Department string    `json:"department"`
		Year       string    `json:"year"`
		Verified   bool      `json:"emailVerified"`
		CreatedAt  time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ez, db, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			us, total, err := repo.NewUserRepo(tx.WithContext(c)).Search(in.Q, in.WithDeleted, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}

			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
					Department: u.Department, Year: u.Year,
					Verified: u.EmailVerified, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			n, err := repo.NewUserRepo(tx.WithContext(c)).SoftDelete(id)
			if err != nil {
				return nil, httpez.Internal("ban user failed", err)
			}
			if n == 0 {
				return nil, httpez.NotFound("user not found")
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- GET /admin/v1/registrations?event_id=  某活动的报名名单 ---
	type regQ struct {
		EventID string `form:"event_id" binding:"required"`
	}
	type regOut struct {
		Total int                   `json:"total"`
		Items []domain.Registration `json:"items"`
	}
	httpez.RegisterAction[regQ, regOut](ez, db, httpez.Action[regQ, regOut]{
		Method: http.MethodGet,
		Path:   "/registrations",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *regQ) (regOut, error) {
			regs, err := repo.NewRegistrationRepo(tx).ListByEvent(c.Request.Context(), in.EventID)
			if err != nil {
				return regOut{}, httpez.Internal("list registrations failed", err)
			}
			return regOut{Total: len(regs), Items: regs}, nil
		},
	})
}
