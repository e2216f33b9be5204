package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/user"
	"campus-events-api/internal/repo"
	httpez "campus-events-api/internal/transport/http/ez"
	"campus-events-api/pkg/utils"
)

// ---------- 账号动作：注册 / 登录 / 验证 / 资料 ----------

func mountAuthActions(api, authed *gin.RouterGroup, db *gorm.DB, jwter *auth.JWTer, pol user.AccountPolicy) {
	ezPublic := httpez.New(api)

	type signupOut struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	// 注册（学生 / 管理员共用一段流程，只差角色与口令校验）
	signup := func(role string) func(c *gin.Context, tx *gorm.DB, in *user.SignupInput) (signupOut, error) {
		return func(c *gin.Context, tx *gorm.DB, in *user.SignupInput) (signupOut, error) {
			email := strings.TrimSpace(strings.ToLower(in.Email))
			if err := pol.ValidateNewAccount(*in, role); err != nil {
				return signupOut{}, httpez.BadRequest(err.Error())
			}
			hash, err := utils.HashPassword(in.Password)
			if err != nil {
				return signupOut{}, httpez.BadRequest("password too long")
			}
			u := domain.User{
				ID:           utils.NewID(),
				Email:        email,
				Name:         strings.TrimSpace(in.Name),
				PasswordHash: hash,
				Role:         role,
				Department:   strings.TrimSpace(in.Department),
				Year:         strings.TrimSpace(in.Year),
				Interests:    user.NormalizeInterests(in.Interests),
			}
			if err := repo.NewUserRepo(tx).Create(&u); err != nil {
				if isDupKey(err) {
					return signupOut{}, httpez.Conflict("email already registered", nil)
				}
				return signupOut{}, httpez.Internal("signup failed", err)
			}
			// 验证邮件的投递在别处；账号先置为未验证
			return signupOut{ID: u.ID, Email: u.Email, Role: u.Role}, nil
		}
	}

	httpez.RegisterAction[user.SignupInput, signupOut](ezPublic, db, httpez.Action[user.SignupInput, signupOut]{
		Method:  http.MethodPost,
		Path:    "/auth/signup",
		Binder:  httpez.BindJSON,
		UseTx:   true,
		Handler: signup("user"),
	})
	httpez.RegisterAction[user.SignupInput, signupOut](ezPublic, db, httpez.Action[user.SignupInput, signupOut]{
		Method:  http.MethodPost,
		Path:    "/auth/signup/admin",
		Binder:  httpez.BindJSON,
		UseTx:   true,
		Handler: signup("admin"),
	})

	// 登录：校验密码并发 JWT（携带 verified 标记）
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string      `json:"token"`
		User  interface{} `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, db, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (loginOut, error) {
			email := strings.TrimSpace(strings.ToLower(in.Email))
			u, err := repo.NewUserRepo(tx).FindByEmail(email)
			if err != nil {
				return loginOut{}, httpez.Internal("db error", err)
			}
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return loginOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, err := jwter.Issue(u.ID, u.Role, u.Email, u.EmailVerified)
			if err != nil || tok == "" {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{
				Token: tok,
				User: gin.H{
					"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role,
					"emailVerified": u.EmailVerified, "profileComplete": u.ProfileComplete,
				},
			}, nil
		},
	})

	// 邮箱验证回执：凭密码确认本人后置位（邮件投递不在本服务内）
	type verifyIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction[verifyIn, gin.H](ezPublic, db, httpez.Action[verifyIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/verify",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *verifyIn) (gin.H, error) {
			email := strings.TrimSpace(strings.ToLower(in.Email))
			ur := repo.NewUserRepo(tx)
			u, err := ur.FindByEmail(email)
			if err != nil {
				return nil, httpez.Internal("db error", err)
			}
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return nil, httpez.Unauthorized("invalid credentials")
			}
			if !u.EmailVerified {
				if err := ur.SetEmailVerified(u.ID); err != nil {
					return nil, httpez.Internal("verify failed", err)
				}
			}
			return gin.H{"email": u.Email, "emailVerified": true}, nil
		},
	})

	// 鉴权分组
	ezAuth := httpez.New(authed)

	type meOut struct {
		ID              string `json:"id"`
		Email           string `json:"email"`
		Name            string `json:"name"`
		Role            string `json:"role"`
		Department      string `json:"department"`
		Year            string `json:"year"`
		Interests       string `json:"interests"`
		EmailVerified   bool   `json:"emailVerified"`
		ProfileComplete bool   `json:"profileComplete"`
	}
	httpez.RegisterAction[struct{}, meOut](ezAuth, db, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (meOut, error) {
			uid := c.GetString("userId")
			u, err := repo.NewUserRepo(tx).FindByID(uid)
			if err != nil {
				return meOut{}, httpez.Internal("db error", err)
			}
			if u == nil {
				return meOut{}, httpez.NotFound("user not found")
			}
			return meOut{
				ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
				Department: u.Department, Year: u.Year, Interests: u.Interests,
				EmailVerified: u.EmailVerified, ProfileComplete: u.ProfileComplete,
			}, nil
		},
	})

	// 完善资料
	type profileIn struct {
		Department string `json:"department" binding:"required,max=64"`
		Year       string `json:"year"       binding:"required,max=16"`
		Interests  string `json:"interests"  binding:"omitempty,max=255"`
	}
	httpez.RegisterAction[profileIn, gin.H](ezAuth, db, httpez.Action[profileIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/me/profile",
		Binder: httpez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *profileIn) (gin.H, error) {
			uid := c.GetString("userId")
			n, err := repo.NewUserRepo(tx).UpdateProfile(uid,
				strings.TrimSpace(in.Department),
				strings.TrimSpace(in.Year),
				user.NormalizeInterests(in.Interests))
			if err != nil {
				return nil, httpez.Internal("update profile failed", err)
			}
			if n == 0 {
				return nil, httpez.NotFound("user not found")
			}
			return gin.H{"id": uid, "profileComplete": true}, nil
		},
	})
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "unique failed")
}
