package user

import (
	"regexp"
	"strings"

	"campus-events-api/internal/domain"
)

// 校内邮箱：姓名 + 7 位学号 @ssn.edu.in
const DefaultEmailPattern = `^[a-zA-Z]+[0-9]{7}@ssn\.edu\.in$`

// SignupInput 注册表单。Interests 逗号分隔，入库前规整。
type SignupInput struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required,min=6"`
	Name       string `json:"name" binding:"required,max=64"`
	Department string `json:"department" binding:"required,max=64"`
	Year       string `json:"year" binding:"required,max=16"`
	Interests  string `json:"interests" binding:"omitempty,max=255"`
	AdminKey   string `json:"adminKey"` // 仅管理员注册需要
}

// AccountPolicy 在建号前把关；校验策略可插拔，核心流程不关心规则细节。
type AccountPolicy interface {
	ValidateNewAccount(in SignupInput, role string) error
}

// CampusPolicy 按校内规则把关：邮箱模式 + 管理员口令。
type CampusPolicy struct {
	emailRe  *regexp.Regexp
	adminKey string
}

func NewCampusPolicy(emailPattern, adminKey string) (*CampusPolicy, error) {
	if emailPattern == "" {
		emailPattern = DefaultEmailPattern
	}
	re, err := regexp.Compile(emailPattern)
	if err != nil {
		return nil, err
	}
	return &CampusPolicy{emailRe: re, adminKey: adminKey}, nil
}

func (p *CampusPolicy) ValidateNewAccount(in SignupInput, role string) error {
	email := strings.TrimSpace(in.Email)
	if !p.emailRe.MatchString(email) {
		return domain.Validationf("only campus email IDs are allowed")
	}
	if role == "admin" {
		if p.adminKey == "" || in.AdminKey != p.adminKey {
			return domain.Validationf("invalid admin key")
		}
	}
	return nil
}

// NormalizeInterests 去掉空项和多余空白："ai, robotics ,," → "ai,robotics"
func NormalizeInterests(raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ",")
}
