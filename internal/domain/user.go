package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:191" json:"email"`
	Name         string `gorm:"size:64" json:"name"`
	PasswordHash string `gorm:"size:191" json:"-"`
	Role         string `gorm:"size:16" json:"role"` // "user"/"admin"

	// 校园侧资料（完善资料页填写）
	Department string `gorm:"size:64" json:"department"`
	Year       string `gorm:"size:16" json:"year"`
	Interests  string `gorm:"size:255" json:"interests"` // 逗号分隔

	EmailVerified   bool `gorm:"default:false" json:"emailVerified"`
	ProfileComplete bool `gorm:"default:false" json:"profileComplete"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// AuthSnapshot 显式传入协调器的登录态快照（不做隐式全局查找）
type AuthSnapshot struct {
	UserID   string
	Email    string
	Role     string
	Verified bool
}

func (s AuthSnapshot) Authenticated() bool { return s.UserID != "" }
