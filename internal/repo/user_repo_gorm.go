package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"campus-events-api/internal/domain"
)

// UserRepo 账号存取。动作处理器在事务内用 NewUserRepo(tx) 构造，
// 读写自动落在同一个事务里。
type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(u *domain.User) error { return r.db.Create(u).Error }

func (r *UserRepo) FindByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

// Search 管理端列表：email/name 模糊搜，withDeleted 把被封禁的也带出来。
func (r *UserRepo) Search(q string, withDeleted bool, offset, limit int) ([]domain.User, int64, error) {
	tx := r.db.Model(&domain.User{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) SetEmailVerified(id string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Update("email_verified", true).Error
}

// UpdateProfile 完善资料并置 profile_complete；返回命中行数。
func (r *UserRepo) UpdateProfile(id, department, year, interests string) (int64, error) {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"department":       department,
		"year":             year,
		"interests":        interests,
		"profile_complete": true,
	})
	return res.RowsAffected, res.Error
}

// SoftDelete 封禁（gorm 软删）；返回命中行数，0 表示账号不存在。
func (r *UserRepo) SoftDelete(id string) (int64, error) {
	res := r.db.Where("id = ?", id).Delete(&domain.User{})
	return res.RowsAffected, res.Error
}
