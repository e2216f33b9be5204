package repo

import (
	"context"

	"gorm.io/gorm"

	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/rsvp"
)

// RegistrationRepo 实现 rsvp.Ledger。InTx 里返回的仓库
// 绑定到同一个 gorm 事务，冲突检查和写入因此是原子的。
type RegistrationRepo struct{ db *gorm.DB }

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

func (r *RegistrationRepo) FindBySlot(ctx context.Context, userID, date, startTime string) ([]domain.Registration, error) {
	var regs []domain.Registration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND start_time = ?", userID, date, startTime).
		Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepo) FindByUserEvent(ctx context.Context, userID, eventID string) ([]domain.Registration, error) {
	var regs []domain.Registration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	var regs []domain.Registration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registered_at desc").
		Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	var regs []domain.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at desc").
		Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepo) Insert(ctx context.Context, reg *domain.Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *RegistrationRepo) DeleteBySlot(ctx context.Context, userID, date, startTime string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND start_time = ?", userID, date, startTime).
		Delete(&domain.Registration{})
	return res.RowsAffected, res.Error
}

func (r *RegistrationRepo) DeleteByUserEvent(ctx context.Context, userID, eventID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&domain.Registration{})
	return res.RowsAffected, res.Error
}

func (r *RegistrationRepo) InTx(ctx context.Context, fn func(tx rsvp.Ledger) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RegistrationRepo{db: tx})
	})
}
