package repo

import (
	"errors"

	"gorm.io/gorm"

	"campus-events-api/internal/domain"
)

type EventRepo struct{ db *gorm.DB }

func NewEventRepo(db *gorm.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Create(ev *domain.Event) error { return r.db.Create(ev).Error }

func (r *EventRepo) FindByID(id string) (*domain.Event, error) {
	var ev domain.Event
	err := r.db.First(&ev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ev, err
}

// List 按活动日期升序，对齐目录页的默认排序。
func (r *EventRepo) List() ([]domain.Event, error) {
	var evs []domain.Event
	err := r.db.Order("date asc, start_time asc").Find(&evs).Error
	return evs, err
}
