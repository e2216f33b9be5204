package domain

import "time"

// Event 由管理员创建后不可变；date/时间沿用表单字符串格式，
// 解析与状态推导在 rsvp 包内完成。
type Event struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Title       string `gorm:"size:128;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:32;index" json:"category"`
	SubCategory string `gorm:"size:32" json:"subCategory"`
	Venue       string `gorm:"size:128" json:"venue"`

	Date      string `gorm:"size:10;index" json:"date"`     // "2006-01-02"
	StartTime string `gorm:"size:5" json:"startTime"`       // "15:04"
	EndTime   string `gorm:"size:5" json:"endTime"`         // "15:04"
	PosterURL string `gorm:"size:512" json:"posterUrl"`
	CreatedBy string `gorm:"size:64" json:"createdBy"`      // 主办社团

	CreatedAt time.Time `json:"createdAt"`
}

func (Event) TableName() string { return "events" }

type EventRepository interface {
	Create(ev *Event) error
	FindByID(id string) (*Event, error)
	List() ([]Event, error)
}
