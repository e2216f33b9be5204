package domain

import "time"

// Registration 是 RSVP 台账的一条记录。事件字段冗余一份，
// 日历与列表页不必回表。生命周期只由 rsvp.Coordinator 写入。
type Registration struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	UserID  string `gorm:"size:36;index:idx_reg_slot;index:idx_reg_user_event" json:"userId"`
	EventID string `gorm:"size:36;index:idx_reg_user_event" json:"eventId"`

	EventTitle string `gorm:"size:128" json:"eventTitle"`
	Date       string `gorm:"size:10;index:idx_reg_slot" json:"date"`
	StartTime  string `gorm:"size:5;index:idx_reg_slot" json:"startTime"`
	EndTime    string `gorm:"size:5" json:"endTime"`
	Venue      string `gorm:"size:128" json:"venue"`

	RegisteredAt time.Time `json:"registeredAt"`
}

func (Registration) TableName() string { return "registrations" }
