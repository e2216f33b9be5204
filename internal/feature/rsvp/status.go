package rsvp

import (
	"fmt"
	"time"

	"campus-events-api/internal/domain"
)

type StatusCategory string

const (
	StatusUpcoming StatusCategory = "Upcoming"
	StatusOngoing  StatusCategory = "Ongoing"
	StatusEnded    StatusCategory = "Ended"
	StatusUnknown  StatusCategory = "Unknown"
)

type StatusInfo struct {
	Category StatusCategory `json:"category"`
	Label    string         `json:"label"`
}

// 活动没填时间时的兜底时段
const (
	defaultStartTime = "10:00"
	defaultEndTime   = "12:00"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// EventWindow 把 date+startTime/endTime 组合成本地时间的起止点。
// 缺省时间用 10:00–12:00 补齐；date 缺失或格式坏掉返回 ok=false。
func EventWindow(ev domain.Event) (start, end time.Time, ok bool) {
	if ev.Date == "" {
		return time.Time{}, time.Time{}, false
	}
	st := ev.StartTime
	if st == "" {
		st = defaultStartTime
	}
	et := ev.EndTime
	if et == "" {
		et = defaultEndTime
	}
	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, ev.Date+" "+st, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.ParseInLocation(dateLayout+" "+timeLayout, ev.Date+" "+et, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ComputeEventStatus 是 now 的纯函数：调用方传入当前时间，便于测试。
// 分类只会沿 Upcoming → Ongoing → Ended 单向推进。
func ComputeEventStatus(ev domain.Event, now time.Time) StatusInfo {
	start, end, ok := EventWindow(ev)
	if !ok {
		return StatusInfo{Category: StatusUnknown, Label: "Date TBA"}
	}
	switch {
	case now.Before(start):
		return StatusInfo{Category: StatusUpcoming, Label: "Starts in " + formatCountdown(start.Sub(now))}
	case now.After(end):
		return StatusInfo{Category: StatusEnded, Label: "Ended"}
	default:
		return StatusInfo{Category: StatusOngoing, Label: "Happening now"}
	}
}

// IsUpcomingSoon 用于提醒横幅：开场前 24 小时以内（不含已开始）。
func IsUpcomingSoon(ev domain.Event, now time.Time) bool {
	start, _, ok := EventWindow(ev)
	if !ok {
		return false
	}
	until := start.Sub(now)
	return until > 0 && until <= 24*time.Hour
}

// formatCountdown 取最粗的两级非零单位，随时间推进单调递减，
// 到 start 恰好归零（此刻分类已切到 Ongoing）。
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	mins := int(d / time.Minute)
	secs := int((d - time.Duration(mins)*time.Minute) / time.Second)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
