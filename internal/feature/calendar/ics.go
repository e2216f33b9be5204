package calendar

import (
	ics "github.com/arran4/golang-ical"

	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/rsvp"
)

// Build 把用户的报名记录导出成 iCalendar 文本（VCALENDAR）。
// 纯格式化：date+startTime/endTime 组成本地时间，venue 作为 LOCATION。
// 时间缺失或格式坏掉的记录跳过，不让一条脏数据毁掉整份日历。
func Build(regs []domain.Registration) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, reg := range regs {
		ev := domain.Event{Date: reg.Date, StartTime: reg.StartTime, EndTime: reg.EndTime}
		start, end, ok := rsvp.EventWindow(ev)
		if !ok {
			continue
		}
		e := cal.AddEvent(reg.ID)
		e.SetCreatedTime(reg.RegisteredAt)
		e.SetDtStampTime(reg.RegisteredAt)
		e.SetStartAt(start)
		e.SetEndAt(end)
		e.SetSummary(reg.EventTitle)
		if reg.Venue != "" {
			e.SetLocation(reg.Venue)
		}
	}
	return cal.Serialize()
}

// ContentType 是 .ics 响应头的 MIME 类型。
const ContentType = "text/calendar; charset=utf-8"
