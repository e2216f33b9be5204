package event

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-events-api/internal/core/cache"
	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/rsvp"
)

const catalogKey = "events:catalog"

// View 是目录页的一条：活动本体加上推导出的时间状态。
type View struct {
	domain.Event
	Status       rsvp.StatusInfo `json:"status"`
	UpcomingSoon bool            `json:"upcomingSoon"`
}

// Catalog 枚举/过滤活动，喂给展示层；不含任何报名决策逻辑。
// 列表走 redis 读穿缓存（短 TTL，替代源里的实时订阅）；cache 为 nil 时直连仓库。
type Catalog struct {
	repo  domain.EventRepository
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewCatalog(repo domain.EventRepository, c *cache.Cache, ttl time.Duration, log *zap.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{repo: repo, cache: c, ttl: ttl, log: log, now: time.Now}
}

// List 返回按日期升序的活动视图；q 匹配标题子串，category 精确匹配（"All"/"" 不过滤）。
func (s *Catalog) List(ctx context.Context, q, category string) ([]View, error) {
	evs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]View, 0, len(evs))
	for _, ev := range evs {
		if q != "" && !strings.Contains(strings.ToLower(ev.Title), q) {
			continue
		}
		if category != "" && category != "All" && ev.Category != category {
			continue
		}
		out = append(out, View{
			Event:        ev,
			Status:       rsvp.ComputeEventStatus(ev, now),
			UpcomingSoon: rsvp.IsUpcomingSoon(ev, now),
		})
	}
	return out, nil
}

func (s *Catalog) Get(ctx context.Context, id string) (*View, error) {
	ev, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	now := s.now()
	return &View{
		Event:        *ev,
		Status:       rsvp.ComputeEventStatus(*ev, now),
		UpcomingSoon: rsvp.IsUpcomingSoon(*ev, now),
	}, nil
}

// Create 管理员建活动；写入后目录缓存立即失效。
func (s *Catalog) Create(ctx context.Context, ev *domain.Event) error {
	if ev.Title == "" || ev.Date == "" || ev.StartTime == "" || ev.EndTime == "" {
		return domain.Validationf("title, date, startTime and endTime are required")
	}
	if _, _, ok := rsvp.EventWindow(*ev); !ok {
		return domain.Validationf("date must be 2006-01-02 and times 15:04")
	}
	if err := s.repo.Create(ev); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, catalogKey)
	}
	s.log.Info("event created", zap.String("event_id", ev.ID), zap.String("title", ev.Title))
	return nil
}

func (s *Catalog) load(ctx context.Context) ([]domain.Event, error) {
	if s.cache == nil {
		return s.repo.List()
	}
	evs, err := cache.GetOrLoadJSON[[]domain.Event](s.cache, ctx, catalogKey, s.ttl,
		func(ctx context.Context) (*[]domain.Event, error) {
			list, e := s.repo.List()
			if e != nil {
				return nil, e
			}
			return &list, nil
		})
	if err != nil {
		return nil, err
	}
	if evs == nil {
		return nil, nil
	}
	return *evs, nil
}
