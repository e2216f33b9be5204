package rsvp

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"campus-events-api/internal/domain"
	"campus-events-api/pkg/utils"
)

// Ledger 是 RSVP 台账的窄接口，repo 层用 gorm 实现。
// InTx 内拿到的 Ledger 共享同一个事务。
type Ledger interface {
	FindBySlot(ctx context.Context, userID, date, startTime string) ([]domain.Registration, error)
	FindByUserEvent(ctx context.Context, userID, eventID string) ([]domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Registration, error)
	Insert(ctx context.Context, reg *domain.Registration) error
	DeleteBySlot(ctx context.Context, userID, date, startTime string) (int64, error)
	DeleteByUserEvent(ctx context.Context, userID, eventID string) (int64, error)
	InTx(ctx context.Context, fn func(tx Ledger) error) error
}

// DuplicateMode 控制对同一活动重复报名的处理。
type DuplicateMode string

const (
	DuplicateReject  DuplicateMode = "reject"
	DuplicateIgnore  DuplicateMode = "ignore"
	DuplicateReplace DuplicateMode = "replace"
)

func ParseDuplicateMode(s string) DuplicateMode {
	switch DuplicateMode(s) {
	case DuplicateIgnore, DuplicateReplace:
		return DuplicateMode(s)
	default:
		return DuplicateReject
	}
}

// ReplaceDecision 是“同一时段已有报名，是否替换”的用户答复。
type ReplaceDecision int

const (
	DecisionAsk     ReplaceDecision = iota // 还没问过：有冲突就带着旧记录返回
	DecisionDecline                        // 用户拒绝：放弃，无副作用
	DecisionConfirm                        // 用户确认：删掉旧记录再写新记录
)

// Coordinator 把关一个 (user, event) 的报名变更：
// 时段冲突检测、替换/取消语义，以及时间相关状态推导。
type Coordinator struct {
	ledger       Ledger
	log          *zap.Logger
	storeTimeout time.Duration
	onDuplicate  DuplicateMode
	now          func() time.Time
}

type Options struct {
	StoreTimeout time.Duration // 每次存储往返的超时，0 用默认 5s
	OnDuplicate  DuplicateMode
	Now          func() time.Time // 测试注入
}

func NewCoordinator(ledger Ledger, log *zap.Logger, opt Options) *Coordinator {
	if opt.StoreTimeout <= 0 {
		opt.StoreTimeout = 5 * time.Second
	}
	if opt.OnDuplicate == "" {
		opt.OnDuplicate = DuplicateReject
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		ledger:       ledger,
		log:          log,
		storeTimeout: opt.StoreTimeout,
		onDuplicate:  opt.OnDuplicate,
		now:          opt.Now,
	}
}

// CheckConflict 精确匹配 (userID, date, startTime)，返回第一条命中。
// 只看起点是否相同：时段交叠但起点不同的不算冲突。
func (c *Coordinator) CheckConflict(ctx context.Context, userID, date, startTime string) (*domain.Registration, error) {
	if userID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if date == "" || startTime == "" {
		return nil, domain.Validationf("date and startTime are required")
	}
	tctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	regs, err := c.ledger.FindBySlot(tctx, userID, date, startTime)
	if err != nil {
		return nil, c.storeErr(err, domain.ErrReadFailed)
	}
	if len(regs) == 0 {
		return nil, nil
	}
	return &regs[0], nil
}

// Register 执行报名。检查、删除、插入在同一个台账事务里完成，
// 两个并发请求不会给同一时段留下两条记录。
//
// 成功后该用户在 (date, startTime) 时段恰好有一条报名。
func (c *Coordinator) Register(ctx context.Context, snap domain.AuthSnapshot, ev domain.Event, decision ReplaceDecision) (*domain.Registration, error) {
	if !snap.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if ev.ID == "" {
		return nil, domain.Validationf("event id is required")
	}
	if ev.Date == "" || ev.StartTime == "" {
		return nil, domain.Validationf("event date and startTime are required")
	}
	endTime := ev.EndTime
	if endTime == "" {
		endTime = defaultEndTime
	}

	tctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	var out *domain.Registration
	err := c.ledger.InTx(tctx, func(tx Ledger) error {
		// 同一活动重复报名，按配置处理
		dups, err := tx.FindByUserEvent(tctx, snap.UserID, ev.ID)
		if err != nil {
			return c.storeErr(err, domain.ErrReadFailed)
		}
		if len(dups) > 0 {
			switch c.onDuplicate {
			case DuplicateIgnore:
				out = &dups[0]
				return nil
			case DuplicateReplace:
				if _, err := tx.DeleteByUserEvent(tctx, snap.UserID, ev.ID); err != nil {
					return c.storeErr(err, domain.ErrWriteFailed)
				}
			default:
				return domain.ErrDuplicateRegistration
			}
		}

		// 时段冲突：同 user + 同 date + 同 startTime
		conflicts, err := tx.FindBySlot(tctx, snap.UserID, ev.Date, ev.StartTime)
		if err != nil {
			return c.storeErr(err, domain.ErrReadFailed)
		}
		if len(conflicts) > 0 {
			switch decision {
			case DecisionDecline:
				return domain.ErrConflictDeclined
			case DecisionConfirm:
				// 台账本身不保证唯一，必须删光同时段的所有记录
				n, err := tx.DeleteBySlot(tctx, snap.UserID, ev.Date, ev.StartTime)
				if err != nil {
					return c.storeErr(err, domain.ErrWriteFailed)
				}
				c.log.Info("replacing conflicting registration",
					zap.String("user_id", snap.UserID),
					zap.String("date", ev.Date),
					zap.String("start_time", ev.StartTime),
					zap.Int64("removed", n),
				)
			default:
				return &domain.ReplaceRequiredError{Existing: &conflicts[0]}
			}
		}

		reg := &domain.Registration{
			ID:           utils.NewID(),
			UserID:       snap.UserID,
			EventID:      ev.ID,
			EventTitle:   ev.Title,
			Date:         ev.Date,
			StartTime:    ev.StartTime,
			EndTime:      endTime,
			Venue:        ev.Venue,
			RegisteredAt: c.now(),
		}
		if err := tx.Insert(tctx, reg); err != nil {
			return c.storeErr(err, domain.ErrWriteFailed)
		}
		out = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel 删除该用户对该活动的所有报名记录，返回删除条数。
// 没有记录不算错误，删 0 条即是。
func (c *Coordinator) Cancel(ctx context.Context, userID, eventID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrUnauthenticated
	}
	if eventID == "" {
		return 0, domain.Validationf("event id is required")
	}
	tctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	n, err := c.ledger.DeleteByUserEvent(tctx, userID, eventID)
	if err != nil {
		return 0, c.storeErr(err, domain.ErrWriteFailed)
	}
	return n, nil
}

// MyRegistrations 按报名时间倒序返回该用户的所有记录。
func (c *Coordinator) MyRegistrations(ctx context.Context, userID string) ([]domain.Registration, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	tctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	regs, err := c.ledger.ListByUser(tctx, userID)
	if err != nil {
		return nil, c.storeErr(err, domain.ErrReadFailed)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].RegisteredAt.After(regs[j].RegisteredAt) })
	return regs, nil
}

// storeErr 把超时和普通存储故障区分开，挂接上对应的错误族。
func (c *Coordinator) storeErr(err error, kind error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreTimeout
	}
	return errors.Join(kind, err)
}
