package rsvp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-events-api/internal/domain"
)

// memLedger 内存台账，事务退化为直接回调（单测不需要真隔离）。
type memLedger struct {
	mu   sync.Mutex
	regs []domain.Registration

	findErr   error
	insertErr error
	deleteErr error
}

func (m *memLedger) FindBySlot(_ context.Context, userID, date, startTime string) ([]domain.Registration, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Registration
	for _, r := range m.regs {
		if r.UserID == userID && r.Date == date && r.StartTime == startTime {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLedger) FindByUserEvent(_ context.Context, userID, eventID string) ([]domain.Registration, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Registration
	for _, r := range m.regs {
		if r.UserID == userID && r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLedger) ListByUser(_ context.Context, userID string) ([]domain.Registration, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Registration
	for _, r := range m.regs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLedger) Insert(_ context.Context, reg *domain.Registration) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs = append(m.regs, *reg)
	return nil
}

func (m *memLedger) DeleteBySlot(_ context.Context, userID, date, startTime string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Registration
	var n int64
	for _, r := range m.regs {
		if r.UserID == userID && r.Date == date && r.StartTime == startTime {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.regs = kept
	return n, nil
}

func (m *memLedger) DeleteByUserEvent(_ context.Context, userID, eventID string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Registration
	var n int64
	for _, r := range m.regs {
		if r.UserID == userID && r.EventID == eventID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.regs = kept
	return n, nil
}

func (m *memLedger) InTx(_ context.Context, fn func(tx Ledger) error) error { return fn(m) }

func (m *memLedger) slotCount(userID, date, startTime string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.regs {
		if r.UserID == userID && r.Date == date && r.StartTime == startTime {
			n++
		}
	}
	return n
}

func newTestCoordinator(l Ledger, mode DuplicateMode) *Coordinator {
	return NewCoordinator(l, zap.NewNop(), Options{OnDuplicate: mode})
}

var (
	evA = domain.Event{
		ID: "ev-a", Title: "Tech Talk", Date: "2025-12-25",
		StartTime: "10:00", EndTime: "12:00", Venue: "Main Hall",
	}
	evB = domain.Event{
		ID: "ev-b", Title: "Robotics Demo", Date: "2025-12-25",
		StartTime: "10:00", EndTime: "11:00", Venue: "Lab 2",
	}
	snapU1 = domain.AuthSnapshot{UserID: "u1", Email: "alice1234567@ssn.edu.in", Role: "user", Verified: true}
	snapU2 = domain.AuthSnapshot{UserID: "u2", Email: "bob7654321@ssn.edu.in", Role: "user", Verified: true}
)

func TestCheckConflict_ExactSlotMatchOnly(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{}
	co := newTestCoordinator(ledger, DuplicateReject)
	ctx := context.Background()

	reg, err := co.Register(ctx, snapU1, evA, DecisionAsk)
	require.NoError(t, err)
	require.NotNil(t, reg)

	got, err := co.CheckConflict(ctx, "u1", "2025-12-25", "10:00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, reg.ID, got.ID)

	// 时段交叠但起点不同：不算冲突
	got, err = co.CheckConflict(ctx, "u1", "2025-12-25", "10:30")
	require.NoError(t, err)
	assert.Nil(t, got)

	// 冲突按用户隔离，不是全局的
	got, err = co.CheckConflict(ctx, "u2", "2025-12-25", "10:00")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCheckConflict_Validation(t *testing.T) {
	t.Parallel()

	co := newTestCoordinator(&memLedger{}, DuplicateReject)

	_, err := co.CheckConflict(context.Background(), "", "2025-12-25", "10:00")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = co.CheckConflict(context.Background(), "u1", "", "10:00")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = co.CheckConflict(context.Background(), "u1", "2025-12-25", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_Unauthenticated(t *testing.T) {
	t.Parallel()

	co := newTestCoordinator(&memLedger{}, DuplicateReject)
	_, err := co.Register(context.Background(), domain.AuthSnapshot{}, evA, DecisionAsk)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRegister_MissingEventFields(t *testing.T) {
	t.Parallel()

	co := newTestCoordinator(&memLedger{}, DuplicateReject)
	ctx := context.Background()

	_, err := co.Register(ctx, snapU1, domain.Event{Date: "2025-12-25", StartTime: "10:00"}, DecisionAsk)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = co.Register(ctx, snapU1, domain.Event{ID: "x", StartTime: "10:00"}, DecisionAsk)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_DenormalizesEventFields(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{}
	co := newTestCoordinator(ledger, DuplicateReject)

	reg, err := co.Register(context.Background(), snapU1, evA, DecisionAsk)
	require.NoError(t, err)
	assert.Equal(t, "u1", reg.UserID)
	assert.Equal(t, "ev-a", reg.EventID)
	assert.Equal(t, "Tech Talk", reg.EventTitle)
	assert.Equal(t, "2025-12-25", reg.Date)
	assert.Equal(t, "10:00", reg.StartTime)
	assert.Equal(t, "12:00", reg.EndTime)
	assert.Equal(t, "Main Hall", reg.Venue)
	assert.False(t, reg.RegisteredAt.IsZero())
}

func TestRegister_DefaultEndTime(t *testing.T) {
	t.Parallel()

	co := newTestCoordinator(&memLedger{}, DuplicateReject)
	ev := domain.Event{ID: "ev-x", Title: "Open Mic", Date: "2025-12-26", StartTime: "18:00"}

	reg, err := co.Register(context.Background(), snapU1, ev, DecisionAsk)
	require.NoError(t, err)
	assert.Equal(t, "12:00", reg.EndTime)
}

func TestRegister_ConflictReplaceFlow(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{}
	co := newTestCoordinator(ledger, DuplicateReject)
	ctx := context.Background()

	first, err := co.Register(ctx, snapU1, evA, DecisionAsk)
	require.NoError(t, err)

	// 另一个用户同时段不同活动：互不冲突
	_, err = co.Register(ctx, snapU2, evB, DecisionAsk)
	require.NoError(t, err)

	// u1 换一个同时段的活动：先拿到替换确认
	_, err = co.Register(ctx, snapU1, evB, DecisionAsk)
	var rr *domain.ReplaceRequiredError
	require.ErrorAs(t, err, &rr)
	assert.Equal(t, first.ID, rr.Existing.ID)
	assert.Equal(t, 1, ledger.slotCount("u1", "2025-12-25", "10:00"))

	// 确认后：旧记录删光，只剩指向新活动的一条
	reg, err := co.Register(ctx, snapU1, evB, DecisionConfirm)
	require.NoError(t, err)
	assert.Equal(t, "ev-b", reg.EventID)
	assert.Equal(t, 1, ledger.slotCount("u1", "2025-12-25", "10:00"))
	// u2 的记录不受影响
	assert.Equal(t, 1, ledger.slotCount("u2", "2025-12-25", "10:00"))
}

func TestRegister_DeclineHasNoSideEffects(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{}
	co := newTestCoordinator(ledger, DuplicateReject)
	ctx := context.Background()

	first, err := co.Register(ctx, snapU1, evA, DecisionAsk)
	require.NoError(t, err)

	_, err = co.Register(ctx, snapU1, evB, DecisionDecline)
	assert.ErrorIs(t, err, domain.ErrConflictDeclined)

	regs, err := co.MyRegistrations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, first.ID, regs[0].ID)
}

func TestRegister_ReplaceRemovesAllSlotDuplicates(t *testing.T) {
	t.Parallel()

	// 台账里预置了两条同时段记录（上游不保证唯一），替换必须删光
	ledger := &memLedger{regs: []domain.Registration{
		{ID: "r1", UserID: "u1", EventID: "old-1", Date: "2025-12-25", StartTime: "10:00"},
		{ID: "r2", UserID: "u1", EventID: "old-2", Date: "2025-12-25", StartTime: "10:00"},
	}}
	co := newTestCoordinator(ledger, DuplicateReject)

	reg, err := co.Register(context.Background(), snapU1, evA, DecisionConfirm)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.slotCount("u1", "2025-12-25", "10:00"))
	assert.Equal(t, reg.EventID, "ev-a")
}

func TestRegister_DuplicateModes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("reject", func(t *testing.T) {
		co := newTestCoordinator(&memLedger{}, DuplicateReject)
		_, err := co.Register(ctx, snapU1, evA, DecisionAsk)
		require.NoError(t, err)
		_, err = co.Register(ctx, snapU1, evA, DecisionAsk)
		assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)
	})

	t.Run("ignore", func(t *testing.T) {
		ledger := &memLedger{}
		co := newTestCoordinator(ledger, DuplicateIgnore)
		first, err := co.Register(ctx, snapU1, evA, DecisionAsk)
		require.NoError(t, err)
		second, err := co.Register(ctx, snapU1, evA, DecisionAsk)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, ledger.slotCount("u1", "2025-12-25", "10:00"))
	})

	t.Run("replace", func(t *testing.T) {
		ledger := &memLedger{}
		co := newTestCoordinator(ledger, DuplicateReplace)
		first, err := co.Register(ctx, snapU1, evA, DecisionAsk)
		require.NoError(t, err)
		second, err := co.Register(ctx, snapU1, evA, DecisionAsk)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 1, ledger.slotCount("u1", "2025-12-25", "10:00"))
	})
}

func TestCancel_Idempotent(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{}
	co := newTestCoordinator(ledger, DuplicateReject)
	ctx := context.Background()

	_, err := co.Register(ctx, snapU1, evA, DecisionAsk)
	require.NoError(t, err)

	n, err := co.Cancel(ctx, "u1", "ev-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// 再取消一次：删 0 条，不是错误
	n, err = co.Cancel(ctx, "u1", "ev-a")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestCancel_RemovesDuplicateEntries(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{regs: []domain.Registration{
		{ID: "r1", UserID: "u1", EventID: "ev-a", Date: "2025-12-25", StartTime: "10:00"},
		{ID: "r2", UserID: "u1", EventID: "ev-a", Date: "2025-12-25", StartTime: "10:00"},
	}}
	co := newTestCoordinator(ledger, DuplicateReject)

	n, err := co.Cancel(context.Background(), "u1", "ev-a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestStoreTimeoutSurfacedDistinctly(t *testing.T) {
	t.Parallel()

	ledger := &memLedger{findErr: context.DeadlineExceeded}
	co := newTestCoordinator(ledger, DuplicateReject)

	_, err := co.CheckConflict(context.Background(), "u1", "2025-12-25", "10:00")
	assert.ErrorIs(t, err, domain.ErrStoreTimeout)

	_, err = co.Register(context.Background(), snapU1, evA, DecisionAsk)
	assert.ErrorIs(t, err, domain.ErrStoreTimeout)
}

func TestStoreFailuresWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")

	ledger := &memLedger{findErr: boom}
	co := newTestCoordinator(ledger, DuplicateReject)
	_, err := co.CheckConflict(context.Background(), "u1", "2025-12-25", "10:00")
	assert.ErrorIs(t, err, domain.ErrReadFailed)
	assert.ErrorIs(t, err, boom)

	ledger = &memLedger{insertErr: boom}
	co = newTestCoordinator(ledger, DuplicateReject)
	_, err = co.Register(context.Background(), snapU1, evA, DecisionAsk)
	assert.ErrorIs(t, err, domain.ErrWriteFailed)
}

func TestMyRegistrations_MostRecentFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.Local)
	ledger := &memLedger{regs: []domain.Registration{
		{ID: "r1", UserID: "u1", EventID: "e1", RegisteredAt: base},
		{ID: "r2", UserID: "u1", EventID: "e2", RegisteredAt: base.Add(2 * time.Hour)},
		{ID: "r3", UserID: "u2", EventID: "e3", RegisteredAt: base.Add(time.Hour)},
	}}
	co := newTestCoordinator(ledger, DuplicateReject)

	regs, err := co.MyRegistrations(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "r2", regs[0].ID)
	assert.Equal(t, "r1", regs[1].ID)
}
