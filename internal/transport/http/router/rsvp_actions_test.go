package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events-api/internal/core/auth"
	"campus-events-api/internal/domain"
	"campus-events-api/internal/feature/event"
	"campus-events-api/internal/feature/rsvp"
	resp "campus-events-api/internal/transport/http/response"
)

// ---------- 测试替身 ----------

type fakeLedger struct {
	mu   sync.Mutex
	regs []domain.Registration
}

func (f *fakeLedger) FindBySlot(_ context.Context, userID, date, startTime string) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Registration
	for _, r := range f.regs {
		if r.UserID == userID && r.Date == date && r.StartTime == startTime {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) FindByUserEvent(_ context.Context, userID, eventID string) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Registration
	for _, r := range f.regs {
		if r.UserID == userID && r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID string) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Registration
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) Insert(_ context.Context, reg *domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *fakeLedger) DeleteBySlot(_ context.Context, userID, date, startTime string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Registration
	var n int64
	for _, r := range f.regs {
		if r.UserID == userID && r.Date == date && r.StartTime == startTime {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.regs = kept
	return n, nil
}

func (f *fakeLedger) DeleteByUserEvent(_ context.Context, userID, eventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Registration
	var n int64
	for _, r := range f.regs {
		if r.UserID == userID && r.EventID == eventID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.regs = kept
	return n, nil
}

func (f *fakeLedger) InTx(_ context.Context, fn func(tx rsvp.Ledger) error) error { return fn(f) }

type fakeEvents struct{ events []domain.Event }

func (f *fakeEvents) Create(ev *domain.Event) error { f.events = append(f.events, *ev); return nil }

func (f *fakeEvents) FindByID(id string) (*domain.Event, error) {
	for _, ev := range f.events {
		if ev.ID == id {
			out := ev
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeEvents) List() ([]domain.Event, error) {
	return append([]domain.Event(nil), f.events...), nil
}

// stubAuth 模拟 AuthJWT 写入的登录态。
func stubAuth(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid != "" {
			c.Set("claims", &auth.Claims{UID: uid, Email: uid + "1234567@ssn.edu.in", Role: "user", Verified: true})
			c.Set("userId", uid)
			c.Set("role", "user")
		}
		c.Next()
	}
}

func newRSVPTestServer(t *testing.T, uid string) (*gin.Engine, *fakeLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := &fakeLedger{}
	co := rsvp.NewCoordinator(ledger, nil, rsvp.Options{})
	cat := event.NewCatalog(&fakeEvents{events: []domain.Event{
		{ID: "ev-a", Title: "Tech Talk", Date: "2025-12-25", StartTime: "10:00", EndTime: "12:00", Venue: "Main Hall"},
		{ID: "ev-b", Title: "Robotics Demo", Date: "2025-12-25", StartTime: "10:00", EndTime: "11:00", Venue: "Lab 2"},
	}}, nil, 0, nil)

	r := gin.New()
	authed := r.Group("/api/v1", stubAuth(uid))
	mountRSVPActions(authed, co, cat)
	return r, ledger
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, r *gin.Engine, method, path, body string) envelope {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// ---------- 用例 ----------

func TestRSVP_RegisterAndList(t *testing.T) {
	r, ledger := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	var reg domain.Registration
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	assert.Equal(t, "ev-a", reg.EventID)
	assert.Equal(t, "Tech Talk", reg.EventTitle)
	assert.Len(t, ledger.regs, 1)

	env = do(t, r, http.MethodGet, "/api/v1/me/registrations", "")
	require.Equal(t, resp.CodeOK, env.Code)
	var list struct {
		Items []domain.Registration `json:"items"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}

func TestRSVP_ConflictThenReplace(t *testing.T) {
	r, ledger := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	// 同时段另一活动：第一次请求拿到 409 和旧报名
	env = do(t, r, http.MethodPost, "/api/v1/events/ev-b/rsvp", "")
	require.Equal(t, resp.CodeConflict, env.Code)
	var payload struct {
		Conflict domain.Registration `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "ev-a", payload.Conflict.EventID)
	assert.Len(t, ledger.regs, 1)

	// 明确拒绝：无副作用
	env = do(t, r, http.MethodPost, "/api/v1/events/ev-b/rsvp", `{"replace":false}`)
	assert.Equal(t, resp.CodeConflict, env.Code)
	assert.Len(t, ledger.regs, 1)
	assert.Equal(t, "ev-a", ledger.regs[0].EventID)

	// 确认替换：旧记录删掉，只剩新活动一条
	env = do(t, r, http.MethodPost, "/api/v1/events/ev-b/rsvp", `{"replace":true}`)
	require.Equal(t, resp.CodeOK, env.Code)
	require.Len(t, ledger.regs, 1)
	assert.Equal(t, "ev-b", ledger.regs[0].EventID)
}

func TestRSVP_DuplicateEventRejected(t *testing.T) {
	r, _ := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	env = do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	assert.Equal(t, resp.CodeConflict, env.Code)
	assert.Contains(t, env.Msg, "already registered")
}

func TestRSVP_UnknownEvent(t *testing.T) {
	r, _ := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/missing/rsvp", "")
	assert.Equal(t, resp.CodeNotFound, env.Code)
}

func TestRSVP_Unauthenticated(t *testing.T) {
	r, _ := newRSVPTestServer(t, "")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	assert.Equal(t, resp.CodeUnauthorized, env.Code)
}

func TestRSVP_CancelIdempotent(t *testing.T) {
	r, _ := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	env = do(t, r, http.MethodDelete, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)
	var out struct {
		Removed int64 `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.EqualValues(t, 1, out.Removed)

	env = do(t, r, http.MethodDelete, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.EqualValues(t, 0, out.Removed)
}

func TestRSVP_ConflictProbe(t *testing.T) {
	r, _ := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodGet, "/api/v1/me/conflict?date=2025-12-25&startTime=10:00", "")
	require.Equal(t, resp.CodeOK, env.Code)
	var probe struct {
		Conflict *domain.Registration `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &probe))
	assert.Nil(t, probe.Conflict)

	env = do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	env = do(t, r, http.MethodGet, "/api/v1/me/conflict?date=2025-12-25&startTime=10:00", "")
	require.Equal(t, resp.CodeOK, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &probe))
	require.NotNil(t, probe.Conflict)
	assert.Equal(t, "ev-a", probe.Conflict.EventID)

	// 缺参数按校验错误处理
	env = do(t, r, http.MethodGet, "/api/v1/me/conflict?date=2025-12-25", "")
	assert.Equal(t, resp.CodeBadRequest, env.Code)
}

func TestRSVP_CalendarExport(t *testing.T) {
	r, _ := newRSVPTestServer(t, "u1")

	env := do(t, r, http.MethodPost, "/api/v1/events/ev-a/rsvp", "")
	require.Equal(t, resp.CodeOK, env.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/calendar.ics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "my-events.ics")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:Tech Talk")
}
