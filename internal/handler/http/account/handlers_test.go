package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/handler/http/account"
	"feed-digest/internal/handler/http/auth"
	authservice "feed-digest/internal/service/auth"
	accountUC "feed-digest/internal/usecase/account"
)

/* ───────── モック実装 ───────── */

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*entity.User
	nextID int64
}

func (m *memUsers) Get(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return entity.ErrConflict
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePushTime(_ context.Context, id int64, pt *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return entity.ErrNotFound
	}
	u.PushTime = pt
	return nil
}

func (m *memUsers) UpdateFetchPeriod(_ context.Context, id int64, days int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return entity.ErrNotFound
	}
	u.FetchPeriodDays = days
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

// 以下は未使用だが、インターフェース満たすために実装
func (m *memUsers) ListWithPushTime(_ context.Context) ([]*entity.User, error) { return nil, nil }

type noopSubs struct{}

func (noopSubs) DeleteByUser(_ context.Context, _ int64) error { return nil }

// 以下は未使用だが、インターフェース満たすために実装
func (noopSubs) Get(_ context.Context, _ int64) (*entity.Subscription, error) { return nil, nil }
func (noopSubs) ListByUser(_ context.Context, _ int64) ([]*entity.Subscription, error) {
	return nil, nil
}
func (noopSubs) Create(_ context.Context, _ *entity.Subscription) error     { return nil }
func (noopSubs) UpdateFetchPeriod(_ context.Context, _ int64, _ *int) error { return nil }
func (noopSubs) Delete(_ context.Context, _ int64) error                    { return nil }

type noopLedger struct{}

func (noopLedger) DeleteByUser(_ context.Context, _ int64) error { return nil }

// 以下は未使用だが、インターフェース満たすために実装
func (noopLedger) ExistingGUIDs(_ context.Context, _, _ int64, _ []string) (map[string]bool, error) {
	return nil, nil
}
func (noopLedger) Record(_ context.Context, _ *entity.Summary) (bool, error) { return false, nil }
func (noopLedger) Clear(_ context.Context, _, _ int64) (int64, error)        { return 0, nil }
func (noopLedger) ListBySubscription(_ context.Context, _, _ int64, _ int) ([]*entity.Summary, error) {
	return nil, nil
}
func (noopLedger) DeleteBySubscription(_ context.Context, _ int64) error { return nil }

// stubScheduler persists the push time and tracks registered triggers.
type stubScheduler struct {
	users    *memUsers
	triggers map[int64]string
}

func (s *stubScheduler) Upsert(ctx context.Context, userID int64, pushTime string) error {
	if err := entity.ValidatePushTime(pushTime); err != nil {
		return err
	}
	if err := s.users.UpdatePushTime(ctx, userID, &pushTime); err != nil {
		return err
	}
	s.triggers[userID] = pushTime
	return nil
}

func (s *stubScheduler) Remove(ctx context.Context, userID int64) error {
	if err := s.users.UpdatePushTime(ctx, userID, nil); err != nil {
		return err
	}
	delete(s.triggers, userID)
	return nil
}

func (s *stubScheduler) Forget(userID int64) { delete(s.triggers, userID) }

/* ───────── ヘルパ ───────── */

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	mux   *http.ServeMux
	users *memUsers
	sched *stubScheduler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	tokens, err := authservice.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	users := &memUsers{byID: map[int64]*entity.User{}}
	sched := &stubScheduler{users: users, triggers: map[int64]string{}}
	svc := &accountUC.Service{
		Users:         users,
		Subscriptions: noopSubs{},
		Ledger:        noopLedger{},
		Scheduler:     sched,
		Tokens:        tokens,
		BcryptCost:    bcrypt.MinCost,
	}
	passthrough := func(h http.Handler) http.Handler { return h }

	mux := http.NewServeMux()
	account.Register(mux, svc, auth.Authz(tokens), passthrough)
	return &fixture{mux: mux, users: users, sched: sched}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

// signup registers and logs in, returning the bearer token.
func (f *fixture) signup(t *testing.T, email string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"correct-horse"}`
	rr := f.do(http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeSettings(t *testing.T, rr *httptest.ResponseRecorder) accountUC.Settings {
	t.Helper()
	var s accountUC.Settings
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return s
}

/* ───────── テスト ───────── */

func TestRegister(t *testing.T) {
	f := setup(t)
	rr := f.do(http.MethodPost, "/auth/register", "", `{"email":"Ada@Example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	got := decodeSettings(t, rr)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, entity.DefaultFetchPeriodDays, got.FetchPeriodDays)
	assert.Nil(t, got.PushTime)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed", `{"email":`, http.StatusBadRequest},
		{"bad email", `{"email":"nope","password":"correct-horse"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"short"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			rr := f.do(http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		f := setup(t)
		f.signup(t, "dup@example.com")
		rr := f.do(http.MethodPost, "/auth/register", "", `{"email":"dup@example.com","password":"correct-horse"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestLogin_WrongCredentials(t *testing.T) {
	f := setup(t)
	f.signup(t, "ada@example.com")

	for _, body := range []string{
		`{"email":"ada@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"correct-horse"}`,
	} {
		rr := f.do(http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, body)
		assert.NotContains(t, rr.Body.String(), "token")
	}

	rr := f.do(http.MethodPost, "/auth/login", "", `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	f := setup(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/me", "garbage", "").Code)
}

func TestPushTime(t *testing.T) {
	f := setup(t)
	token := f.signup(t, "ada@example.com")

	rr := f.do(http.MethodPut, "/me/push-time", token, `{"pushTime":"07:30"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decodeSettings(t, rr)
	require.NotNil(t, got.PushTime)
	assert.Equal(t, "07:30", *got.PushTime)
	assert.Equal(t, map[int64]string{got.ID: "07:30"}, f.sched.triggers)

	// 不正な値では既存のトリガーが残る
	for _, body := range []string{`{"pushTime":"7:30"}`, `{"pushTime":730}`, `{}`} {
		rr = f.do(http.MethodPut, "/me/push-time", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Equal(t, map[int64]string{got.ID: "07:30"}, f.sched.triggers)

	rr = f.do(http.MethodPut, "/me/push-time", token, `{"pushTime":null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeSettings(t, rr).PushTime)
	assert.Empty(t, f.sched.triggers)
}

func TestFetchPeriod(t *testing.T) {
	f := setup(t)
	token := f.signup(t, "ada@example.com")

	rr := f.do(http.MethodPut, "/me/fetch-period", token, `{"fetchPeriodDays":14}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 14, decodeSettings(t, rr).FetchPeriodDays)

	for _, body := range []string{`{"fetchPeriodDays":0}`, `{"fetchPeriodDays":31}`, `{}`} {
		rr = f.do(http.MethodPut, "/me/fetch-period", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}

	rr = f.do(http.MethodGet, "/me", token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 14, decodeSettings(t, rr).FetchPeriodDays)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	token := f.signup(t, "ada@example.com")
	require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/me/push-time", token, `{"pushTime":"06:00"}`).Code)

	rr := f.do(http.MethodDelete, "/me", token, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, f.users.byID)
	assert.Empty(t, f.sched.triggers)

	// トークンはまだ有効だがユーザーは存在しない
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/me", token, "").Code)
}
