package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"feed-digest/internal/domain/entity"
)

/* ───────── モック実装 ───────── */

// fakeUsers はUserRepositoryのインメモリ実装
type fakeUsers struct {
	users map[int64]*entity.User
	err   error
}

func (f *fakeUsers) Get(_ context.Context, id int64) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

// 以下は未使用だが、インターフェース満たすために実装
func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*entity.User, error) {
	return nil, nil
}
func (f *fakeUsers) ListWithPushTime(_ context.Context) ([]*entity.User, error) { return nil, nil }
func (f *fakeUsers) Create(_ context.Context, _ *entity.User) error             { return nil }
func (f *fakeUsers) UpdatePushTime(_ context.Context, _ int64, _ *string) error { return nil }
func (f *fakeUsers) UpdateFetchPeriod(_ context.Context, _ int64, _ int) error  { return nil }
func (f *fakeUsers) Delete(_ context.Context, _ int64) error                    { return nil }

// fakeSubs はSubscriptionRepositoryのインメモリ実装
type fakeSubs struct {
	subs    []*entity.Subscription
	listErr error
}

func (f *fakeSubs) ListByUser(_ context.Context, userID int64) ([]*entity.Subscription, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*entity.Subscription
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// 以下は未使用だが、インターフェース満たすために実装
func (f *fakeSubs) Get(_ context.Context, _ int64) (*entity.Subscription, error) { return nil, nil }
func (f *fakeSubs) Create(_ context.Context, _ *entity.Subscription) error       { return nil }
func (f *fakeSubs) UpdateFetchPeriod(_ context.Context, _ int64, _ *int) error   { return nil }
func (f *fakeSubs) Delete(_ context.Context, _ int64) error                      { return nil }
func (f *fakeSubs) DeleteByUser(_ context.Context, _ int64) error                { return nil }

type ledgerKey struct {
	guid   string
	userID int64
	subID  int64
}

// fakeLedger はSummaryRepositoryのインメモリ実装（一意制約付き）
type fakeLedger struct {
	mu        sync.Mutex
	rows      map[ledgerKey]entity.Summary
	nextID    int64
	existsErr error
	recordErr map[string]error // guid -> error
	// preempt はExistingGUIDsの後で他のランが書き込んだ状態を再現する
	preempt map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[ledgerKey]entity.Summary)}
}

func (f *fakeLedger) ExistingGUIDs(_ context.Context, subID, userID int64, guids []string) (map[string]bool, error) {
	if f.existsErr != nil {
		return nil, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool)
	for _, g := range guids {
		if _, ok := f.rows[ledgerKey{g, userID, subID}]; ok {
			out[g] = true
		}
	}
	return out, nil
}

func (f *fakeLedger) Record(_ context.Context, s *entity.Summary) (bool, error) {
	if err := f.recordErr[s.ArticleGUID]; err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.preempt[s.ArticleGUID] {
		return false, nil
	}
	key := ledgerKey{s.ArticleGUID, s.UserID, s.SubscriptionID}
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now()
	f.rows[key] = *s
	return true, nil
}

func (f *fakeLedger) Clear(_ context.Context, subID, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.rows {
		if k.subID == subID && k.userID == userID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// 以下は未使用だが、インターフェース満たすために実装
func (f *fakeLedger) ListBySubscription(_ context.Context, _, _ int64, _ int) ([]*entity.Summary, error) {
	return nil, nil
}
func (f *fakeLedger) DeleteBySubscription(_ context.Context, _ int64) error { return nil }
func (f *fakeLedger) DeleteByUser(_ context.Context, _ int64) error         { return nil }

// fakeFeeds はURLごとに固定のアイテムを返す
type fakeFeeds struct {
	items map[string][]entity.FeedItem
	errs  map[string]error
	calls atomic.Int32
}

func (f *fakeFeeds) Fetch(_ context.Context, url string) ([]entity.FeedItem, error) {
	f.calls.Add(1)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	items, ok := f.items[url]
	if !ok {
		return nil, fmt.Errorf("no such feed %q", url)
	}
	return items, nil
}

// fakeSummarizer はタイトルから決定的な要約を作る
type fakeSummarizer struct {
	failTitles map[string]error
	delay      time.Duration
	calls      atomic.Int32
	inFlight   atomic.Int32
	maxFlight  atomic.Int32
	lastText   sync.Map // title -> text
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, text string) (string, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxFlight.Load()
		if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	f.lastText.Store(title, text)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := f.failTitles[title]; err != nil {
		return "", err
	}
	return "summary of " + title, nil
}

// fakeNotifier は送信内容を記録する
type fakeNotifier struct {
	mu     sync.Mutex
	err    error
	titles []string
	bodies []string
	ctxErr error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(ctx context.Context, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	f.ctxErr = ctx.Err()
	return f.err
}

func (f *fakeNotifier) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

// fakeContent は記事本文取得のモック
type fakeContent struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeContent) FetchContent(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

var errBoom = errors.New("boom")
