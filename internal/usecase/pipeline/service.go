package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/observability/metrics"
	"feed-digest/internal/observability/tracing"
	"feed-digest/internal/repository"
)

// Config holds the tunables of a run.
type Config struct {
	// SummarizeParallelism bounds concurrent summarizer calls within one
	// subscription. Default 5.
	SummarizeParallelism int
	// ContentFetchThreshold is the plain-text length (runes) below which the
	// article page is fetched to enrich the feed body. Ignored without a
	// ContentFetcher.
	ContentFetchThreshold int
	// DigestTitle is the push title.
	DigestTitle string
	// NotifyTimeout bounds the single notifier call.
	NotifyTimeout time.Duration
}

// DefaultConfig returns the defaults used when a field is zero.
func DefaultConfig() Config {
	return Config{
		SummarizeParallelism:  5,
		ContentFetchThreshold: 200,
		DigestTitle:           DefaultDigestTitle,
		NotifyTimeout:         30 * time.Second,
	}
}

// Stats are the counts reported for a run.
type Stats struct {
	// TotalArticles is the number of items inside the lookback window
	// across all successfully fetched subscriptions.
	TotalArticles int `json:"totalArticles"`
	// ProcessedArticles is the number of new ledger entries written.
	ProcessedArticles   int `json:"processedArticles"`
	AlreadySeen         int `json:"alreadySeen"`
	FailedSubscriptions int `json:"failedSubscriptions"`
	FailedSummaries     int `json:"failedSummaries"`
	Conflicts           int `json:"conflicts"`
}

// RunResult is returned to synchronous callers.
type RunResult struct {
	UserID       int64
	NewSummaries []entity.Summary
	Stats        Stats
	// Notified is true when a digest was sent and accepted.
	Notified bool
	Duration time.Duration
}

// Service runs the digest pipeline. Runs for different users, and
// overlapping runs for the same user, may execute concurrently; the ledger's
// conflict-as-no-op insert is the only coordination between them.
type Service struct {
	Users          repository.UserRepository
	Subscriptions  repository.SubscriptionRepository
	Ledger         repository.SummaryRepository
	Fetcher        FeedFetcher
	Summarizer     Summarizer
	Notifier       Notifier
	ContentFetcher ContentFetcher // optional

	cfg Config
	now func() time.Time
}

// NewService wires a pipeline. contentFetcher may be nil.
func NewService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	ledger repository.SummaryRepository,
	fetcher FeedFetcher,
	summarizer Summarizer,
	notifier Notifier,
	contentFetcher ContentFetcher,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.SummarizeParallelism <= 0 {
		cfg.SummarizeParallelism = def.SummarizeParallelism
	}
	if cfg.ContentFetchThreshold <= 0 {
		cfg.ContentFetchThreshold = def.ContentFetchThreshold
	}
	if cfg.DigestTitle == "" {
		cfg.DigestTitle = def.DigestTitle
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	return &Service{
		Users:          users,
		Subscriptions:  subs,
		Ledger:         ledger,
		Fetcher:        fetcher,
		Summarizer:     summarizer,
		Notifier:       notifier,
		ContentFetcher: contentFetcher,
		cfg:            cfg,
		now:            time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run executes one run for userID.
//
// Only a failure to load the user or the subscription list is returned as
// an error (entity.ErrNotFound for an unknown user). Fetch, ledger and
// summarize failures are scoped to their subscription or article, and a
// notifier failure leaves the recorded ledger entries in place.
func (s *Service) Run(ctx context.Context, userID int64) (*RunResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	logger := slog.Default().With(slog.Int64("user_id", userID))
	start := s.now()

	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "load user")
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entity.ErrNotFound)
	}

	subs, err := s.Subscriptions.ListByUser(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "list subscriptions")
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	result := &RunResult{UserID: userID, NewSummaries: make([]entity.Summary, 0)}
	for _, sub := range subs {
		if ctx.Err() != nil {
			logger.Warn("run interrupted, skipping remaining subscriptions",
				slog.Int64("subscription_id", sub.ID),
				slog.Any("error", ctx.Err()))
			result.Stats.FailedSubscriptions++
			continue
		}
		recorded, err := s.processSubscription(ctx, user, sub, &result.Stats)
		// 途中で失敗しても記録済みの要約はダイジェストに含める
		result.NewSummaries = append(result.NewSummaries, recorded...)
		if err != nil {
			result.Stats.FailedSubscriptions++
			logger.Warn("subscription skipped",
				slog.Int64("subscription_id", sub.ID),
				slog.String("url", sub.URL),
				slog.Any("error", err))
		}
	}
	result.Stats.ProcessedArticles = len(result.NewSummaries)

	if len(result.NewSummaries) > 0 {
		result.Notified = s.notify(ctx, logger, result.NewSummaries)
	}

	result.Duration = s.now().Sub(start)
	span.SetAttributes(
		attribute.Int("digest.total_articles", result.Stats.TotalArticles),
		attribute.Int("digest.processed_articles", result.Stats.ProcessedArticles),
		attribute.Int("digest.failed_subscriptions", result.Stats.FailedSubscriptions),
	)
	logger.Info("digest run completed",
		slog.Int("subscriptions", len(subs)),
		slog.Int("total_articles", result.Stats.TotalArticles),
		slog.Int("processed_articles", result.Stats.ProcessedArticles),
		slog.Int("already_seen", result.Stats.AlreadySeen),
		slog.Int("failed_subscriptions", result.Stats.FailedSubscriptions),
		slog.Int("failed_summaries", result.Stats.FailedSummaries),
		slog.Int("conflicts", result.Stats.Conflicts),
		slog.Bool("notified", result.Notified),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// notify sends the digest once. The call is detached from ctx cancellation
// so that entries recorded before a timeout are still pushed.
func (s *Service) notify(ctx context.Context, logger *slog.Logger, summaries []entity.Summary) bool {
	if s.Notifier == nil {
		return false
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()

	if err := s.Notifier.Send(nctx, s.cfg.DigestTitle, RenderDigest(summaries)); err != nil {
		metrics.RecordNotify(false)
		nerr := &entity.NotifyError{Channel: s.Notifier.Name(), Err: err}
		logger.Error("digest notification failed; ledger entries are kept",
			slog.Int("summaries", len(summaries)),
			slog.Any("error", nerr))
		return false
	}
	metrics.RecordNotify(true)
	return true
}

// subscriptionStats are updated from summarize goroutines.
type subscriptionStats struct {
	failed    atomic.Int64
	conflicts atomic.Int64
}

// processSubscription returns the entries it recorded, in feed order, even
// when it also returns an error.
func (s *Service) processSubscription(
	ctx context.Context,
	user *entity.User,
	sub *entity.Subscription,
	stats *Stats,
) ([]entity.Summary, error) {
	logger := slog.Default().With(
		slog.Int64("user_id", user.ID),
		slog.Int64("subscription_id", sub.ID))

	fresh, err := s.candidates(ctx, user, sub, stats)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	var counters subscriptionStats
	slots := make([]*entity.Summary, len(fresh))
	sem := make(chan struct{}, s.cfg.SummarizeParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, article := range fresh {
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			defer func() { <-sem }()

			text := s.enhanceContent(egCtx, article)

			summaryStart := time.Now()
			summary, err := s.Summarizer.Summarize(egCtx, article.Title, text)
			metrics.RecordArticleSummarized(err == nil, time.Since(summaryStart))
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				counters.failed.Add(1)
				logger.Warn("summarization failed, deferring article to next run",
					slog.String("guid", article.GUID),
					slog.Any("error", &entity.SummarizeError{ArticleGUID: article.GUID, Err: err}))
				return nil
			}

			entry := entity.Summary{
				ArticleGUID:    article.GUID,
				UserID:         user.ID,
				SubscriptionID: sub.ID,
				Title:          article.Title,
				Link:           article.Link,
				Content:        summary,
			}
			// 要約済みの記事は記録まで完了させる
			inserted, err := s.Ledger.Record(context.WithoutCancel(egCtx), &entry)
			switch {
			case err != nil:
				metrics.RecordLedgerWrite(metrics.LedgerError)
				counters.failed.Add(1)
				logger.Warn("ledger write failed, deferring article to next run",
					slog.String("guid", article.GUID),
					slog.Any("error", err))
			case !inserted:
				metrics.RecordLedgerWrite(metrics.LedgerConflict)
				counters.conflicts.Add(1)
				logger.Info("article already recorded by a concurrent run",
					slog.String("guid", article.GUID))
			default:
				metrics.RecordLedgerWrite(metrics.LedgerInserted)
				slots[i] = &entry
			}
			return nil
		})
	}
	waitErr := eg.Wait()

	stats.FailedSummaries += int(counters.failed.Load())
	stats.Conflicts += int(counters.conflicts.Load())

	recorded := make([]entity.Summary, 0, len(slots))
	for _, entry := range slots {
		if entry != nil {
			recorded = append(recorded, *entry)
		}
	}

	logger.Info("subscription processed",
		slog.Int("new", len(fresh)),
		slog.Int("recorded", len(recorded)))

	if waitErr != nil {
		return recorded, fmt.Errorf("summarize: %w", waitErr)
	}
	return recorded, nil
}

// candidates fetches the feed and returns the in-window articles the ledger
// has not seen, in feed order.
func (s *Service) candidates(
	ctx context.Context,
	user *entity.User,
	sub *entity.Subscription,
	stats *Stats,
) ([]entity.Article, error) {
	items, err := s.Fetcher.Fetch(ctx, sub.URL)
	if err != nil {
		metrics.RecordFeedFetch(false)
		var fe *entity.FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &entity.FetchError{URL: sub.URL, Err: err}
	}
	metrics.RecordFeedFetch(true)

	articles := FilterItems(items, Cutoff(s.now(), sub.LookbackDays(user)))
	stats.TotalArticles += len(articles)
	metrics.RecordArticlesInWindow(len(articles))
	if len(articles) == 0 {
		return nil, nil
	}

	// N+1回避: 既存GUIDは一括で確認
	guids := make([]string, len(articles))
	for i, a := range articles {
		guids[i] = a.GUID
	}
	existing, err := s.Ledger.ExistingGUIDs(ctx, sub.ID, user.ID, guids)
	if err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	fresh := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if existing[a.GUID] {
			stats.AlreadySeen++
			continue
		}
		fresh = append(fresh, a)
	}
	return fresh, nil
}

// enhanceContent returns the feed body, or the fetched article text when the
// body is short and the fetched text is longer. It never fails.
func (s *Service) enhanceContent(ctx context.Context, article entity.Article) string {
	if s.ContentFetcher == nil || article.Link == "" {
		return article.Content
	}
	bodyLen := len([]rune(article.Content))
	if bodyLen >= s.cfg.ContentFetchThreshold {
		metrics.RecordContentFetchSkipped()
		return article.Content
	}

	start := time.Now()
	full, err := s.ContentFetcher.FetchContent(ctx, article.Link)
	if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrPrivateIP) {
		metrics.RecordContentFetchRefused()
		slog.Debug("content fetch refused, using feed body",
			slog.String("url", article.Link),
			slog.Any("error", err))
		return article.Content
	}
	if err != nil {
		metrics.RecordContentFetchFailed(time.Since(start))
		slog.Debug("content fetch failed, using feed body",
			slog.String("url", article.Link),
			slog.Any("error", err))
		return article.Content
	}
	metrics.RecordContentFetchSuccess(time.Since(start))

	full = StripMarkup(full)
	if len([]rune(full)) > bodyLen {
		return full
	}
	return article.Content
}
