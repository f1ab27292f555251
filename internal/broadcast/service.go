package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"zemo-bot/internal/delivery"
	"zemo-bot/internal/metrics"
)

var ErrEmptyText = errors.New("broadcast text is empty")

const (
	defaultWorkers    = 4
	defaultRatePerSec = 25
)

// Job is one broadcast run.
type Job struct {
	ID         string
	Text       string
	Recipients []int64
}

type Result struct {
	JobID  string
	Total  int
	Sent   int
	Failed int
}

type Option func(*Service)

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRate paces the whole job. Every send still passes the admission gate.
func WithRate(perSec int) Option {
	return func(s *Service) {
		if perSec > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// Service fans a text out to every member of the active recipient index.
type Service struct {
	index   recipientIndex
	exec    executor
	bot     messageSender
	workers int
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewService(index recipientIndex, exec executor, bot messageSender, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		index:   index,
		exec:    exec,
		bot:     bot,
		workers: defaultWorkers,
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		logger:  logger.With("component", "broadcast"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare snapshots the index into a new job.
func (s *Service) Prepare(ctx context.Context, text string) (*Job, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	members, err := s.index.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}

	return &Job{
		ID:   uuid.NewString(),
		Text: text,
		Recipients: lo.Uniq(lo.Filter(members, func(id int64, _ int) bool {
			return id != 0
		})),
	}, nil
}

// Run delivers the job. A failed recipient does not stop the others; the
// returned error is non-nil only when ctx is cancelled.
func (s *Service) Run(ctx context.Context, job *Job) (Result, error) {
	var sent, failed atomic.Int64

	logger := s.logger.With("job_id", job.ID)
	logger.Info("broadcast started", "recipients", len(job.Recipients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, chatID := range job.Recipients {
		if err := s.limiter.Wait(gctx); err != nil {
			break
		}

		g.Go(func() error {
			err := s.exec.Execute(gctx, delivery.To(chatID, job.Text), func(context.Context) error {
				return s.bot.SendMessage(chatID, job.Text, nil)
			})
			if err != nil {
				failed.Add(1)
				metrics.BroadcastMessagesTotal.WithLabelValues("failed").Inc()
				logger.Warn("broadcast delivery failed", "chat_id", chatID, "error", err)
				return nil
			}
			sent.Add(1)
			metrics.BroadcastMessagesTotal.WithLabelValues("sent").Inc()
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		JobID:  job.ID,
		Total:  len(job.Recipients),
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
	}
	logger.Info("broadcast finished", "sent", res.Sent, "failed", res.Failed)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("broadcast %s interrupted: %w", job.ID, err)
	}
	return res, nil
}
