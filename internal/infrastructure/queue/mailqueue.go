package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pressmark/blog-platform/internal/api/metrics"
	"github.com/pressmark/blog-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

type mailKind int

const (
	kindVerification mailKind = iota
	kindPasswordReset
)

type mailJob struct {
	kind  mailKind
	to    string
	name  string
	token string
}

// MailQueue takes auth mail off the request path. Jobs are routed to a fixed
// set of workers by consistent hashing on the recipient, so mails to the same
// address keep their order. It implements ports.Mailer by enqueueing and
// delegates actual delivery to the wrapped Mailer.
type MailQueue struct {
	workers []chan mailJob
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewMailQueue creates a MailQueue with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailQueue(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &MailQueue{
		workers: make([]chan mailJob, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range q.workers {
		q.workers[i] = make(chan mailJob, channelBuffer)
	}
	return q
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (q *MailQueue) Start(ctx context.Context) {
	for i, ch := range q.workers {
		go q.runWorker(ctx, i, ch)
	}
}

func (q *MailQueue) SendVerificationEmail(_ context.Context, to, name, token string) error {
	q.enqueue(mailJob{kind: kindVerification, to: to, name: name, token: token})
	return nil
}

func (q *MailQueue) SendPasswordResetEmail(_ context.Context, to, name, token string) error {
	q.enqueue(mailJob{kind: kindPasswordReset, to: to, name: name, token: token})
	return nil
}

// enqueue sends a job to the worker responsible for its recipient.
// The call is non-blocking up to channelBuffer capacity.
func (q *MailQueue) enqueue(job mailJob) {
	i := q.shardIndex(job.to)
	q.workers[i] <- job
	metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(q.workers[i])))
}

// shardIndex maps a recipient deterministically to a worker index.
func (q *MailQueue) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(q.workers)
}

func (q *MailQueue) runWorker(ctx context.Context, id int, ch <-chan mailJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			var err error
			switch job.kind {
			case kindVerification:
				err = q.mailer.SendVerificationEmail(ctx, job.to, job.name, job.token)
			case kindPasswordReset:
				err = q.mailer.SendPasswordResetEmail(ctx, job.to, job.name, job.token)
			}
			if err != nil {
				q.log.Error().Err(err).
					Str("to", job.to).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
			metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
