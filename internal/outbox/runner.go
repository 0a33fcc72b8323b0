package outbox

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"farm-market/pkg/metrics"
	"farm-market/pkg/rabbit"
)

// Runner drains outbox_events to the broker. Rows are claimed with
// `for update skip locked`, so several runners never publish the same
// event.
type Runner struct {
	Log zerolog.Logger
	DB  *pgxpool.Pool

	EventsPub *rabbit.Publisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration
}

type eventRow struct {
	ID        string
	EventType string
	Payload   []byte
	Attempts  int
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	r.updatePending(ctx)

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		select id, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, r.BatchSize)
	if err != nil {
		return err
	}

	var batch []eventRow
	for rows.Next() {
		var e eventRow
		var payloadText string
		if err := rows.Scan(&e.ID, &e.EventType, &payloadText, &e.Attempts); err != nil {
			rows.Close()
			return err
		}
		e.Payload = []byte(payloadText)
		batch = append(batch, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range batch {
		if e.Attempts >= r.MaxAttempts {
			_, _ = tx.Exec(ctx, `update outbox_events set last_error = $2, sent_at = now() where id = $1`, e.ID, "max attempts reached")
			metrics.OutboxDropped.Inc()
			r.Log.Warn().Str("id", e.ID).Int("attempts", e.Attempts).Msg("outbox drop (max attempts)")
			continue
		}

		pubCtx, cancel := rabbit.WithTimeout(ctx)
		err := r.EventsPub.Publish(pubCtx, e.EventType, e.Payload, amqp.Table{"x-event-id": e.ID})
		cancel()

		if err != nil {
			delay := r.backoff(e.Attempts + 1)
			_, _ = tx.Exec(ctx, `
				update outbox_events
				set attempts = attempts + 1, last_error = $2, next_attempt_at = now() + make_interval(secs => $3)
				where id = $1
			`, e.ID, err.Error(), delay.Seconds())
			r.Log.Error().Err(err).Str("id", e.ID).Dur("retry_in", delay).Msg("outbox publish failed")
			continue
		}

		if _, err := tx.Exec(ctx, `update outbox_events set sent_at = now() where id = $1`, e.ID); err != nil {
			return err
		}
		metrics.OutboxPublished.WithLabelValues(e.EventType).Inc()
	}

	return tx.Commit(ctx)
}

func (r *Runner) backoff(attempt int) time.Duration {
	d := time.Second * time.Duration(math.Pow(2, float64(attempt)))
	if d > r.BackoffMax {
		d = r.BackoffMax
	}
	return d
}

func (r *Runner) updatePending(ctx context.Context) {
	var n int
	if err := r.DB.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n); err != nil {
		return
	}
	metrics.OutboxPending.Set(float64(n))
}
