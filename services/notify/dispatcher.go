// Package notify delivers notification emails in the background.
//
// Every email is first written to email_deliveries with status queued, then
// pushed onto a bounded queue drained by a fixed pool of workers. A worker
// renders the template and sends it with exponential backoff, then records
// sent, skipped or failed on the row. A worker claims a row by moving it from
// queued to sending, so a row is never sent twice at once. Rows that never made
// it into the queue, or that failed, are picked up again by RetryFailed.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrClosed is returned by Enqueue after Shutdown. The row is still written
// and stays queued for the next sweep.
var ErrClosed = errors.New("dispatcher is shut down")

// staleAfter is how long a queued row may sit before RetryFailed picks it up
const staleAfter = 2 * time.Minute

// Config tunes the dispatcher
type Config struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int           // total attempts across sweeps before a delivery is abandoned
	SendAttempts uint64        // attempts per pass, with backoff in between
	RetryBase    time.Duration // first backoff delay
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.SendAttempts == 0 {
		c.SendAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
}

// Request is one email to deliver
type Request struct {
	UserID *uint
	To     string
	ToName string
	Type   model.NotificationType
	Data   mail.Data
}

// Dispatcher owns the queue and the worker pool
type Dispatcher struct {
	db     *gorm.DB
	sender mail.Sender
	log    *logger.Logger
	cfg    Config

	queue  chan uint
	mu     sync.RWMutex
	closed bool

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a dispatcher. Call Start to launch the workers.
func New(db *gorm.DB, sender mail.Sender, log *logger.Logger, cfg Config) *Dispatcher {
	cfg.withDefaults()
	return &Dispatcher{
		db:     db,
		sender: sender,
		log:    log.With("component", "notify"),
		cfg:    cfg,
		queue:  make(chan uint, cfg.QueueSize),
	}
}

// Start launches the workers
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.group, ctx = errgroup.WithContext(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		worker := i
		d.group.Go(func() error {
			for id := range d.queue {
				if err := d.deliver(ctx, id); err != nil {
					d.log.Error("email delivery failed", "worker", worker, "delivery_id", id, "error", err)
				}
			}
			return nil
		})
	}

	d.log.Info("notification dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

// Enqueue persists a delivery row and hands it to the workers. When the queue
// is full the row stays queued and the next RetryFailed sweep sends it.
func (d *Dispatcher) Enqueue(ctx context.Context, req Request) (*model.EmailDelivery, error) {
	delivery, err := d.record(ctx, req)
	if err != nil {
		return nil, err
	}

	pushed, err := d.push(delivery.ID)
	if err != nil {
		return delivery, err
	}
	if !pushed {
		d.log.Warn("notification queue full, leaving delivery for the sweeper", "delivery_id", delivery.ID, "type", req.Type)
	}
	return delivery, nil
}

// SendNow persists a delivery row and sends it on the caller's goroutine
func (d *Dispatcher) SendNow(ctx context.Context, req Request) (*model.EmailDelivery, error) {
	delivery, err := d.record(ctx, req)
	if err != nil {
		return nil, err
	}

	sendErr := d.deliver(ctx, delivery.ID)

	if err := d.db.WithContext(ctx).First(delivery, delivery.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload delivery: %w", err)
	}
	return delivery, sendErr
}

func (d *Dispatcher) record(ctx context.Context, req Request) (*model.EmailDelivery, error) {
	payload, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email payload: %w", err)
	}

	delivery := &model.EmailDelivery{
		UserID:  req.UserID,
		ToEmail: req.To,
		ToName:  req.ToName,
		Type:    req.Type,
		Payload: datatypes.JSON(payload),
		Status:  model.DeliveryQueued,
	}
	if err := d.db.WithContext(ctx).Create(delivery).Error; err != nil {
		return nil, fmt.Errorf("failed to create email delivery: %w", err)
	}
	return delivery, nil
}

// push is a non-blocking send onto the queue. It reports false when the queue is full.
func (d *Dispatcher) push(id uint) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false, ErrClosed
	}
	select {
	case d.queue <- id:
		return true, nil
	default:
		return false, nil
	}
}

// claim moves a queued row to sending. It reports false when another worker
// owns the row or it is already done.
func (d *Dispatcher) claim(ctx context.Context, id uint) (bool, error) {
	res := d.db.WithContext(ctx).Model(&model.EmailDelivery{}).
		Where("id = ? AND status = ?", id, model.DeliveryQueued).
		Updates(map[string]interface{}{"status": model.DeliverySending})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim delivery %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// deliver renders and sends one delivery, then records the outcome on its row
func (d *Dispatcher) deliver(ctx context.Context, id uint) error {
	claimed, err := d.claim(ctx, id)
	if err != nil || !claimed {
		return err
	}

	var delivery model.EmailDelivery
	if err := d.db.WithContext(ctx).First(&delivery, id).Error; err != nil {
		return fmt.Errorf("failed to load delivery %d: %w", id, err)
	}

	var data mail.Data
	if len(delivery.Payload) > 0 {
		if err := json.Unmarshal(delivery.Payload, &data); err != nil {
			return d.finish(ctx, &delivery, mail.Result{}, fmt.Errorf("invalid payload: %w", err))
		}
	}

	rendered, err := mail.Render(delivery.Type, delivery.ToName, data)
	if err != nil {
		return d.finish(ctx, &delivery, mail.Result{}, err)
	}

	msg := mail.Message{
		To:      delivery.ToEmail,
		ToName:  delivery.ToName,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}

	var result mail.Result
	backoff := retry.WithMaxRetries(d.cfg.SendAttempts-1, retry.NewExponential(d.cfg.RetryBase))
	sendErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		delivery.Attempts++
		res, err := d.sender.Send(ctx, msg)
		if err == nil {
			result = res
			return nil
		}
		if errors.Is(err, mail.ErrNotConfigured) {
			return err
		}
		d.log.Warn("email send attempt failed", "delivery_id", delivery.ID, "attempt", delivery.Attempts, "error", err)
		return retry.RetryableError(err)
	})

	return d.finish(ctx, &delivery, result, sendErr)
}

func (d *Dispatcher) finish(ctx context.Context, delivery *model.EmailDelivery, result mail.Result, sendErr error) error {
	updates := map[string]interface{}{
		"attempts": delivery.Attempts,
	}

	switch {
	case sendErr != nil:
		updates["status"] = model.DeliveryFailed
		updates["last_error"] = sendErr.Error()
	case result.Skipped:
		updates["status"] = model.DeliverySkipped
		updates["last_error"] = ""
	default:
		now := time.Now().UTC()
		updates["status"] = model.DeliverySent
		updates["last_error"] = ""
		updates["provider_message_id"] = result.ProviderID
		updates["sent_at"] = &now
	}

	// A cancelled request context must not lose the outcome
	if err := d.db.WithContext(context.WithoutCancel(ctx)).Model(delivery).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to record delivery %d: %w", delivery.ID, err)
	}

	if sendErr == nil {
		d.log.Debug("email delivered", "delivery_id", delivery.ID, "type", delivery.Type, "skipped", result.Skipped)
	}
	return sendErr
}

// RetryFailed re-queues failed deliveries and queued ones that went stale,
// as long as they have attempts left. Rows a worker is sending are left alone.
// It returns how many were queued.
func (d *Dispatcher) RetryFailed(ctx context.Context) (int, error) {
	var ids []uint
	err := d.db.WithContext(ctx).
		Model(&model.EmailDelivery{}).
		Where("attempts < ?", d.cfg.MaxAttempts).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			model.DeliveryFailed, model.DeliveryQueued, time.Now().UTC().Add(-staleAfter)).
		Order("id ASC").
		Limit(d.cfg.QueueSize).
		Pluck("id", &ids).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable deliveries: %w", err)
	}

	queued := 0
	for _, id := range ids {
		// Touch the row so the next sweep does not pick it up while it waits in the queue
		res := d.db.WithContext(ctx).Model(&model.EmailDelivery{}).
			Where("id = ? AND status IN ?", id, []model.DeliveryStatus{model.DeliveryFailed, model.DeliveryQueued}).
			Updates(map[string]interface{}{"status": model.DeliveryQueued})
		if res.Error != nil {
			return queued, fmt.Errorf("failed to requeue delivery %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		pushed, err := d.push(id)
		if err != nil {
			return queued, err
		}
		if !pushed {
			break
		}
		queued++
	}

	if queued > 0 {
		d.log.Info("requeued email deliveries", "count", queued)
	}
	return queued, nil
}

// Shutdown stops accepting work and waits for the queue to drain.
// If ctx expires first the in-flight sends are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	if d.group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()

	select {
	case err := <-done:
		d.cancel()
		d.log.Info("notification dispatcher stopped")
		return err
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
