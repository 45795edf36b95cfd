// Package dispatcher delivers e-mail messages in the background.
//
// Delivery contract: best-effort. A queued message is tried up to MaxAttempts
// times with linear backoff while the process is alive, so a recipient may get
// a message twice if a send times out after the server accepted it. Messages
// still queued when the process dies, or when Shutdown gives up, are lost.
// Every attempt is handed to the Recorder.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/logger"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("mail queue is full")
	ErrClosed    = errors.New("mail dispatcher is closed")
)

// Message is one e-mail to one primary recipient.
type Message struct {
	To       string
	Cc       []string
	Subject  string
	HTML     string
	Template string
	Meta     map[string]any
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder stores the outcome of an attempt. err is nil on success.
type Recorder interface {
	Record(ctx context.Context, msg Message, attempt int, err error) error
}

type Config struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	Backoff        time.Duration
	AttemptTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 30 * time.Second
	}
	return c
}

type Stats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Retried int64 `json:"retried"`
}

type Dispatcher struct {
	sender   Sender
	recorder Recorder
	cfg      Config

	queue  chan Message
	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
	group  *errgroup.Group

	sent, failed, retried atomic.Int64
}

func New(sender Sender, recorder Recorder, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		sender:   sender,
		recorder: recorder,
		cfg:      cfg,
		queue:    make(chan Message, cfg.QueueSize),
		stop:     make(chan struct{}),
	}
}

// Start launches the workers. They run until Shutdown.
func (d *Dispatcher) Start() {
	d.group = &errgroup.Group{}
	for i := 0; i < d.cfg.Workers; i++ {
		d.group.Go(func() error {
			for msg := range d.queue {
				_ = d.deliver(context.Background(), msg)
			}
			return nil
		})
	}
	logger.Infof("[MAIL] dispatcher started: workers=%d queue=%d attempts=%d", d.cfg.Workers, d.cfg.QueueSize, d.cfg.MaxAttempts)
}

// Enqueue hands messages to the workers without waiting. It fails fast when
// the queue is full; messages accepted before the failure stay queued.
func (d *Dispatcher) Enqueue(msgs ...Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	for i, m := range msgs {
		select {
		case d.queue <- m:
		default:
			logger.Warningf("[MAIL] queue full, dropped %d message(s) starting at %q to %s", len(msgs)-i, m.Template, m.To)
			d.failed.Add(int64(len(msgs) - i))
			return ErrQueueFull
		}
	}
	return nil
}

// Deliver sends messages now, concurrently, with the same retry policy as the
// workers. Attempts and backoff stop when ctx ends. It returns the joined
// errors of the messages that never went out.
func (d *Dispatcher) Deliver(ctx context.Context, msgs ...Message) error {
	g := &errgroup.Group{}
	g.SetLimit(d.cfg.Workers)
	var (
		mu   sync.Mutex
		errs []error
	)
	for _, m := range msgs {
		m := m
		g.Go(func() error {
			if err := d.deliver(ctx, m); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", m.To, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.retried.Add(1)
			if !d.sleep(ctx, time.Duration(attempt-1)*d.cfg.Backoff) {
				break
			}
		}
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			break
		}
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		err = d.sender.Send(attemptCtx, msg)
		cancel()
		d.record(ctx, msg, attempt, err)
		if err == nil {
			d.sent.Add(1)
			return nil
		}
		logger.Warningf("[MAIL] %s to %s attempt %d/%d: %v", msg.Template, msg.To, attempt, d.cfg.MaxAttempts, err)
	}
	d.failed.Add(1)
	logger.Errorf("[MAIL] giving up on %s to %s: %v", msg.Template, msg.To, err)
	return err
}

// sleep waits for dur unless ctx ends or the dispatcher is forced to stop; false means stop.
func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		select {
		case <-d.stop:
			return false
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// record still writes the log row when the caller's ctx is already done.
func (d *Dispatcher) record(ctx context.Context, msg Message, attempt int, err error) {
	if d.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rerr := d.recorder.Record(rctx, msg, attempt, err); rerr != nil {
		logger.Warningf("[MAIL] email log for %s to %s: %v", msg.Template, msg.To, rerr)
	}
}

// Shutdown stops accepting messages and waits for the queue to drain. When ctx
// ends first, pending retries are abandoned and ctx.Err() is returned.
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
	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Infof("[MAIL] dispatcher drained: %+v", d.Stats())
		return nil
	case <-ctx.Done():
		close(d.stop)
		logger.Warningf("[MAIL] dispatcher stopped with %d message(s) pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{Sent: d.sent.Load(), Failed: d.failed.Load(), Retried: d.retried.Load()}
}

// Pending is the number of queued messages not yet picked by a worker.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Recipients lists the To addresses, for logs.
func Recipients(msgs []Message) string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.To)
	}
	return strings.Join(out, ",")
}
