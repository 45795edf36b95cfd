package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	failures map[string]int // remaining failures per recipient
	sent     []Message
	attempts map[string]int
}

func newFakeSender() *fakeSender {
	return &fakeSender{failures: map[string]int{}, attempts: map[string]int{}}
}

func (s *fakeSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[msg.To]++
	if s.failures[msg.To] > 0 {
		s.failures[msg.To]--
		return errors.New("421 try again later")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, m := range s.sent {
		out = append(out, m.To)
	}
	return out
}

type entry struct {
	to      string
	attempt int
	ok      bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []entry
}

func (r *fakeRecorder) Record(ctx context.Context, msg Message, attempt int, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{to: msg.To, attempt: attempt, ok: err == nil})
	return nil
}

func testConfig() Config {
	return Config{Workers: 2, QueueSize: 8, MaxAttempts: 3, Backoff: time.Millisecond}
}

func TestEnqueueDeliversInBackground(t *testing.T) {
	sender := newFakeSender()
	rec := &fakeRecorder{}
	d := New(sender, rec, testConfig())
	d.Start()

	require.NoError(t, d.Enqueue(
		Message{To: "a@example.com", Template: "winner_chosen"},
		Message{To: "b@example.com", Template: "donation_declined"},
	))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, sender.sentTo())
	assert.Equal(t, Stats{Sent: 2}, d.Stats())
	assert.Len(t, rec.entries, 2)
}

func TestRetriesUntilSuccess(t *testing.T) {
	sender := newFakeSender()
	sender.failures["flaky@example.com"] = 2
	rec := &fakeRecorder{}
	d := New(sender, rec, testConfig())
	d.Start()

	require.NoError(t, d.Enqueue(Message{To: "flaky@example.com"}))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 3, sender.attempts["flaky@example.com"])
	assert.Equal(t, Stats{Sent: 1, Retried: 2}, d.Stats())
	require.Len(t, rec.entries, 3)
	assert.False(t, rec.entries[0].ok)
	assert.True(t, rec.entries[2].ok)
	assert.Equal(t, 3, rec.entries[2].attempt)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	sender := newFakeSender()
	sender.failures["down@example.com"] = 10
	d := New(sender, nil, testConfig())
	d.Start()

	require.NoError(t, d.Enqueue(Message{To: "down@example.com"}))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 3, sender.attempts["down@example.com"])
	assert.EqualValues(t, 1, d.Stats().Failed)
}

func TestDeliverIsSynchronous(t *testing.T) {
	sender := newFakeSender()
	sender.failures["down@example.com"] = 10
	d := New(sender, nil, testConfig())

	err := d.Deliver(context.Background(),
		Message{To: "admin1@example.com"},
		Message{To: "down@example.com"},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "down@example.com")
	assert.Equal(t, []string{"admin1@example.com"}, sender.sentTo())

	assert.NoError(t, d.Deliver(context.Background(), Message{To: "admin2@example.com"}))
}

type stuckSender struct {
	mu       sync.Mutex
	attempts int
}

func (s *stuckSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestDeliverStopsAtCallerDeadline(t *testing.T) {
	sender := &stuckSender{}
	rec := &fakeRecorder{}
	cfg := testConfig()
	cfg.AttemptTimeout = 500 * time.Millisecond
	cfg.Backoff = 200 * time.Millisecond
	d := New(sender, rec, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := d.Deliver(ctx, Message{To: "admin@example.com"})

	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, sender.attempts)
	assert.EqualValues(t, 1, d.Stats().Failed)
	require.Len(t, rec.entries, 1)
	assert.False(t, rec.entries[0].ok)
}

func TestQueueFullAndClosed(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	d := New(newFakeSender(), nil, cfg)

	require.NoError(t, d.Enqueue(Message{To: "a@example.com"}))
	assert.ErrorIs(t, d.Enqueue(Message{To: "b@example.com"}), ErrQueueFull)
	assert.Equal(t, 1, d.Pending())

	require.NoError(t, d.Shutdown(context.Background()))
	assert.ErrorIs(t, d.Enqueue(Message{To: "c@example.com"}), ErrClosed)
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestShutdownDeadlineAbandonsRetries(t *testing.T) {
	sender := newFakeSender()
	sender.failures["slow@example.com"] = 10
	cfg := testConfig()
	cfg.Workers = 1
	cfg.Backoff = time.Hour
	d := New(sender, nil, cfg)
	d.Start()

	require.NoError(t, d.Enqueue(Message{To: "slow@example.com"}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Shutdown(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecipients(t *testing.T) {
	assert.Equal(t, "a@x.com,b@x.com", Recipients([]Message{{To: "a@x.com"}, {To: "b@x.com"}}))
}
