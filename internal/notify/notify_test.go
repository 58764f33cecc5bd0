package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{calls: make(chan struct{}, 8)}
}

func (s *recordingSender) SendMessage(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.calls <- struct{}{}
		return errors.New("send rejected")
	}
	s.sent = append(s.sent, text)
	s.calls <- struct{}{}
	return nil
}

func (s *recordingSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestTimerNotifierDeliversAndConfirms(t *testing.T) {
	sender := newRecordingSender()
	n := NewTimerNotifier(sender, zap.NewNop())
	defer n.Close()

	fired := make(chan string, 1)
	n.OnFired(func(id string, at time.Time) { fired <- id })

	id, err := n.ScheduleAt(context.Background(), time.Now().Add(10*time.Millisecond), Payload{
		ChatID: 42, Title: "⏰ Rise and shine", Body: "Good morning",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case got := <-fired:
		assert.Equal(t, id, got, "confirmation carries the delivery id")
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never confirmed")
	}
	assert.Equal(t, 1, sender.sentCount())
}

func TestTimerNotifierCancelPreventsDelivery(t *testing.T) {
	sender := newRecordingSender()
	n := NewTimerNotifier(sender, zap.NewNop())
	defer n.Close()

	n.OnFired(func(id string, at time.Time) {
		t.Error("canceled delivery must not confirm")
	})

	id, err := n.ScheduleAt(context.Background(), time.Now().Add(50*time.Millisecond), Payload{ChatID: 42})
	require.NoError(t, err)
	require.NoError(t, n.Cancel(context.Background(), id))

	select {
	case <-sender.calls:
		t.Fatal("canceled delivery was sent")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTimerNotifierCancelIsIdempotent(t *testing.T) {
	n := NewTimerNotifier(newRecordingSender(), zap.NewNop())
	defer n.Close()

	id, err := n.ScheduleAt(context.Background(), time.Now().Add(time.Hour), Payload{ChatID: 42})
	require.NoError(t, err)

	assert.NoError(t, n.Cancel(context.Background(), id))
	assert.NoError(t, n.Cancel(context.Background(), id), "second cancel is a no-op")
	assert.NoError(t, n.Cancel(context.Background(), "never-existed"))
}

func TestTimerNotifierFailedSendIsNotConfirmed(t *testing.T) {
	sender := newRecordingSender()
	sender.fail = true
	n := NewTimerNotifier(sender, zap.NewNop())
	defer n.Close()

	n.OnFired(func(id string, at time.Time) {
		t.Error("failed delivery must not confirm")
	})

	_, err := n.ScheduleAt(context.Background(), time.Now().Add(10*time.Millisecond), Payload{ChatID: 42})
	require.NoError(t, err)

	select {
	case <-sender.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("send was never attempted")
	}
	// Give a stray confirmation a moment to surface before finishing.
	time.Sleep(50 * time.Millisecond)
}

func TestPayloadText(t *testing.T) {
	withTitle := Payload{Title: "⏰ Rise and shine", Body: "You are up early."}
	assert.Equal(t, "⏰ Rise and shine\n\nYou are up early.", withTitle.Text())

	bodyOnly := Payload{Body: "You are up early."}
	assert.Equal(t, "You are up early.", bodyOnly.Text())
}
