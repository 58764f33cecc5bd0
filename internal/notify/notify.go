// Package notify implements the notification delivery capability: it accepts
// a future instant and a payload, fires the payload through a Sender at that
// instant, and reports confirmed deliveries to a subscriber. The scheduling
// core only ever sees the delivery ids.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payload is the content of one scheduled notification.
type Payload struct {
	ChatID int64
	Title  string
	Body   string
}

// Text renders the payload as a single message.
func (p Payload) Text() string {
	if p.Title == "" {
		return p.Body
	}
	return p.Title + "\n\n" + p.Body
}

// Sender delivers one text message to a chat. telegram.Router provides it in
// production.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// FiredFunc receives confirmations for deliveries that actually went out.
type FiredFunc func(deliveryID string, firedAt time.Time)

type delivery struct {
	timer   *time.Timer
	payload Payload
}

// TimerNotifier keeps in-process timers for pending deliveries and sends each
// payload when its timer fires. A delivery already dispatched can race a
// concurrent Cancel; that race is owned here, the scheduler simply drops
// confirmations it no longer knows.
type TimerNotifier struct {
	mu      sync.Mutex
	sender  Sender
	log     *zap.Logger
	onFired FiredFunc
	pending map[string]*delivery
}

// NewTimerNotifier creates a notifier delivering through sender.
func NewTimerNotifier(sender Sender, log *zap.Logger) *TimerNotifier {
	return &TimerNotifier{
		sender:  sender,
		log:     log,
		pending: make(map[string]*delivery),
	}
}

// OnFired subscribes f to delivery confirmations. Set it before the first
// ScheduleAt; deliveries confirmed without a subscriber are dropped.
func (n *TimerNotifier) OnFired(f FiredFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onFired = f
}

// ScheduleAt registers a payload to be delivered at fireAt and returns the
// delivery id. Instants already in the past fire immediately; callers
// guarantee strictly-future instants, this only absorbs clock movement
// between computing and scheduling.
func (n *TimerNotifier) ScheduleAt(ctx context.Context, fireAt time.Time, p Payload) (string, error) {
	id := uuid.NewString()
	wait := time.Until(fireAt)
	if wait < 0 {
		wait = 0
	}

	n.mu.Lock()
	n.pending[id] = &delivery{
		payload: p,
		timer:   time.AfterFunc(wait, func() { n.fire(id) }),
	}
	n.mu.Unlock()

	n.log.Debug("delivery scheduled",
		zap.String("deliveryID", id),
		zap.Time("fireAt", fireAt),
		zap.Int64("chatID", p.ChatID))
	return id, nil
}

// fire sends a due delivery and confirms it. Deliveries canceled between the
// timer firing and the lock being taken are skipped; deliveries whose send
// fails are not confirmed, so nothing is recorded for a wake-up that never
// reached the user.
func (n *TimerNotifier) fire(id string) {
	n.mu.Lock()
	d, ok := n.pending[id]
	if ok {
		delete(n.pending, id)
	}
	onFired := n.onFired
	n.mu.Unlock()
	if !ok {
		return
	}

	if err := n.sender.SendMessage(d.payload.ChatID, d.payload.Text()); err != nil {
		n.log.Error("wake-up delivery failed",
			zap.Error(err), zap.Int64("chatID", d.payload.ChatID))
		return
	}
	if onFired != nil {
		onFired(id, time.Now())
	}
}

// Cancel withdraws a pending delivery. Unknown ids (already fired, already
// canceled) are a no-op, not an error.
func (n *TimerNotifier) Cancel(ctx context.Context, deliveryID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.pending[deliveryID]
	if !ok {
		return nil
	}
	d.timer.Stop()
	delete(n.pending, deliveryID)
	return nil
}

// Close stops every pending timer. Used on shutdown; nothing fires afterwards.
func (n *TimerNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, d := range n.pending {
		d.timer.Stop()
		delete(n.pending, id)
	}
}
