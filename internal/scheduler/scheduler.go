package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
	"github.com/ryutarou1/lucky-alarm-native/internal/notify"
)

var (
	// ErrPermissionDenied - the notification permission gate refused; nothing
	// was scheduled and any existing alarm is untouched.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrDeliveryFailed - the delivery capability rejected the schedule call;
	// no alarm is considered active afterwards.
	ErrDeliveryFailed = errors.New("notification delivery scheduling failed")
)

// Notifier is the delivery capability the scheduler consumes: it accepts a
// future instant plus a payload and fires it, and can withdraw a pending
// delivery by the id it returned.
type Notifier interface {
	ScheduleAt(ctx context.Context, fireAt time.Time, p notify.Payload) (string, error)
	Cancel(ctx context.Context, deliveryID string) error
}

// Gate is the permission capability checked before any scheduling.
type Gate interface {
	NotificationsAllowed(ctx context.Context, chatID int64) (bool, error)
}

type activeAlarm struct {
	instance   alarm.Instance
	deliveryID string
}

// Scheduler keeps at most one pending wake-up per chat and coordinates the
// core's schedule computation with the delivery and permission capabilities.
// It holds no other state; settings and history belong to the caller.
type Scheduler struct {
	mu       sync.Mutex
	notifier Notifier
	gate     Gate
	draw     alarm.Draw
	log      *zap.Logger
	active   map[int64]activeAlarm
}

// New creates a Scheduler drawing offsets from draw.
func New(notifier Notifier, gate Gate, draw alarm.Draw, log *zap.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		gate:     gate,
		draw:     draw,
		log:      log,
		active:   make(map[int64]activeAlarm),
	}
}

// Arm schedules the chat's next wake-up from profile as seen from now,
// replacing a previously armed alarm. The permission gate and profile are
// checked before anything is canceled, so a refused or invalid request leaves
// an existing alarm running. If the delivery capability rejects the schedule
// call the previous alarm is already withdrawn and no new one is recorded;
// the chat ends up unarmed rather than armed with a phantom delivery.
func (s *Scheduler) Arm(ctx context.Context, chatID int64, p alarm.Profile, now time.Time, payload notify.Payload) (alarm.Instance, error) {
	allowed, err := s.gate.NotificationsAllowed(ctx, chatID)
	if err != nil {
		return alarm.Instance{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !allowed {
		return alarm.Instance{}, ErrPermissionDenied
	}

	inst, err := alarm.Schedule(p, now, s.draw)
	if err != nil {
		return alarm.Instance{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Single-alarm rule: withdraw the previous delivery before scheduling.
	if prev, ok := s.active[chatID]; ok {
		if err := s.notifier.Cancel(ctx, prev.deliveryID); err != nil {
			s.log.Warn("cancel previous delivery failed",
				zap.Error(err), zap.Int64("chatID", chatID))
		}
		delete(s.active, chatID)
	}

	deliveryID, err := s.notifier.ScheduleAt(ctx, inst.FireAt, payload)
	if err != nil {
		return alarm.Instance{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.active[chatID] = activeAlarm{instance: inst, deliveryID: deliveryID}
	s.log.Info("alarm armed",
		zap.Int64("chatID", chatID),
		zap.Time("fireAt", inst.FireAt),
		zap.Int("offsetMinutes", inst.OffsetMinutes))
	return inst, nil
}

// Disarm withdraws the chat's pending wake-up. Disarming a chat with no
// active alarm (never armed, already fired, already disarmed) is a no-op.
func (s *Scheduler) Disarm(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.active[chatID]
	if !ok {
		return nil
	}
	delete(s.active, chatID)

	if err := s.notifier.Cancel(ctx, prev.deliveryID); err != nil {
		return fmt.Errorf("cancel delivery: %w", err)
	}
	s.log.Info("alarm disarmed", zap.Int64("chatID", chatID))
	return nil
}

// Active returns the chat's pending wake-up, if any.
func (s *Scheduler) Active(chatID int64) (alarm.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.active[chatID]
	return a.instance, ok
}

// ConfirmFired resolves a delivery confirmation back to the chat and
// instance it belonged to and clears the alarm. Confirmations for unknown
// ids (for example a send already in flight when the alarm was replaced)
// report ok=false and change nothing; history must only ever grow through
// confirmations that resolve here.
func (s *Scheduler) ConfirmFired(deliveryID string) (int64, alarm.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chatID, a := range s.active {
		if a.deliveryID == deliveryID {
			delete(s.active, chatID)
			return chatID, a.instance, true
		}
	}
	return 0, alarm.Instance{}, false
}
