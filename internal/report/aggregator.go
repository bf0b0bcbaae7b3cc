package report

import (
	"fmt"
	"log"
	"sync"
	"time"

	"photoreport-bot/internal/buffer"
	"photoreport-bot/internal/storage"
	"photoreport-bot/internal/window"

	"github.com/getsentry/sentry-go"
)

// Outcome is the result of a settled report cycle, delivered after the
// grace period elapses.
type Outcome int

const (
	// OutcomeAccepted means photos were drained and a record committed.
	OutcomeAccepted Outcome = iota
	// OutcomeNoPhotos means the drain found nothing; a normal result,
	// no record is created.
	OutcomeNoPhotos
	// OutcomeError means the drained report could not be committed.
	OutcomeError
)

// DeliverFunc receives the deferred outcome of a trigger for one chat.
// photoCount is meaningful only for OutcomeAccepted.
type DeliverFunc func(chatID int64, outcome Outcome, photoCount int)

// TriggerState classifies the immediate response to a trigger.
type TriggerState int

const (
	// TriggerRejected: not a report day; Countdown carries the reply.
	TriggerRejected TriggerState = iota
	// TriggerSettling: the grace timer is armed, outcome arrives via DeliverFunc.
	TriggerSettling
	// TriggerCollapsed: a cycle is already in flight for this chat; the
	// pending settle covers this burst too, so the trigger is ignored.
	TriggerCollapsed
)

// TriggerResult is the synchronous part of a trigger's handling.
type TriggerResult struct {
	State     TriggerState
	Countdown window.Countdown
}

// AggregatorDeps holds the dependencies and tuning of the Aggregator.
// Zero-valued tuning fields fall back to the package defaults; Clock
// defaults to time.Now and exists so tests never sleep through real time.
type AggregatorDeps struct {
	Buffer      *buffer.Buffer
	Policy      *window.Policy
	Archive     *storage.Archive
	Grace       time.Duration
	DrainWindow time.Duration
	Clock       func() time.Time
}

// Aggregator runs the per-chat reporting cycle:
// Idle -> Settling (grace timer) -> Draining -> Committed -> Idle.
// Each chat settles independently; one chat's grace period never blocks
// another chat's photos or triggers.
type Aggregator struct {
	buf         *buffer.Buffer
	policy      *window.Policy
	archive     *storage.Archive
	grace       time.Duration
	drainWindow time.Duration
	clock       func() time.Time

	inflight sync.Map // chatID (int64) -> *cycle
}

// cycle is one in-flight settle for a chat. The entry is published to
// inflight before the timer is armed, so the timer field is guarded by
// the mutex; settle removes the entry by cycle identity, never by key
// alone, so a settle that fires early cannot orphan a later cycle's
// entry.
type cycle struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (c *cycle) arm(t *time.Timer) {
	c.mu.Lock()
	c.timer = t
	c.mu.Unlock()
}

func (c *cycle) stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil && c.timer.Stop()
}

// NewAggregator creates an Aggregator from its dependencies.
func NewAggregator(deps AggregatorDeps) (*Aggregator, error) {
	if deps.Buffer == nil {
		return nil, fmt.Errorf("photo buffer cannot be nil")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("window policy cannot be nil")
	}
	if deps.Archive == nil {
		return nil, fmt.Errorf("report archive cannot be nil")
	}
	if deps.Grace <= 0 {
		deps.Grace = window.DefaultGracePeriod
	}
	if deps.DrainWindow <= 0 {
		deps.DrainWindow = buffer.DefaultDrainWindow
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Aggregator{
		buf:         deps.Buffer,
		policy:      deps.Policy,
		archive:     deps.Archive,
		grace:       deps.Grace,
		drainWindow: deps.DrainWindow,
		clock:       deps.Clock,
	}, nil
}

// Trigger starts a report cycle for the chat. Outside the report window
// it rejects immediately with the countdown to the next window and no
// state change. On the report day it arms the grace timer; the outcome
// is delivered asynchronously once the burst has settled. A trigger
// arriving while the chat is already Settling is collapsed into the
// in-flight cycle.
func (a *Aggregator) Trigger(chatID int64, chatTitle string, deliver DeliverFunc) TriggerResult {
	now := a.clock()
	if !a.policy.IsReportDay(now) {
		return TriggerResult{State: TriggerRejected, Countdown: a.policy.UntilNextWindow(now)}
	}

	c := &cycle{}
	if _, loaded := a.inflight.LoadOrStore(chatID, c); loaded {
		log.Printf("[Aggregator Chat:%d] Trigger collapsed, cycle already settling", chatID)
		return TriggerResult{State: TriggerCollapsed}
	}

	c.arm(time.AfterFunc(a.grace, func() {
		a.settle(chatID, chatTitle, c, deliver)
	}))
	log.Printf("[Aggregator Chat:%d] Trigger accepted, settling for %v", chatID, a.grace)
	return TriggerResult{State: TriggerSettling}
}

// settle drains the buffer once the grace period has elapsed and
// commits the record when photos qualified.
func (a *Aggregator) settle(chatID int64, chatTitle string, c *cycle, deliver DeliverFunc) {
	defer a.inflight.CompareAndDelete(chatID, c)

	now := a.clock()
	events := a.buf.DrainWindow(chatID, now, a.drainWindow)
	log.Printf("[Aggregator Chat:%d] Drained %d photo(s)", chatID, len(events))

	if len(events) == 0 {
		deliver(chatID, OutcomeNoPhotos, 0)
		return
	}

	local := now.In(a.policy.Location())
	rep := storage.Report{
		GroupID:    chatID,
		GroupName:  chatTitle,
		ReportDate: local.Format(storage.DateLayout),
		ReportTime: local.Format(storage.TimeLayout),
		PhotoCount: len(events),
	}
	if err := a.archive.Commit(rep); err != nil {
		log.Printf("[Aggregator Chat:%d] Failed to commit report: %v", chatID, err)
		sentry.CaptureException(fmt.Errorf("commit report for chat %d: %w", chatID, err))
		deliver(chatID, OutcomeError, 0)
		return
	}

	// Commit-then-clear: a later drain with no new photos yields zero.
	a.buf.Clear(chatID)
	deliver(chatID, OutcomeAccepted, len(events))
}

// Settling reports whether a cycle is currently in flight for the chat.
func (a *Aggregator) Settling(chatID int64) bool {
	_, ok := a.inflight.Load(chatID)
	return ok
}

// Shutdown stops all armed grace timers.
func (a *Aggregator) Shutdown() {
	stopped := 0
	a.inflight.Range(func(key, value interface{}) bool {
		if c, ok := value.(*cycle); ok && c.stop() {
			stopped++
		}
		a.inflight.Delete(key)
		return true
	})
	if stopped > 0 {
		log.Printf("[Aggregator] Shutdown: stopped %d pending settle timer(s)", stopped)
	}
}
