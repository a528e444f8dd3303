// Package async implements the single-threaded cooperative scheduler
// colocated with the interpreter: a FIFO task queue, a due-time-ordered
// timer list, and a pending-I/O registry drained by polling. There is no
// goroutine per script task — `await` blocks the calling Go call by
// pumping this same loop until the promise it is waiting on settles,
// which is what "single-threaded cooperative" means for a tree-walking
// interpreter with no continuations.
package async

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frankischilling/cupidscript/internal/value"
)

// PollFD is one file descriptor's read/write interest, and on return from
// PollFunc, its observed readiness.
type PollFD struct {
	ID       string
	Fd       int
	Read     bool
	Write    bool
	Readable bool
	Writable bool
}

// PollFunc polls a set of descriptors for readiness, blocking up to
// timeout. Implemented by internal/netio using golang.org/x/sys/unix.Poll;
// a Scheduler with no PollFunc set simply never has pending I/O registered
// against it (a pure promise/timer workload never calls Poll).
type PollFunc func(fds []PollFD, timeout time.Duration) ([]PollFD, error)

// PendingIO is one non-blocking operation waiting for readiness or a
// deadline. OnReady is invoked with the observed readiness (or timedOut
// when the deadline passed first) and returns whether the record should
// stay registered (true — e.g. a TLS handshake re-arming with a new
// interest) or be removed (false — the op resolved its promise).
type PendingIO struct {
	ID       string
	Fd       int
	Read     bool
	Write    bool
	Deadline time.Time
	OnReady  func(readable, writable, timedOut bool) (rearm bool)
}

type timerEntry struct {
	due     time.Time
	seq     int
	promise *value.Promise
}

// Scheduler owns the event loop's three queues: ready tasks, timers, and
// pending I/O.
type Scheduler struct {
	log *zap.Logger

	tasks []func()

	timers    []*timerEntry
	timerSeq  int
	pendingIO map[string]*PendingIO

	pollFn PollFunc

	defaultTimeout time.Duration
}

// New creates an empty Scheduler. log may be nil (treated as a no-op
// logger), matching every other component's zap convention.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:            log,
		pendingIO:      make(map[string]*PendingIO),
		defaultTimeout: 30 * time.Second,
	}
}

// SetPollFunc wires the readiness poller (internal/netio's unix.Poll
// wrapper). Without one, RegisterPendingIO still works but Drain can never
// observe readiness for it — only its deadline will fire.
func (s *Scheduler) SetPollFunc(fn PollFunc) { s.pollFn = fn }

// SetDefaultTimeout is net_set_default_timeout's backing store: applied to
// pending I/O registered with a zero Deadline.
func (s *Scheduler) SetDefaultTimeout(d time.Duration) { s.defaultTimeout = d }

// Enqueue appends a ready script task to the FIFO queue.
func (s *Scheduler) Enqueue(task func()) { s.tasks = append(s.tasks, task) }

// ScheduleTimer resolves promise with nil after dueMS milliseconds. Ties in
// due time resolve in scheduling order.
func (s *Scheduler) ScheduleTimer(dueMS int64, promise *value.Promise) {
	s.timerSeq++
	entry := &timerEntry{due: time.Now().Add(time.Duration(dueMS) * time.Millisecond), seq: s.timerSeq, promise: promise}
	s.timers = append(s.timers, entry)
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due.Equal(s.timers[j].due) {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].due.Before(s.timers[j].due)
	})
}

// RegisterPendingIO adds a non-blocking operation's wait record and
// returns its ID, assigning one via google/uuid if the caller left it
// blank (the way internal/web/jobs stamps job IDs).
func (s *Scheduler) RegisterPendingIO(rec *PendingIO) string {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Deadline.IsZero() {
		rec.Deadline = time.Now().Add(s.defaultTimeout)
	}
	s.pendingIO[rec.ID] = rec
	return rec.ID
}

// CancelFD removes every pending-I/O record referencing fd, the way
// closing a socket detaches its pending records (§5). Their promises are
// left exactly as they were — resolved if the close site already settled
// them, pending otherwise; CancelFD never settles a promise itself.
func (s *Scheduler) CancelFD(fd int) {
	for id, rec := range s.pendingIO {
		if rec.Fd == fd {
			delete(s.pendingIO, id)
		}
	}
}

// ErrStalled is returned by Drain when every queue is empty, nothing is
// pending, and the awaited promise is still pending — a deadlock per §4.4.
var ErrStalled = errors.New("event loop stalled: no scheduled work and the awaited promise never settled")

// AbortError wraps a non-catchable safety abort (interrupt/timeout)
// observed while pumping the loop, distinguishing it from an ordinary
// catchable stall/rejection error.
type AbortError struct{ Err error }

func (e *AbortError) Error() string { return e.Err.Error() }
func (e *AbortError) Unwrap() error { return e.Err }

// Drain pumps the event loop — draining ready tasks, resolving due
// timers, and polling pending I/O — until `until` settles. checkAbort is
// consulted once per iteration; a non-nil result is wrapped as
// *AbortError and returned immediately, mirroring the statement-boundary
// safepoint check the interpreter performs everywhere else.
func (s *Scheduler) Drain(until *value.Promise, checkAbort func() error) error {
	for {
		if checkAbort != nil {
			if err := checkAbort(); err != nil {
				return &AbortError{Err: err}
			}
		}

		for len(s.tasks) > 0 {
			task := s.tasks[0]
			s.tasks = s.tasks[1:]
			task()
		}

		if until == nil || until.State != value.PromisePending {
			return nil
		}

		if fired := s.resolveDueTimers(); fired {
			continue
		}

		if until.State != value.PromisePending {
			return nil
		}

		if len(s.pendingIO) == 0 {
			if len(s.timers) == 0 {
				return ErrStalled
			}
			time.Sleep(time.Until(s.timers[0].due))
			continue
		}

		if err := s.pollOnce(); err != nil {
			s.log.Warn("poll error", zap.Error(err))
		}
	}
}

func (s *Scheduler) resolveDueTimers() bool {
	now := time.Now()
	fired := false
	for len(s.timers) > 0 && !s.timers[0].due.After(now) {
		entry := s.timers[0]
		s.timers = s.timers[1:]
		entry.promise.Resolve(value.Nil)
		fired = true
	}
	return fired
}

func (s *Scheduler) pollOnce() error {
	if s.pollFn == nil {
		// No poller wired: pending I/O can only ever settle via its
		// deadline. Fast-forward to the earliest one instead of busy
		// looping.
		var earliest time.Time
		for _, rec := range s.pendingIO {
			if earliest.IsZero() || rec.Deadline.Before(earliest) {
				earliest = rec.Deadline
			}
		}
		time.Sleep(time.Until(earliest))
		s.timeoutExpired()
		return nil
	}

	fds := make([]PollFD, 0, len(s.pendingIO))
	for id, rec := range s.pendingIO {
		fds = append(fds, PollFD{ID: id, Fd: rec.Fd, Read: rec.Read, Write: rec.Write})
	}

	ready, err := s.pollFn(fds, s.pollTimeout())
	if err != nil {
		return err
	}

	for _, r := range ready {
		rec, ok := s.pendingIO[r.ID]
		if !ok {
			continue
		}
		rearm := rec.OnReady(r.Readable, r.Writable, false)
		if !rearm {
			delete(s.pendingIO, r.ID)
		}
	}

	s.timeoutExpired()
	return nil
}

// timeoutExpired fires OnReady(false, false, true) for every pending
// record whose deadline has passed, without waiting for another poll
// pass to notice.
func (s *Scheduler) timeoutExpired() {
	now := time.Now()
	for id, rec := range s.pendingIO {
		if !rec.Deadline.IsZero() && !rec.Deadline.After(now) {
			rearm := rec.OnReady(false, false, true)
			if !rearm {
				delete(s.pendingIO, id)
			}
		}
	}
}

// pollTimeout bounds the next poll call by the nearest timer deadline and
// the nearest pending-I/O deadline, per §4.4's "minimum of (script wait,
// next timer, per-op timeout)".
func (s *Scheduler) pollTimeout() time.Duration {
	const cap = time.Second
	timeout := cap

	if len(s.timers) > 0 {
		if d := time.Until(s.timers[0].due); d < timeout {
			timeout = d
		}
	}
	for _, rec := range s.pendingIO {
		if d := time.Until(rec.Deadline); d < timeout {
			timeout = d
		}
	}
	if timeout < 0 {
		timeout = 0
	}
	return timeout
}
