package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/metrics"
)

// DefaultAutoSaveDelay is the quiet period before a change is saved.
const DefaultAutoSaveDelay = time.Second

const saveTimeout = 10 * time.Second

// AutoSaver saves the store after changes settle. Each change restarts the
// delay. Save failures are logged and counted, never returned to the writer
// that caused the change.
type AutoSaver struct {
	store   *FormStore
	backend Backend
	delay   time.Duration
	logger  *zap.Logger

	trigger  chan struct{}
	flushReq chan chan error
	stop     chan struct{}
	done     chan struct{}

	unsubscribe func()
	closeOnce   sync.Once

	hookMu  sync.Mutex
	onSaved func(at time.Time, err error)
}

// NewAutoSaver starts an auto-saver for s. A zero delay uses
// DefaultAutoSaveDelay. Close must be called to stop it.
func NewAutoSaver(s *FormStore, backend Backend, delay time.Duration, logger *zap.Logger) *AutoSaver {
	if delay <= 0 {
		delay = DefaultAutoSaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &AutoSaver{
		store:    s,
		backend:  backend,
		delay:    delay,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		flushReq: make(chan chan error),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	a.unsubscribe = s.Subscribe(func(c Change) {
		if c.Kind == ChangeReplaced {
			return
		}
		a.Touch()
	})
	go a.loop()
	return a
}

// OnSaved registers a hook called after every save attempt.
func (a *AutoSaver) OnSaved(fn func(at time.Time, err error)) {
	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	a.onSaved = fn
}

// Touch schedules a save after the delay.
func (a *AutoSaver) Touch() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Flush saves immediately and waits for the result.
func (a *AutoSaver) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case a.flushReq <- reply:
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close saves any pending change and stops the saver goroutine.
func (a *AutoSaver) Close() error {
	a.closeOnce.Do(func() {
		a.unsubscribe()
		close(a.stop)
	})
	<-a.done
	return nil
}

func (a *AutoSaver) loop() {
	defer close(a.done)

	timer := time.NewTimer(a.delay)
	stopTimer(timer)
	pending := false

	for {
		select {
		case <-a.trigger:
			stopTimer(timer)
			timer.Reset(a.delay)
			pending = true

		case <-timer.C:
			pending = false
			a.save()

		case reply := <-a.flushReq:
			stopTimer(timer)
			pending = false
			reply <- a.save()

		case <-a.stop:
			// A Touch may still sit in trigger when stop wins the select.
			select {
			case <-a.trigger:
				pending = true
			default:
			}
			if pending {
				timer.Stop()
				a.save()
			}
			return
		}
	}
}

func (a *AutoSaver) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	snap := a.store.Snapshot()
	now := time.Now()
	snap.LastSaved = &now

	err := a.backend.Save(ctx, snap)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		a.logger.Error("auto-save failed", zap.String("backend", a.backend.Name()), zap.Error(err))
	} else {
		a.store.MarkSaved(now)
		a.logger.Debug("form saved",
			zap.String("backend", a.backend.Name()),
			zap.Int("completion", snap.CompletionPercentage))
	}
	metrics.FormSavesTotal.WithLabelValues(a.backend.Name(), status).Inc()

	a.hookMu.Lock()
	hook := a.onSaved
	a.hookMu.Unlock()
	if hook != nil {
		hook(now, err)
	}
	return err
}

// stopTimer stops t and discards a pending fire, so Reset starts clean.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
