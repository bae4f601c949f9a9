package viewport

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Size is a viewport size. Terminal observers report columns and rows.
type Size struct {
	Width  int
	Height int
}

// Observer delivers viewport size changes to subscribers.
type Observer interface {
	Subscribe(fn func(Size)) (unsubscribe func())
}

// subscribers is a small fan-out registry shared by the observers.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Size)
}

func (s *subscribers) add(fn func(Size)) (id int, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Size))
	}
	id = s.next
	s.next++
	s.fns[id] = fn
	return id, len(s.fns) == 1
}

func (s *subscribers) remove(id int) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fns, id)
	return len(s.fns) == 0
}

func (s *subscribers) emit(size Size) {
	s.mu.Lock()
	fns := make([]func(Size), 0, len(s.fns))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(size)
	}
}

// ManualObserver is driven by the host, for example from a bubbletea
// WindowSizeMsg, or by tests.
type ManualObserver struct {
	subs subscribers
}

// NewManualObserver returns an observer that only emits on Emit.
func NewManualObserver() *ManualObserver {
	return &ManualObserver{}
}

// Subscribe registers fn.
func (o *ManualObserver) Subscribe(fn func(Size)) func() {
	id, _ := o.subs.add(fn)
	var once sync.Once
	return func() { once.Do(func() { o.subs.remove(id) }) }
}

// Emit delivers size to every subscriber in subscription order.
func (o *ManualObserver) Emit(size Size) {
	o.subs.emit(size)
}

// DefaultPollInterval is how often TerminalObserver samples the terminal size.
const DefaultPollInterval = 250 * time.Millisecond

// TerminalObserver polls the size of a terminal file descriptor and emits
// when it changes. Polling starts with the first subscription and stops when
// the last subscriber leaves or the context is cancelled.
type TerminalObserver struct {
	ctx      context.Context
	fd       int
	interval time.Duration
	getSize  func(fd int) (width, height int, err error)

	subs   subscribers
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// TerminalOption configures a TerminalObserver.
type TerminalOption func(*TerminalObserver)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) TerminalOption {
	return func(o *TerminalObserver) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithFD selects the terminal file descriptor; stdout by default.
func WithFD(fd int) TerminalOption {
	return func(o *TerminalObserver) { o.fd = fd }
}

// WithSizeFunc replaces term.GetSize.
func WithSizeFunc(fn func(fd int) (width, height int, err error)) TerminalOption {
	return func(o *TerminalObserver) {
		if fn != nil {
			o.getSize = fn
		}
	}
}

// NewTerminalObserver returns an observer bound to ctx.
func NewTerminalObserver(ctx context.Context, opts ...TerminalOption) *TerminalObserver {
	o := &TerminalObserver{
		ctx:      ctx,
		fd:       int(os.Stdout.Fd()),
		interval: DefaultPollInterval,
		getSize:  term.GetSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Size samples the terminal once.
func (o *TerminalObserver) Size() (Size, error) {
	w, h, err := o.getSize(o.fd)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: w, Height: h}, nil
}

// Subscribe registers fn. The first subscriber starts the poll loop.
func (o *TerminalObserver) Subscribe(fn func(Size)) func() {
	o.mu.Lock()
	id, first := o.subs.add(fn)
	if first {
		o.startLocked()
	}
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			var cancel context.CancelFunc
			var done chan struct{}
			if o.subs.remove(id) {
				cancel, done = o.cancel, o.done
				o.cancel = nil
			}
			o.mu.Unlock()
			if cancel != nil {
				cancel()
				<-done
			}
		})
	}
}

// Wait blocks until the poll loop has exited.
func (o *TerminalObserver) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// startLocked runs with o.mu held.
func (o *TerminalObserver) startLocked() {
	if o.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	var last Size
	if s, err := o.Size(); err == nil {
		last = s
	}
	go o.poll(ctx, last, o.done)
}

func (o *TerminalObserver) poll(ctx context.Context, last Size, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s, err := o.Size()
			if err != nil || s == last {
				continue
			}
			last = s
			o.subs.emit(s)
		}
	}
}
