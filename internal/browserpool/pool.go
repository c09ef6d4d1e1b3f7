// Package browserpool maintains a fixed-size set of long-lived headless
// browser workers and hands out short-lived isolated sessions ("contexts")
// to callers one at a time.
package browserpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"brandintel/internal/metrics"
)

// Viewport and UserAgent are fixed for every Context the pool issues.
const (
	viewportWidth  = 1280
	viewportHeight = 720
	userAgent      = "brandintel-scraper/1.0 (+https://brandintel.invalid/bot)"
)

var errPoolClosed = fmt.Errorf("browserpool: pool closed")

// ErrAcquireTimeout is returned by Acquire when no worker became free
// within the requested timeout.
var ErrAcquireTimeout = fmt.Errorf("browserpool: acquire timed out")

// Lease is a temporary exclusive claim on one worker. The zero Lease is
// not valid; only values returned by Acquire may be released.
type Lease struct {
	browser *rod.Browser
}

// Context is a fresh isolated browser session belonging to a Lease.
type Context struct {
	page *rod.Page
}

// Page exposes the underlying rod page for the scraper to drive.
func (c *Context) Page() *rod.Page { return c.page }

// Pool is a fixed-size set of reusable rod browser workers.
type Pool struct {
	mu        sync.Mutex
	workers   []*rod.Browser
	launchers []*launcher.Launcher
	available chan *rod.Browser
	total     int
	inUse     int
	closed    bool
}

// New constructs an empty Pool. Call Init to launch workers.
func New() *Pool {
	return &Pool{}
}

// Init launches n headless workers with sandbox and GPU disabled. It is
// idempotent after first success. If any worker fails to launch, the
// already-launched workers are torn down before the launch or connect
// error is returned.
func (p *Pool) Init(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		return nil
	}

	workers := make([]*rod.Browser, 0, n)
	launchers := make([]*launcher.Launcher, 0, n)

	for i := 0; i < n; i++ {
		var l *launcher.Launcher
		if path, has := launcher.LookPath(); has {
			l = launcher.New().Bin(path)
		} else {
			l = launcher.New()
		}
		l = l.Headless(true).NoSandbox(true).Set("disable-gpu")

		u, err := l.Launch()
		if err != nil {
			teardown(workers, launchers)
			return fmt.Errorf("browserpool: init worker %d: %w", i, err)
		}
		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			l.Kill()
			teardown(workers, launchers)
			return fmt.Errorf("browserpool: connect worker %d: %w", i, err)
		}
		workers = append(workers, b)
		launchers = append(launchers, l)
	}

	p.workers = workers
	p.launchers = launchers
	p.total = n
	p.available = make(chan *rod.Browser, n)
	for _, b := range workers {
		p.available <- b
	}

	metrics.SetPoolStats(p.total, p.inUse, len(p.available))
	return nil
}

func teardown(workers []*rod.Browser, launchers []*launcher.Launcher) {
	for _, b := range workers {
		_ = b.Close()
	}
	for _, l := range launchers {
		l.Kill()
	}
}

// Acquire waits up to timeout for a free worker. FIFO among waiters is the
// natural ordering of the buffered channel of idle workers.
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Lease{}, errPoolClosed
	}
	available := p.available
	p.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b, ok := <-available:
		if !ok {
			return Lease{}, errPoolClosed
		}
		p.mu.Lock()
		p.inUse++
		metrics.SetPoolStats(p.total, p.inUse, p.total-p.inUse)
		p.mu.Unlock()
		return Lease{browser: b}, nil
	case <-timer.C:
		return Lease{}, ErrAcquireTimeout
	case <-ctx.Done():
		return Lease{}, ctx.Err()
	}
}

// NewContext allocates a fresh isolated page with a fixed viewport and
// user-agent.
func (p *Pool) NewContext(lease Lease) (*Context, error) {
	page, err := lease.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browserpool: new context: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  viewportWidth,
		Height: viewportHeight,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browserpool: set viewport: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browserpool: set user agent: %w", err)
	}
	return &Context{page: page}, nil
}

// Release closes ctx, then returns the worker to the free set. Release
// must be called on every exit path (success, panic, cancellation); a
// leaked Lease is a fatal invariant violation, never merely logged.
func (p *Pool) Release(ctx *Context, lease Lease) {
	if ctx != nil && ctx.page != nil {
		_ = ctx.page.Close()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inUse > 0 {
		p.inUse--
	}

	if p.closed {
		_ = lease.browser.Close()
		return
	}

	select {
	case p.available <- lease.browser:
	default:
		panic("browserpool: release invariant violated, available channel full")
	}

	metrics.SetPoolStats(p.total, p.inUse, p.total-p.inUse)
}

// Stats reports the pool's current gauge values.
type Stats struct {
	Total       int
	InUse       int
	Available   int
	Initialized bool
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Total:       p.total,
		InUse:       p.inUse,
		Available:   p.total - p.inUse,
		Initialized: p.total > 0,
	}
}

// Close tears every worker down. Idempotent; safe to call during Acquire
// contention — outstanding Acquires fail with errPoolClosed once the
// available channel is drained and closed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	workers := p.workers
	launchers := p.launchers
	available := p.available
	p.mu.Unlock()

	if available != nil {
		close(available)
		for b := range available {
			_ = b
		}
	}

	teardown(workers, launchers)

	p.mu.Lock()
	p.total = 0
	p.inUse = 0
	p.mu.Unlock()
	metrics.SetPoolStats(0, 0, 0)
	return nil
}
