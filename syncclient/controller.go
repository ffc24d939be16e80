// Package syncclient implements the client-side sync controller: it loads
// the dataset once at startup, keeps a local working copy, and persists
// every burst of edits as a single debounced full-overwrite save.
//
// The server is the source of truth only at load time; after that the
// working copy is the user's view of truth until the next successful save.
package syncclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/panpapadopoulos/subtrack/dataset"
)

// defaultWindow is the quiet period after the last edit before a save is
// dispatched.
const defaultWindow = 2 * time.Second

// Controller synchronizes a local working dataset with the gateway.
type Controller struct {
	baseURL string
	client  *http.Client
	clk     clock.Clock
	window  time.Duration
	logger  *slog.Logger

	// onAuthExpired fires when the initial load is rejected as
	// unauthenticated, so the embedding app can force a full reload and
	// land on the gateway's login gate.
	onAuthExpired func()

	mu     sync.Mutex
	data   dataset.Dataset
	loaded bool
	timer  *clock.Timer
	gen    uint64 // bumped on every (re)schedule; stale timer fires bail out
}

// Option configures the Controller.
type Option func(*Controller)

// WithHTTPClient overrides the HTTP client used for load and save calls.
// The client should carry a cookie jar holding the session credential.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) { c.client = client }
}

// WithClock substitutes the clock used for debounce timers; tests pass a
// mock to advance virtual time deterministically.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clk = clk }
}

// WithWindow overrides the debounce quiet period.
func WithWindow(window time.Duration) Option {
	return func(c *Controller) { c.window = window }
}

// WithLogger sets the structured logger for swallowed save failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithAuthExpiredHook registers the callback invoked when the initial load
// is rejected with 401.
func WithAuthExpiredHook(fn func()) Option {
	return func(c *Controller) { c.onAuthExpired = fn }
}

// New creates a Controller for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Controller {
	c := &Controller{
		baseURL: baseURL,
		window:  defaultWindow,
		data:    dataset.Empty(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.clk == nil {
		c.clk = clock.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Load fetches the dataset once. Any failure degrades to empty collections:
// a 401 additionally fires the auth-expired hook, and nothing surfaces as
// an error to the caller. Load never schedules a save, so the state right
// after load is never written back.
func (c *Controller) Load(ctx context.Context) {
	loaded := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = loaded
	c.loaded = true
}

func (c *Controller) fetch(ctx context.Context) dataset.Dataset {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/data", nil)
	if err != nil {
		c.logger.Warn("building load request, starting empty", "error", err)
		return dataset.Empty()
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("loading dataset failed, starting empty", "error", err)
		return dataset.Empty()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("load rejected as unauthenticated, starting empty")
		if c.onAuthExpired != nil {
			c.onAuthExpired()
		}
		return dataset.Empty()
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("loading dataset failed, starting empty", "status", resp.StatusCode)
		return dataset.Empty()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading dataset body failed, starting empty", "error", err)
		return dataset.Empty()
	}
	loaded, err := dataset.Unmarshal(body)
	if err != nil {
		c.logger.Warn("decoding dataset failed, starting empty", "error", err)
		return dataset.Empty()
	}
	return loaded
}

// Dataset returns a copy of the working dataset.
func (c *Controller) Dataset() dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dataset.Dataset{
		Jobs:     append([]dataset.Job{}, c.data.Jobs...),
		Payments: append([]dataset.Payment{}, c.data.Payments...),
	}
}

// AddJob appends a job and schedules a save.
func (c *Controller) AddJob(j dataset.Job) {
	c.mutate(func(d *dataset.Dataset) {
		d.Jobs = append(d.Jobs, j)
	})
}

// UpdateJob replaces the job with a matching ID and schedules a save.
// Unknown IDs are ignored.
func (c *Controller) UpdateJob(j dataset.Job) {
	c.mutate(func(d *dataset.Dataset) {
		for i := range d.Jobs {
			if d.Jobs[i].ID == j.ID {
				d.Jobs[i] = j
				return
			}
		}
	})
}

// RemoveJob deletes the job with the given ID and schedules a save.
func (c *Controller) RemoveJob(id string) {
	c.mutate(func(d *dataset.Dataset) {
		for i := range d.Jobs {
			if d.Jobs[i].ID == id {
				d.Jobs = append(d.Jobs[:i], d.Jobs[i+1:]...)
				return
			}
		}
	})
}

// AddPayment appends a payment and schedules a save.
func (c *Controller) AddPayment(p dataset.Payment) {
	c.mutate(func(d *dataset.Dataset) {
		d.Payments = append(d.Payments, p)
	})
}

// UpdatePayment replaces the payment with a matching ID and schedules a
// save. Unknown IDs are ignored.
func (c *Controller) UpdatePayment(p dataset.Payment) {
	c.mutate(func(d *dataset.Dataset) {
		for i := range d.Payments {
			if d.Payments[i].ID == p.ID {
				d.Payments[i] = p
				return
			}
		}
	})
}

// RemovePayment deletes the payment with the given ID and schedules a save.
func (c *Controller) RemovePayment(id string) {
	c.mutate(func(d *dataset.Dataset) {
		for i := range d.Payments {
			if d.Payments[i].ID == id {
				d.Payments = append(d.Payments[:i], d.Payments[i+1:]...)
				return
			}
		}
	})
}

// Replace swaps in an entirely new working dataset and schedules a save.
func (c *Controller) Replace(d dataset.Dataset) {
	c.mutate(func(dst *dataset.Dataset) {
		*dst = d
	})
}

// mutate applies fn to the working copy and (re)schedules the debounced
// save. Each edit stops any pending timer and arms a fresh one for the full
// quiet period, so a burst of edits yields exactly one save carrying the
// final state. Edits before Load completes only touch the working copy.
func (c *Controller) mutate(fn func(*dataset.Dataset)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.data)
	if !c.loaded {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clk.AfterFunc(c.window, func() { c.flush(gen) })
}

// flush dispatches the save. Once issued it runs to completion; a failure
// is logged and swallowed, with no retry and no rollback of local state.
// A fire whose generation was superseded — the timer went off just as a new
// edit re-armed the schedule — is a no-op; the newer timer owns the save.
func (c *Controller) flush(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	doc, err := c.data.Marshal()
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("save skipped: encoding dataset failed", "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/data", bytes.NewReader(doc))
	if err != nil {
		c.logger.Warn("save skipped: building request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("save failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("save failed", "status", resp.StatusCode)
		return
	}
}

// Flush forces any pending save to run immediately. Intended for orderly
// shutdown, where waiting out the quiet period would lose the last edits.
func (c *Controller) Flush() {
	c.mu.Lock()
	pending := c.timer != nil
	if pending {
		c.timer.Stop()
		c.timer = nil
		c.gen++ // invalidate a fire already racing for the lock
	}
	gen := c.gen
	c.mu.Unlock()
	if pending {
		c.flush(gen)
	}
}

// String describes the controller state, for logs.
func (c *Controller) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := "loading"
	if c.loaded {
		state = "idle"
		if c.timer != nil {
			state = "save scheduled"
		}
	}
	return fmt.Sprintf("syncclient(%s, %d jobs, %d payments)", state, len(c.data.Jobs), len(c.data.Payments))
}
