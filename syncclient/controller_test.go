package syncclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panpapadopoulos/subtrack/dataset"
	"github.com/panpapadopoulos/subtrack/syncclient"
)

const window = 2 * time.Second

// fakeGateway is a minimal stand-in for the data API: it serves a canned
// dataset on GET and records every POST body.
type fakeGateway struct {
	mu         sync.Mutex
	getStatus  int
	getBody    string
	postStatus int
	posts      [][]byte
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		getStatus:  http.StatusOK,
		getBody:    `{"jobs":[],"payments":[]}`,
		postStatus: http.StatusOK,
	}
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.URL.Path != "/api/data" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.getStatus)
		w.Write([]byte(f.getBody))
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.posts = append(f.posts, body)
		w.WriteHeader(f.postStatus)
		w.Write([]byte(`{"success":true}`))
	}
}

func (f *fakeGateway) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeGateway) sawPostWithPayments(n int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, raw := range f.posts {
		if d, err := dataset.Unmarshal(raw); err == nil && len(d.Payments) == n {
			return true
		}
	}
	return false
}

func (f *fakeGateway) lastPost(t *testing.T) dataset.Dataset {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.posts)
	d, err := dataset.Unmarshal(f.posts[len(f.posts)-1])
	require.NoError(t, err)
	return d
}

func setup(t *testing.T) (*syncclient.Controller, *fakeGateway, *clock.Mock) {
	t.Helper()
	fg := newFakeGateway()
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)

	mock := clock.NewMock()
	c := syncclient.New(srv.URL,
		syncclient.WithClock(mock),
		syncclient.WithWindow(window),
	)
	return c, fg, mock
}

// settle gives mock-triggered save goroutines time to finish before a
// negative assertion.
func settle() {
	time.Sleep(50 * time.Millisecond)
}

func TestLoadPopulatesWorkingCopy(t *testing.T) {
	c, fg, mock := setup(t)
	fg.getBody = `{"jobs":[{"id":"j-1","date":"2026-03-02","hours":7}],"payments":[]}`

	c.Load(context.Background())

	d := c.Dataset()
	require.Len(t, d.Jobs, 1)
	assert.Equal(t, "j-1", d.Jobs[0].ID)

	// The state right after load is never written back.
	mock.Add(10 * window)
	settle()
	assert.Zero(t, fg.postCount())
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	c, fg, _ := setup(t)
	fg.getStatus = http.StatusInternalServerError

	c.Load(context.Background())

	d := c.Dataset()
	assert.Empty(t, d.Jobs)
	assert.Empty(t, d.Payments)
}

func TestLoadUnreachableServerStartsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := syncclient.New(srv.URL, syncclient.WithClock(clock.NewMock()))
	c.Load(context.Background())

	d := c.Dataset()
	assert.Empty(t, d.Jobs)
	assert.Empty(t, d.Payments)
}

func TestLoadUnauthorizedFiresHook(t *testing.T) {
	fg := newFakeGateway()
	fg.getStatus = http.StatusUnauthorized
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)

	var reloads int
	c := syncclient.New(srv.URL,
		syncclient.WithClock(clock.NewMock()),
		syncclient.WithAuthExpiredHook(func() { reloads++ }),
	)
	c.Load(context.Background())

	assert.Equal(t, 1, reloads)
	assert.Empty(t, c.Dataset().Jobs)
}

func TestBurstOfEditsSavesOnceWithFinalState(t *testing.T) {
	c, fg, mock := setup(t)
	c.Load(context.Background())

	const k = 5
	var last dataset.Job
	for i := 0; i < k; i++ {
		last = dataset.NewJob("2026-03-02", "Art", "M. Webb", "East Elementary", "Hadley", dataset.HalfDay, "08:00", "11:30")
		c.AddJob(last)
	}

	// Nothing is written before the quiet period elapses.
	mock.Add(window - time.Millisecond)
	settle()
	require.Zero(t, fg.postCount())

	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return fg.postCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	d := fg.lastPost(t)
	require.Len(t, d.Jobs, k, "payload reflects the state after the last edit")
	assert.Equal(t, last.ID, d.Jobs[k-1].ID)

	// And exactly once: more virtual time brings no further writes.
	mock.Add(10 * window)
	settle()
	assert.Equal(t, 1, fg.postCount())
}

func TestEditResetsQuietPeriod(t *testing.T) {
	c, fg, mock := setup(t)
	c.Load(context.Background())

	c.AddPayment(dataset.NewPayment("2026-03-15", "Amherst", 95))
	mock.Add(window / 2)
	settle()
	require.Zero(t, fg.postCount())

	// A second edit cancels the pending save and re-arms the full window.
	c.AddPayment(dataset.NewPayment("2026-03-16", "Amherst", 47.5))
	mock.Add(window / 2)
	settle()
	require.Zero(t, fg.postCount(), "half a window after the last edit is too soon")

	mock.Add(window / 2)
	require.Eventually(t, func() bool { return fg.postCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	d := fg.lastPost(t)
	assert.Len(t, d.Payments, 2)
}

func TestSaveFailureIsSwallowed(t *testing.T) {
	c, fg, mock := setup(t)
	c.Load(context.Background())

	fg.mu.Lock()
	fg.postStatus = http.StatusInternalServerError
	fg.mu.Unlock()

	c.AddJob(dataset.NewJob("2026-03-02", "Music", "D. Reyes", "East Elementary", "Hadley", dataset.FullDay, "08:00", "15:00"))
	mock.Add(window)
	require.Eventually(t, func() bool { return fg.postCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	// No retry, no rollback: the local copy keeps the edit.
	mock.Add(10 * window)
	settle()
	assert.Equal(t, 1, fg.postCount())
	assert.Len(t, c.Dataset().Jobs, 1)

	// The next edit saves normally once the server recovers.
	fg.mu.Lock()
	fg.postStatus = http.StatusOK
	fg.mu.Unlock()

	c.AddJob(dataset.NewJob("2026-03-03", "Music", "D. Reyes", "East Elementary", "Hadley", dataset.FullDay, "08:00", "15:00"))
	mock.Add(window)
	require.Eventually(t, func() bool { return fg.postCount() == 2 },
		2*time.Second, 10*time.Millisecond)
	assert.Len(t, fg.lastPost(t).Jobs, 2)
}

func TestEditsBeforeLoadDoNotSave(t *testing.T) {
	c, fg, mock := setup(t)

	c.AddJob(dataset.NewJob("2026-03-02", "PE", "S. Kim", "North High", "Amherst", dataset.HalfDay, "08:00", "11:30"))
	mock.Add(10 * window)
	settle()
	assert.Zero(t, fg.postCount())
}

func TestUpdateAndRemove(t *testing.T) {
	c, fg, mock := setup(t)
	c.Load(context.Background())

	j := dataset.NewJob("2026-03-02", "History", "A. Patel", "West High", "Hadley", dataset.FullDay, "08:00", "15:00")
	p := dataset.NewPayment("2026-03-15", "Hadley", 120)
	c.AddJob(j)
	c.AddPayment(p)

	j.ClassName = "World History"
	c.UpdateJob(j)
	c.RemovePayment(p.ID)

	mock.Add(window)
	require.Eventually(t, func() bool { return fg.postCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	d := fg.lastPost(t)
	require.Len(t, d.Jobs, 1)
	assert.Equal(t, "World History", d.Jobs[0].ClassName)
	assert.Empty(t, d.Payments)
}

func TestTimerFireRacingNextEditLeavesNoOrphanSave(t *testing.T) {
	c, fg, mock := setup(t)
	c.Load(context.Background())

	// Fire the quiet-period timer right after every edit so each fired
	// callback races the next edit's re-arm for the controller lock. A fire
	// that loses that race must be discarded; it must not erase the fresh
	// timer's handle and leave it to go off as a duplicate save.
	const edits = 25
	for i := 0; i < edits; i++ {
		c.AddPayment(dataset.NewPayment("2026-03-15", "Hadley", float64(i+1)))
		mock.Add(window)
	}

	require.Eventually(t, func() bool { return fg.sawPostWithPayments(edits) },
		2*time.Second, 10*time.Millisecond, "the final state must be saved")
	settle()

	total := fg.postCount()
	assert.LessOrEqual(t, total, edits)

	// Quiescent for good: no stray timer fires later.
	mock.Add(100 * window)
	settle()
	assert.Equal(t, total, fg.postCount())
}

func TestFlushForcesPendingSave(t *testing.T) {
	c, fg, _ := setup(t)
	c.Load(context.Background())

	c.AddJob(dataset.NewJob("2026-03-02", "Drama", "T. Ames", "North High", "Amherst", dataset.HalfDay, "12:00", "15:30"))
	c.Flush()

	assert.Equal(t, 1, fg.postCount())
	assert.Len(t, fg.lastPost(t).Jobs, 1)

	// Nothing pending, nothing sent.
	c.Flush()
	assert.Equal(t, 1, fg.postCount())
}
