package autocomplete

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightbook/pkg/logger"
)

const testDebounce = 10 * time.Millisecond

func testLogger(t *testing.T) logger.Client {
	t.Helper()
	return logger.NewZeroLog("production")
}

// recordingLookup counts calls and returns a fixed batch per keyword.
type recordingLookup struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]Suggestion
}

func (r *recordingLookup) lookup(_ context.Context, keyword string) ([]Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, keyword)
	return r.results[keyword], nil
}

func (r *recordingLookup) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestInputBelowMinimumClearsToIdle(t *testing.T) {
	rec := &recordingLookup{}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	res := waitResult(t, c.Input(context.Background(), FieldOrigin, "C"))

	assert.Nil(t, res.Suggestions)
	assert.False(t, res.Stale)
	assert.NoError(t, res.Err)

	snap := c.Snapshot(FieldOrigin)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Suggestions)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, rec.callCount(), "no lookup for input under two characters")
}

func TestDebounceCoalescesRapidInput(t *testing.T) {
	rec := &recordingLookup{results: map[string][]Suggestion{
		"Chen": {{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}},
	}}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(50*time.Millisecond))
	defer c.Close()

	first := c.Input(context.Background(), FieldOrigin, "Ch")
	second := c.Input(context.Background(), FieldOrigin, "Chen")

	assert.True(t, waitResult(t, first).Stale, "earlier input within the window loses")

	res := waitResult(t, second)
	require.NoError(t, res.Err)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "Chennai", res.Suggestions[0].CityName)

	assert.Equal(t, 1, rec.callCount(), "only the final input dispatches")
	rec.mu.Lock()
	assert.Equal(t, []string{"Chen"}, rec.calls)
	rec.mu.Unlock()
}

func TestStaleCompletionNeverDisplays(t *testing.T) {
	// The first lookup is held open until after the second completes, so
	// its response arrives out of order.
	release := make(chan struct{})
	lookup := func(_ context.Context, keyword string) ([]Suggestion, error) {
		if keyword == "Chen" {
			<-release
			return []Suggestion{{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}}, nil
		}
		return []Suggestion{{ID: "CNRT", CityName: "Tokyo", IataCode: "NRT"}}, nil
	}
	c := NewController(lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	first := c.Input(context.Background(), FieldOrigin, "Chen")
	time.Sleep(3 * testDebounce) // let the first lookup start and block

	second := c.Input(context.Background(), FieldOrigin, "Toky")

	assert.True(t, waitResult(t, first).Stale)

	res := waitResult(t, second)
	require.NoError(t, res.Err)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "Tokyo", res.Suggestions[0].CityName)

	close(release)
	time.Sleep(3 * testDebounce)

	snap := c.Snapshot(FieldOrigin)
	require.Len(t, snap.Suggestions, 1)
	assert.Equal(t, "Tokyo", snap.Suggestions[0].CityName, "late completion must not replace newer suggestions")
}

func TestSelectCommitsLabelAndClears(t *testing.T) {
	rec := &recordingLookup{results: map[string][]Suggestion{
		"Chen": {{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}},
	}}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	res := waitResult(t, c.Input(context.Background(), FieldOrigin, "Chen"))
	require.Len(t, res.Suggestions, 1)

	label := c.Select(FieldOrigin, res.Suggestions[0])
	assert.Equal(t, "Chennai (MAA)", label)

	snap := c.Snapshot(FieldOrigin)
	assert.Equal(t, "Chennai (MAA)", snap.Text)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Suggestions)
}

func TestBlurDiscardsInFlightLookup(t *testing.T) {
	release := make(chan struct{})
	lookup := func(_ context.Context, _ string) ([]Suggestion, error) {
		<-release
		return []Suggestion{{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}}, nil
	}
	c := NewController(lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	ch := c.Input(context.Background(), FieldOrigin, "Chen")
	time.Sleep(3 * testDebounce)

	c.Blur(FieldOrigin)
	assert.True(t, waitResult(t, ch).Stale)

	close(release)
	time.Sleep(3 * testDebounce)

	snap := c.Snapshot(FieldOrigin)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Suggestions)
}

func TestLookupErrorReturnsToIdleWithMessage(t *testing.T) {
	lookupErr := errors.New("upstream unavailable")
	lookup := func(_ context.Context, _ string) ([]Suggestion, error) {
		return nil, lookupErr
	}
	c := NewController(lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	res := waitResult(t, c.Input(context.Background(), FieldOrigin, "Chen"))
	assert.ErrorIs(t, res.Err, lookupErr)

	snap := c.Snapshot(FieldOrigin)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "Failed to fetch city suggestions. Try again later.", snap.Error)
	assert.Empty(t, snap.Suggestions)
}

func TestSnapshotWithholdsUnfocusedSuggestions(t *testing.T) {
	rec := &recordingLookup{results: map[string][]Suggestion{
		"Chen": {{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}},
	}}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	res := waitResult(t, c.Input(context.Background(), FieldOrigin, "Chen"))
	require.Len(t, res.Suggestions, 1)
	assert.NotEmpty(t, c.Snapshot(FieldOrigin).Suggestions)

	c.Focus(FieldDestination)
	assert.Empty(t, c.Snapshot(FieldOrigin).Suggestions, "only the focused field renders suggestions")
}

func TestFieldsDebounceIndependently(t *testing.T) {
	rec := &recordingLookup{results: map[string][]Suggestion{
		"Chen": {{ID: "CMAA", CityName: "Chennai", IataCode: "MAA"}},
		"Toky": {{ID: "CNRT", CityName: "Tokyo", IataCode: "NRT"}},
	}}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(testDebounce))
	defer c.Close()

	origin := c.Input(context.Background(), FieldOrigin, "Chen")
	dest := c.Input(context.Background(), FieldDestination, "Toky")

	originRes := waitResult(t, origin)
	destRes := waitResult(t, dest)

	require.NoError(t, originRes.Err)
	require.NoError(t, destRes.Err)
	assert.False(t, originRes.Stale, "input on one field must not supersede the other")
	require.Len(t, originRes.Suggestions, 1)
	require.Len(t, destRes.Suggestions, 1)
	assert.Equal(t, "Chennai", originRes.Suggestions[0].CityName)
	assert.Equal(t, "Tokyo", destRes.Suggestions[0].CityName)
}

func TestCloseReleasesOutstandingWaiters(t *testing.T) {
	rec := &recordingLookup{}
	c := NewController(rec.lookup, testLogger(t), WithDebounce(time.Second))

	ch := c.Input(context.Background(), FieldOrigin, "Chen")
	c.Close()

	assert.True(t, waitResult(t, ch).Stale)
	assert.True(t, waitResult(t, c.Input(context.Background(), FieldOrigin, "Toky")).Stale,
		"input after close resolves immediately")
	assert.Equal(t, 0, rec.callCount())
}
