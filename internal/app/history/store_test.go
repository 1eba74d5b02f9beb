package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/adapters/storage/memory"
	"github.com/PabloGalante/speech-coach/internal/app/history"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

// fixedClock advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newStore(t *testing.T, kv domain.KeyValueStore) *history.Store {
	t.Helper()
	return history.NewStore(kv, history.Options{
		Now: fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
}

func session(text string, duration float64) domain.SessionInput {
	return domain.SessionInput{
		Transcript: text,
		Scenario:   domain.ScenarioGeneral,
		Metrics:    domain.SpeechMetrics{WordCount: 2, Duration: duration},
		Duration:   duration,
	}
}

func TestRecordSkipsShortOrEmptySessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.NewKV())

	for _, in := range []domain.SessionInput{
		session("hello world", 5),
		session("hello world", 0),
		session("   ", 60),
		session("", 60),
	} {
		rec, err := s.Record(ctx, in)
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
	assert.Empty(t, s.History(ctx))
}

func TestRecordAssignsIDAndDate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.NewKV())

	analysis := &domain.AnalysisResult{OverallScore: 9, Improvements: []string{"x"}, Corrections: []domain.Correction{}}
	in := session("hello world", 5.5)
	in.Analysis = analysis

	rec, err := s.Record(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, rec)

	want := time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC)
	assert.Equal(t, want.UnixMilli(), rec.ID)
	assert.Equal(t, "2026-03-01T09:00:01.000Z", rec.Date)
	assert.True(t, want.Equal(rec.CreatedAt()))
	assert.Equal(t, 5.5, rec.Duration)
	assert.Equal(t, analysis, rec.Analysis)

	// Mutating the caller's value must not reach the stored record.
	analysis.Improvements[0] = "changed"
	assert.Equal(t, []string{"x"}, s.History(ctx)[0].Analysis.Improvements)
}

func TestRecordIDsStayUniqueWithinSameMillisecond(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := history.NewStore(memory.NewKV(), history.Options{Now: func() time.Time { return now }})

	a, err := s.Record(ctx, session("one two", 10))
	require.NoError(t, err)
	b, err := s.Record(ctx, session("three four", 10))
	require.NoError(t, err)

	assert.Greater(t, b.ID, a.ID)
}

func TestHistoryBoundedNewestFirstAcrossReload(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newStore(t, kv)

	for i := 0; i < 25; i++ {
		_, err := s.Record(ctx, session(fmt.Sprintf("session %d", i), 30))
		require.NoError(t, err)
		require.LessOrEqual(t, len(s.History(ctx)), history.DefaultCapacity)
	}

	check := func(h []domain.SessionRecord) {
		require.Len(t, h, 20)
		for i, r := range h {
			assert.Equal(t, fmt.Sprintf("session %d", 24-i), r.Transcript)
			if i > 0 {
				assert.Greater(t, h[i-1].ID, r.ID)
			}
		}
	}
	check(s.History(ctx))

	reloaded := newStore(t, kv).Load(ctx)
	check(reloaded)
}

func TestEmptyHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newStore(t, kv)

	require.NoError(t, s.Clear(ctx))

	raw, ok, err := kv.Get(ctx, domain.KeyHistory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)

	assert.Empty(t, newStore(t, kv).Load(ctx))
}

func TestLoadToleratesAbsentAndCorruptData(t *testing.T) {
	ctx := context.Background()

	kv := memory.NewKV()
	assert.Empty(t, newStore(t, kv).Load(ctx))

	require.NoError(t, kv.Set(ctx, domain.KeyHistory, "{not json"))
	assert.Empty(t, newStore(t, kv).Load(ctx))

	require.NoError(t, kv.Set(ctx, domain.KeyHistory, `{"id": 1}`))
	assert.Empty(t, newStore(t, kv).Load(ctx))

	closed := memory.NewKV()
	require.NoError(t, closed.Close())
	assert.Empty(t, newStore(t, closed).Load(ctx))
}

func TestRecordSurvivesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.Close())
	s := newStore(t, kv)

	rec, err := s.Record(ctx, session("still kept", 20))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, s.History(ctx), 1)
}

func TestClearIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newStore(t, kv)

	_, err := s.Record(ctx, session("keep me", 20))
	require.NoError(t, err)

	require.NoError(t, kv.Close())
	err = s.Clear(ctx)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "set", perr.Op)
	assert.Len(t, s.History(ctx), 1, "history unchanged when the write fails")
}

func TestClearEmptiesMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	s := newStore(t, kv)

	for i := 0; i < 3; i++ {
		_, err := s.Record(ctx, session("words here", 20))
		require.NoError(t, err)
	}
	require.NoError(t, s.Clear(ctx))

	assert.Empty(t, s.History(ctx))
	assert.Empty(t, newStore(t, kv).Load(ctx))
}
