package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/detect/mocks"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQueue serves a fixed queue and treats every episode as present.
type fakeQueue struct {
	seasons  []*queue.Season
	buildErr error

	mu   sync.Mutex
	done map[detect.Mode]map[int64]bool
}

func (f *fakeQueue) Build(context.Context) (*queue.SeasonQueue, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &queue.SeasonQueue{Seasons: f.seasons}, nil
}

func (f *fakeQueue) Verify(_ context.Context, episodes []detect.QueuedEpisode, modes []detect.Mode) ([]detect.QueuedEpisode, []detect.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var outstanding []detect.Mode
	for _, mode := range modes {
		for _, ep := range episodes {
			if !f.done[mode][ep.EpisodeID] {
				outstanding = append(outstanding, mode)
				break
			}
		}
	}
	return episodes, outstanding
}

func (f *fakeQueue) markAll(modes ...detect.Mode) {
	f.done = make(map[detect.Mode]map[int64]bool)
	for _, mode := range modes {
		f.done[mode] = make(map[int64]bool)
		for _, s := range f.seasons {
			for _, ep := range s.Episodes {
				f.done[mode][ep.EpisodeID] = true
			}
		}
	}
}

// makeSeasons builds n seasons of size episodes each with unique ids.
func makeSeasons(n, size int) []*queue.Season {
	var seasons []*queue.Season
	id := int64(1)
	for s := 1; s <= n; s++ {
		season := &queue.Season{ID: int64(s), SeriesName: "Show", SeasonNumber: s}
		for e := 1; e <= size; e++ {
			season.Episodes = append(season.Episodes, detect.QueuedEpisode{
				EpisodeID: id, SeasonID: int64(s), SeriesName: "Show", SeasonNumber: s, EpisodeNumber: e,
			})
			id++
		}
		seasons = append(seasons, season)
	}
	return seasons
}

// recordingAnalyzer resolves nothing and records what it saw.
type recordingAnalyzer struct {
	name string
	err  func(episodes []detect.QueuedEpisode) error

	mu    sync.Mutex
	calls []string
}

func (a *recordingAnalyzer) Analyze(_ context.Context, episodes []detect.QueuedEpisode, mode detect.Mode) ([]detect.QueuedEpisode, error) {
	a.mu.Lock()
	a.calls = append(a.calls, a.name+":"+mode.String())
	a.mu.Unlock()
	if a.err != nil {
		if err := a.err(episodes); err != nil {
			return nil, err
		}
	}
	return episodes, nil
}

func (a *recordingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type progressRecorder struct {
	mu      sync.Mutex
	updates []Progress
}

func (p *progressRecorder) record(pr Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, pr)
}

func (p *progressRecorder) max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	best := 0
	for _, u := range p.updates {
		best = max(best, u.Percent)
	}
	return best
}

func TestRun_FullyResolvedSeasonsSkipAnalyzers(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mocks.NewMockAnalyzer(ctrl) // no calls expected

	q := &fakeQueue{seasons: makeSeasons(4, 3)}
	q.markAll(detect.AllModes...)

	o := NewOrchestrator(q, Analyzers{Chapter: analyzer, Chromaprint: analyzer, BlackFrame: analyzer},
		nil, Options{MaxParallelism: 2}, testLogger())

	var progress progressRecorder
	report, err := o.Run(context.Background(), detect.AllModes, progress.record)
	require.NoError(t, err)

	assert.Equal(t, int64(12), report.Queued)
	assert.Equal(t, report.Queued, report.Processed)
	assert.Equal(t, 4, report.SeasonsSkipped)
	assert.Equal(t, 100, progress.max())
	assert.Equal(t, "None", report.Diagnostics.String())
}

func TestRun_ChainOrderPerMode(t *testing.T) {
	chapter := &recordingAnalyzer{name: "chapter"}
	chromaprint := &recordingAnalyzer{name: "chromaprint"}
	blackframe := &recordingAnalyzer{name: "blackframe"}

	q := &fakeQueue{seasons: makeSeasons(1, 3)}
	o := NewOrchestrator(q, Analyzers{Chapter: chapter, Chromaprint: chromaprint, BlackFrame: blackframe},
		nil, Options{MaxParallelism: 1}, testLogger())

	report, err := o.Run(context.Background(), detect.AllModes, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"chapter:introduction", "chapter:credits"}, chapter.calls)
	assert.Equal(t, []string{"chromaprint:introduction", "chromaprint:credits"}, chromaprint.calls)
	assert.Equal(t, []string{"blackframe:credits"}, blackframe.calls)

	// Processed counts every episode handed to the chain once per mode.
	assert.Equal(t, int64(6), report.Processed)
	assert.Equal(t, 1, report.SeasonsAnalyzed)
}

func TestAnalyzers_ChainSkipsNilStages(t *testing.T) {
	a := &recordingAnalyzer{name: "a"}
	assert.Len(t, Analyzers{Chromaprint: a}.Chain(detect.ModeIntroduction), 1)
	assert.Len(t, Analyzers{Chromaprint: a, BlackFrame: a}.Chain(detect.ModeIntroduction), 1)
	assert.Len(t, Analyzers{Chapter: a, Chromaprint: a, BlackFrame: a}.Chain(detect.ModeCredits), 3)
}

func TestRun_PartiallyDoneSeasonCreditsDoneModes(t *testing.T) {
	chromaprint := &recordingAnalyzer{name: "chromaprint"}
	q := &fakeQueue{seasons: makeSeasons(1, 4)}
	q.markAll(detect.ModeIntroduction)

	o := NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, nil, Options{MaxParallelism: 1}, testLogger())
	report, err := o.Run(context.Background(), detect.AllModes, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"chromaprint:credits"}, chromaprint.calls)
	assert.Equal(t, int64(8), report.Processed)
}

func TestRun_FingerprintErrorIsolatesSeason(t *testing.T) {
	chromaprint := &recordingAnalyzer{
		name: "chromaprint",
		err: func(episodes []detect.QueuedEpisode) error {
			if episodes[0].SeasonNumber == 2 {
				return &detect.FingerprintError{EpisodeID: episodes[0].EpisodeID, Path: "/x.mkv", Err: errors.New("exit status 1")}
			}
			return nil
		},
	}

	bus := events.NewBus(nil, testLogger())
	defer bus.Close()
	failed := bus.Subscribe(events.EventSeasonFailed, 10)

	q := &fakeQueue{seasons: makeSeasons(3, 2)}
	o := NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, bus, Options{MaxParallelism: 3}, testLogger())

	report, err := o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, chromaprint.count())
	assert.Equal(t, 2, report.SeasonsAnalyzed)
	assert.Equal(t, 1, report.SeasonsFailed)
	assert.True(t, report.Diagnostics.Has(DiagInvalidFingerprint))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Season)
	assert.Equal(t, "introduction", report.Failures[0].Mode)

	select {
	case e := <-failed:
		sf, ok := e.(*events.SeasonFailed)
		require.True(t, ok)
		assert.Equal(t, report.RunID, sf.RunID)
		assert.Equal(t, 2, sf.Season)
	case <-time.After(time.Second):
		t.Fatal("no season failed event")
	}
}

func TestRun_OtherErrorsCountAsFailedSeasons(t *testing.T) {
	chromaprint := &recordingAnalyzer{
		name: "chromaprint",
		err:  func([]detect.QueuedEpisode) error { return errors.New("database is locked") },
	}
	q := &fakeQueue{seasons: makeSeasons(2, 2)}
	o := NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, nil, Options{MaxParallelism: 2}, testLogger())

	report, err := o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SeasonsFailed)
	assert.Equal(t, "SeasonFailed", report.Diagnostics.String())
}

func TestRun_NothingQueued(t *testing.T) {
	q := &fakeQueue{}
	o := NewOrchestrator(q, Analyzers{}, nil, Options{}, testLogger())

	report, err := o.Run(context.Background(), detect.AllModes, nil)
	require.ErrorIs(t, err, detect.ErrNothingQueued)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Error)

	assert.Same(t, report, o.Status().Last)
}

func TestRun_DecoderUnavailable(t *testing.T) {
	q := &fakeQueue{buildErr: detect.ErrDecoderUnavailable}
	o := NewOrchestrator(q, Analyzers{}, nil, Options{}, testLogger())

	report, err := o.Run(context.Background(), detect.AllModes, nil)
	require.ErrorIs(t, err, detect.ErrDecoderUnavailable)
	assert.True(t, report.Diagnostics.Has(DiagIncompatibleDecoder))
}

func TestRun_SeasonZeroSkippedByDefault(t *testing.T) {
	chromaprint := &recordingAnalyzer{name: "chromaprint"}
	seasons := makeSeasons(1, 2)
	seasons[0].SeasonNumber = 0
	q := &fakeQueue{seasons: seasons}

	o := NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, nil, Options{MaxParallelism: 1}, testLogger())
	report, err := o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	require.NoError(t, err)
	assert.Zero(t, chromaprint.count())
	assert.Zero(t, report.Processed)
	assert.Equal(t, 1, report.SeasonsSkipped)

	o = NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, nil, Options{MaxParallelism: 1, AnalyzeSeasonZero: true}, testLogger())
	_, err = o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, chromaprint.count())
}

func TestRun_Cancelled(t *testing.T) {
	chromaprint := &recordingAnalyzer{name: "chromaprint"}
	q := &fakeQueue{seasons: makeSeasons(3, 2)}
	o := NewOrchestrator(q, Analyzers{Chromaprint: chromaprint}, nil, Options{MaxParallelism: 1}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.Run(ctx, detect.AllModes, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Cancelled)
	assert.Zero(t, chromaprint.count())
}

// blockingAnalyzer waits until released.
type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	active, peak atomic.Int32
}

func newBlockingAnalyzer() *blockingAnalyzer {
	return &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
}

func (a *blockingAnalyzer) Analyze(_ context.Context, episodes []detect.QueuedEpisode, _ detect.Mode) ([]detect.QueuedEpisode, error) {
	n := a.active.Add(1)
	defer a.active.Add(-1)
	for {
		p := a.peak.Load()
		if n <= p || a.peak.CompareAndSwap(p, n) {
			break
		}
	}
	a.once.Do(func() { close(a.started) })
	<-a.release
	return episodes, nil
}

func TestRun_RejectsConcurrentScan(t *testing.T) {
	blocking := newBlockingAnalyzer()
	q := &fakeQueue{seasons: makeSeasons(1, 1)}
	o := NewOrchestrator(q, Analyzers{Chromaprint: blocking}, nil, Options{MaxParallelism: 1}, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
		done <- err
	}()
	<-blocking.started

	assert.True(t, o.Status().Running)
	_, err := o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	assert.False(t, o.Running())
}

func TestRun_LockFileExcludesOtherProcesses(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "scan.lock")

	blocking := newBlockingAnalyzer()
	first := NewOrchestrator(&fakeQueue{seasons: makeSeasons(1, 1)}, Analyzers{Chromaprint: blocking}, nil,
		Options{MaxParallelism: 1, LockPath: lockPath}, testLogger())
	second := NewOrchestrator(&fakeQueue{seasons: makeSeasons(1, 1)}, Analyzers{}, nil,
		Options{MaxParallelism: 1, LockPath: lockPath}, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := first.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
		done <- err
	}()
	<-blocking.started

	_, err := second.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(blocking.release)
	require.NoError(t, <-done)

	_, err = second.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	assert.NoError(t, err)
}

func TestRun_ParallelismBound(t *testing.T) {
	blocking := newBlockingAnalyzer()
	q := &fakeQueue{seasons: makeSeasons(6, 1)}
	o := NewOrchestrator(q, Analyzers{Chromaprint: blocking}, nil, Options{MaxParallelism: 2}, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.Run(context.Background(), []detect.Mode{detect.ModeIntroduction}, nil)
	}()
	<-blocking.started
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)
	<-done

	assert.LessOrEqual(t, blocking.peak.Load(), int32(2))
	assert.Equal(t, int64(6), o.Status().Last.Processed)
}

func TestDiagnostics_String(t *testing.T) {
	assert.Equal(t, "None", Diagnostics(0).String())
	assert.Equal(t, "InvalidFingerprint", DiagInvalidFingerprint.String())
	assert.Equal(t, "InvalidFingerprint, IncompatibleDecoder", (DiagIncompatibleDecoder | DiagInvalidFingerprint).String())

	text, err := (DiagSeasonFailed).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SeasonFailed", string(text))
}
