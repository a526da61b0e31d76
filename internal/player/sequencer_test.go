package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/megastudio/studio-agent/internal/studio"
)

type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	d       time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	f := t.f
	t.mu.Unlock()
	if !stopped {
		f()
	}
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f, d: d}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) lastTimer(t *testing.T) *fakeTimer {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		n := len(c.timers)
		c.mu.Unlock()
		if n > 0 {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.timers[n-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no timer was armed")
	return nil
}

type fakeHandle struct {
	done chan error
	once sync.Once
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan error, 1)}
}

func (h *fakeHandle) Done() <-chan error { return h.done }

func (h *fakeHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *fakeHandle) complete(err error) {
	h.once.Do(func() {
		h.done <- err
		close(h.done)
	})
}

type fakeAudio struct {
	mu      sync.Mutex
	loadErr error
	handles []*fakeHandle
	played  chan *fakeHandle
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{played: make(chan *fakeHandle, 16)}
}

func (a *fakeAudio) Play(ctx context.Context, url string) (AudioHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	h := newFakeHandle()
	a.handles = append(a.handles, h)
	a.played <- h
	return h, nil
}

func (a *fakeAudio) nextHandle(t *testing.T) *fakeHandle {
	t.Helper()
	select {
	case h := <-a.played:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("narration playback never started")
		return nil
	}
}

func testProject(sceneCount int, withAudio bool) *studio.Project {
	scenes := make([]studio.Scene, sceneCount)
	for i := range scenes {
		scenes[i] = studio.Scene{
			Index:             i,
			Narration:         "line",
			SearchTerm:        "term",
			EstimatedDuration: 3,
			Visual:            studio.NoVisual(),
		}
		if withAudio {
			scenes[i].NarrationAudioURL = "audio://scene"
		}
	}
	return &studio.Project{
		ID:           studio.NewID(),
		Title:        "Test Show",
		OutputFormat: studio.FormatLandscape,
		Scenes:       scenes,
		CreatedAt:    time.Now(),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSequencer_AdvancesWhenAudioEnds(t *testing.T) {
	clock := &fakeClock{}
	audio := newFakeAudio()
	seq := NewSequencer(clock, audio, nil)

	seq.Load(testProject(2, true))
	seq.Play(context.Background())

	h := audio.nextHandle(t)
	h.complete(nil)

	waitFor(t, "advance to scene 1", func() bool { return seq.State().Index == 1 })
}

func TestSequencer_FallbackTimerWhenAudioMissing(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)

	project := testProject(2, false)
	project.Scenes[0].EstimatedDuration = 0
	seq.Load(project)
	seq.Play(context.Background())

	timer := clock.lastTimer(t)
	if timer.d != studio.DefaultSceneDuration {
		t.Errorf("fallback duration = %v, want %v", timer.d, studio.DefaultSceneDuration)
	}

	timer.fire()
	waitFor(t, "advance to scene 1", func() bool { return seq.State().Index == 1 })
}

func TestSequencer_FallbackDurationUsesEstimate(t *testing.T) {
	for _, tt := range []struct {
		estimated float64
		want      time.Duration
	}{
		{8, 8 * time.Second},
		{4, 4 * time.Second},
	} {
		clock := &fakeClock{}
		seq := NewSequencer(clock, newFakeAudio(), nil)

		project := testProject(2, false)
		project.Scenes[0].EstimatedDuration = tt.estimated
		seq.Load(project)
		seq.Play(context.Background())

		timer := clock.lastTimer(t)
		if timer.d != tt.want {
			t.Errorf("fallback duration for %vs estimate = %v, want %v", tt.estimated, timer.d, tt.want)
		}
	}
}

func TestSequencer_FallbackTimerOnLoadFailure(t *testing.T) {
	clock := &fakeClock{}
	audio := newFakeAudio()
	audio.loadErr = context.DeadlineExceeded
	seq := NewSequencer(clock, audio, nil)

	seq.Load(testProject(2, true))
	seq.Play(context.Background())

	timer := clock.lastTimer(t)
	timer.fire()
	waitFor(t, "advance to scene 1", func() bool { return seq.State().Index == 1 })
}

func TestSequencer_PauseDisarmsAdvance(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)

	seq.Load(testProject(3, false))
	seq.Play(context.Background())

	timer := clock.lastTimer(t)
	seq.Pause()
	timer.fire()

	time.Sleep(20 * time.Millisecond)
	state := seq.State()
	if state.Index != 0 {
		t.Errorf("index after paused timer fire = %d, want 0", state.Index)
	}
	if state.Playing {
		t.Error("sequencer still playing after Pause()")
	}
}

func TestSequencer_StaleAudioCannotDoubleAdvance(t *testing.T) {
	clock := &fakeClock{}
	audio := newFakeAudio()
	seq := NewSequencer(clock, audio, nil)

	seq.Load(testProject(3, true))
	seq.Play(context.Background())

	first := audio.nextHandle(t)

	// Manual skip invalidates the first scene's narration.
	seq.Next(context.Background())
	waitFor(t, "scene 1 active", func() bool { return seq.State().Index == 1 })

	// The abandoned handle finishing must not advance again.
	first.complete(nil)
	time.Sleep(20 * time.Millisecond)

	if got := seq.State().Index; got != 1 {
		t.Errorf("index = %d, want 1 after stale audio completion", got)
	}
}

func TestSequencer_FinishesAtLastScene(t *testing.T) {
	clock := &fakeClock{}
	audio := newFakeAudio()
	seq := NewSequencer(clock, audio, nil)

	events, cancel := seq.Subscribe()
	defer cancel()

	seq.Load(testProject(1, true))
	seq.Play(context.Background())

	h := audio.nextHandle(t)
	h.complete(nil)

	waitFor(t, "playback stop", func() bool { return !seq.State().Playing })

	var finished bool
	for !finished {
		select {
		case ev := <-events:
			if ev.Type == EventFinished {
				finished = true
			}
		case <-time.After(2 * time.Second):
			t.Fatal("finished event never arrived")
		}
	}

	if got := seq.State().Index; got != 0 {
		t.Errorf("index after finish = %d, want rewind to 0", got)
	}
}

func TestSequencer_LoadSignalsProjectReplaced(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)

	events, cancel := seq.Subscribe()
	defer cancel()

	seq.Load(testProject(2, false))

	first := <-events
	if first.Type != EventLoad {
		t.Fatalf("first event after Load = %s, want %s", first.Type, EventLoad)
	}
	second := <-events
	if second.Type != EventScene || second.Index != 0 {
		t.Errorf("second event = %s index %d, want scene 0", second.Type, second.Index)
	}
}

func TestSequencer_PrevClampsAtFirstScene(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)

	seq.Load(testProject(3, false))
	seq.Prev(context.Background())

	if got := seq.State().Index; got != 0 {
		t.Errorf("index = %d, want 0", got)
	}
}

func TestSequencer_SeekBounds(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)
	seq.Load(testProject(3, false))

	seq.Seek(context.Background(), 5)
	if got := seq.State().Index; got != 0 {
		t.Errorf("out-of-range seek moved index to %d", got)
	}

	seq.Seek(context.Background(), 2)
	if got := seq.State().Index; got != 2 {
		t.Errorf("seek index = %d, want 2", got)
	}
}

func TestSequencer_RestartRewindsAndPlays(t *testing.T) {
	clock := &fakeClock{}
	seq := NewSequencer(clock, newFakeAudio(), nil)
	seq.Load(testProject(3, false))

	seq.Seek(context.Background(), 2)
	seq.Restart(context.Background())

	state := seq.State()
	if state.Index != 0 || !state.Playing {
		t.Errorf("state after restart = index %d playing %v, want 0/true", state.Index, state.Playing)
	}
}
