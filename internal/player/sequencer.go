// Package player drives scene playback: which scene is showing, whether the
// show is running, and when to advance. Narrated scenes advance when their
// audio finishes; scenes whose audio is missing or broken advance on a
// fallback timer instead. At most one advance source is armed at a time.
package player

import (
	"context"
	"log/slog"
	"sync"

	"github.com/megastudio/studio-agent/internal/studio"
)

// AudioHandle is a narration playback in flight. Done delivers exactly one
// value: nil when the audio finished naturally, an error when it broke
// mid-play. Stop abandons the playback; an abandoned handle delivers
// nothing.
type AudioHandle interface {
	Done() <-chan error
	Stop()
}

// AudioPlayer starts narration playback for a scene. A non-nil error means
// the asset could not be loaded at all.
type AudioPlayer interface {
	Play(ctx context.Context, url string) (AudioHandle, error)
}

// EventType labels sequencer notifications.
type EventType string

const (
	EventScene    EventType = "scene"
	EventPlay     EventType = "play"
	EventPause    EventType = "pause"
	EventFinished EventType = "finished"
	// EventLoad means a new project replaced the current one. Subscribers
	// tied to the previous project must shut down.
	EventLoad EventType = "load"
)

// Event is a sequencer state change notification.
type Event struct {
	Type  EventType
	Index int
}

// State is a point-in-time snapshot of the sequencer.
type State struct {
	Project *studio.Project
	Index   int
	Playing bool
}

// Sequencer owns the playback position for one project at a time.
type Sequencer struct {
	clock  Clock
	audio  AudioPlayer
	logger *slog.Logger

	mu      sync.Mutex
	project *studio.Project
	index   int
	playing bool

	// gen invalidates stale audio callbacks and timers. Every activation,
	// pause, seek and load bumps it; a callback whose generation no longer
	// matches does nothing.
	gen    uint64
	timer  Timer
	handle AudioHandle

	nextSub int
	subs    map[int]chan Event
}

func NewSequencer(clock Clock, audio AudioPlayer, logger *slog.Logger) *Sequencer {
	if clock == nil {
		clock = NewClock()
	}
	return &Sequencer{
		clock:  clock,
		audio:  audio,
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Subscribe returns a channel of sequencer events and a cancel function.
// Slow subscribers drop events rather than stalling playback.
func (s *Sequencer) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Sequencer) emitLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Load replaces the current project and resets playback to a stopped state
// at scene zero. The load event goes out before the scene event so that
// subscribers bound to the old project bail before seeing the new one.
func (s *Sequencer) Load(project *studio.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	s.project = project
	s.index = 0
	s.playing = false
	s.emitLocked(Event{Type: EventLoad, Index: 0})
	s.emitLocked(Event{Type: EventScene, Index: 0})
}

// State returns the current playback snapshot.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Project: s.project, Index: s.index, Playing: s.playing}
}

// Play starts or resumes playback from the current scene.
func (s *Sequencer) Play(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil || s.playing {
		return
	}
	s.playing = true
	s.emitLocked(Event{Type: EventPlay, Index: s.index})
	s.activateLocked(ctx)
}

// Pause halts playback, disarming any pending advance.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing {
		return
	}
	s.playing = false
	s.cancelPendingLocked()
	s.emitLocked(Event{Type: EventPause, Index: s.index})
}

// Next moves to the following scene. While playing, the new scene starts
// its own narration; past the last scene, playback stops.
func (s *Sequencer) Next(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked(ctx, s.gen)
}

// Prev moves to the previous scene, clamped at the first.
func (s *Sequencer) Prev(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil || s.index == 0 {
		return
	}
	s.index--
	s.emitLocked(Event{Type: EventScene, Index: s.index})
	if s.playing {
		s.activateLocked(ctx)
	} else {
		s.cancelPendingLocked()
	}
}

// Seek jumps to a specific scene index.
func (s *Sequencer) Seek(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil || index < 0 || index >= len(s.project.Scenes) {
		return
	}
	s.index = index
	s.emitLocked(Event{Type: EventScene, Index: s.index})
	if s.playing {
		s.activateLocked(ctx)
	} else {
		s.cancelPendingLocked()
	}
}

// Restart rewinds to scene zero and begins playing.
func (s *Sequencer) Restart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil {
		return
	}
	s.index = 0
	s.playing = true
	s.emitLocked(Event{Type: EventScene, Index: 0})
	s.emitLocked(Event{Type: EventPlay, Index: 0})
	s.activateLocked(ctx)
}

// cancelPendingLocked disarms whatever advance source is currently live.
func (s *Sequencer) cancelPendingLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
}

// activateLocked arms the advance source for the current scene: narration
// audio when the scene has a working asset, a fallback timer otherwise.
func (s *Sequencer) activateLocked(ctx context.Context) {
	s.cancelPendingLocked()
	gen := s.gen

	scene := s.project.Scenes[s.index]
	if scene.NarrationAudioURL == "" {
		s.armFallbackLocked(gen, scene)
		return
	}

	// Audio load is I/O; run it off the lock.
	go s.playNarration(ctx, gen, scene)
}

func (s *Sequencer) playNarration(ctx context.Context, gen uint64, scene studio.Scene) {
	handle, err := s.audio.Play(ctx, scene.NarrationAudioURL)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if handle != nil {
			handle.Stop()
		}
		return
	}

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("narration failed to load, using fallback timer",
				"scene", scene.Index, "error", err)
		}
		s.armFallbackLocked(gen, scene)
		s.mu.Unlock()
		return
	}

	s.handle = handle
	s.mu.Unlock()

	playErr, ok := <-handle.Done()
	if !ok {
		return
	}

	if playErr != nil {
		s.mu.Lock()
		if gen == s.gen {
			if s.logger != nil {
				s.logger.Warn("narration failed mid-play, using fallback timer",
					"scene", scene.Index, "error", playErr)
			}
			s.armFallbackLocked(gen, scene)
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.advanceLocked(ctx, gen)
	s.mu.Unlock()
}

func (s *Sequencer) armFallbackLocked(gen uint64, scene studio.Scene) {
	d := scene.FallbackDuration()
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		s.advanceLocked(context.Background(), gen)
		s.mu.Unlock()
	})
}

// advanceLocked moves to the next scene if the triggering generation is
// still current. Past the last scene playback stops, finished is emitted
// and the cursor rewinds to the first scene.
func (s *Sequencer) advanceLocked(ctx context.Context, gen uint64) {
	if s.project == nil || gen != s.gen {
		return
	}

	if s.index < len(s.project.Scenes)-1 {
		s.index++
		s.emitLocked(Event{Type: EventScene, Index: s.index})
		if s.playing {
			s.activateLocked(ctx)
		} else {
			s.cancelPendingLocked()
		}
		return
	}

	if s.playing {
		s.playing = false
		s.cancelPendingLocked()
		s.emitLocked(Event{Type: EventFinished, Index: s.index})
		s.index = 0
		s.emitLocked(Event{Type: EventScene, Index: 0})
	}
}
