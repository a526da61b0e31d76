package capture

import (
	"bytes"
	"context"
	"testing"

	"github.com/megastudio/studio-agent/internal/player"
	"github.com/megastudio/studio-agent/internal/studio"
)

func captureProject() *studio.Project {
	return &studio.Project{
		ID:           studio.NewID(),
		Title:        "Capture Test",
		OutputFormat: studio.FormatLandscape,
		Scenes: []studio.Scene{
			{Index: 0, EstimatedDuration: 2, Visual: studio.NoVisual()},
			{Index: 1, EstimatedDuration: 2, Visual: studio.NoVisual()},
		},
	}
}

func TestFollowPlayback_AbortsWhenProjectReplaced(t *testing.T) {
	var out bytes.Buffer
	mixer := NewMixer(nil, nil, &out, nil)

	events := make(chan player.Event, 8)
	events <- player.Event{Type: player.EventScene, Index: 0}
	events <- player.Event{Type: player.EventLoad}
	events <- player.Event{Type: player.EventScene, Index: 1}

	c := &Controller{}
	if err := c.followPlayback(context.Background(), captureProject(), mixer, events); err == nil {
		t.Fatal("followPlayback should abort when the project is replaced")
	}

	// Scene 0 plus the lead-in was muxed; nothing after the replacement.
	want := pcmBytes(0.5) + pcmBytes(2)
	if out.Len() != want {
		t.Errorf("muxed %d audio bytes, want %d", out.Len(), want)
	}
}

func TestFollowPlayback_ReturnsOnFinish(t *testing.T) {
	var out bytes.Buffer
	mixer := NewMixer(nil, nil, &out, nil)

	events := make(chan player.Event, 8)
	events <- player.Event{Type: player.EventFinished, Index: 1}
	events <- player.Event{Type: player.EventScene, Index: 0}

	c := &Controller{}
	if err := c.followPlayback(context.Background(), captureProject(), mixer, events); err != nil {
		t.Fatalf("followPlayback() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("muxed %d audio bytes after finish, want 0", out.Len())
	}
}
