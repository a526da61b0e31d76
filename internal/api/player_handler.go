package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/megastudio/studio-agent/internal/studio"
)

func loadProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := cfg.Studio.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if project == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		cfg.Sequencer.Load(project)
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerState(cfg ServerConfig) PlayerStateResponse {
	state := cfg.Sequencer.State()
	resp := PlayerStateResponse{
		SceneIndex: state.Index,
		Playing:    state.Playing,
	}
	if state.Project != nil {
		resp.ProjectID = state.Project.ID
		resp.SceneCount = len(state.Project.Scenes)
	}
	return resp
}

func playerStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

// playerFrameHandler serves the latest composited frame as a PNG, which is
// how the dashboard previews the show.
func playerFrameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame := cfg.Loop.Snapshot()
		if frame == nil {
			frame = cfg.Loop.RenderOnce(r.Context())
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to encode frame", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

func playerPlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequencer.Play(r.Context())
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequencer.Pause()
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerNextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequencer.Next(r.Context())
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerPrevHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequencer.Prev(r.Context())
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerSeekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Sequencer.Seek(r.Context(), req.Index)
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func playerRestartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequencer.Restart(r.Context())
		WriteJSON(w, http.StatusOK, playerState(cfg))
	}
}

func getCaptionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := cfg.Loop.Caption()
		WriteJSON(w, http.StatusOK, CaptionResponse{
			Style:    string(c.Style),
			Position: string(c.Position),
		})
	}
}

func setCaptionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CaptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		style := studio.CaptionStyle(req.Style)
		if !style.Valid() {
			WriteError(w, http.StatusBadRequest, "unknown caption style", "BAD_REQUEST")
			return
		}
		position := studio.CaptionPosition(req.Position)
		if !position.Valid() {
			WriteError(w, http.StatusBadRequest, "unknown caption position", "BAD_REQUEST")
			return
		}

		cfg.Loop.SetCaption(studio.CaptionConfig{Style: style, Position: position})
		WriteJSON(w, http.StatusOK, CaptionResponse{Style: req.Style, Position: req.Position})
	}
}
