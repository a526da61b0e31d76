package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/megastudio/studio-agent/internal/capture"
	"github.com/megastudio/studio-agent/internal/share"
)

// exportProjectHandler kicks off a render-and-export session. Recording
// replays the whole project in real time, so the work runs in the
// background and the dashboard polls /recording and the project's export
// list.
func exportProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if !req.Confirm {
			WriteError(w, http.StatusBadRequest, "export requires confirm: true", "CONFIRM_REQUIRED")
			return
		}

		project, err := cfg.Studio.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if project == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		if cfg.Capture.Active() {
			WriteError(w, http.StatusConflict, capture.ErrRecordingActive.Error(), "RECORDING_ACTIVE")
			return
		}

		go func() {
			if _, err := cfg.Capture.RenderAndExport(context.Background(), project); err != nil {
				cfg.Logger.Error("export failed", "project_id", project.ID, "error", err)
			}
		}()

		WriteJSON(w, http.StatusAccepted, RecordingStatusResponse{Active: true})
	}
}

func recordingStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, RecordingStatusResponse{Active: cfg.Capture.Active()})
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exports, err := cfg.Repository.ListExportsByProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(exports))}
		for i, e := range exports {
			resp.Exports[i] = ExportToResponse(e, filepath.Base(e.Path))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func exportFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		exp, err := cfg.Repository.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if exp == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		downloadName := ""
		if r.URL.Query().Get("download") != "" {
			downloadName = filepath.Base(exp.Path)
		}

		if err := cfg.Streamer.ServeFile(w, r, exp.Path, exp.MimeType, downloadName); err != nil {
			cfg.Logger.Error("export playback error", "error", err, "export_id", id)
		}
	}
}

func exportQRHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		exp, err := cfg.Repository.GetExport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if exp == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}

		host := r.URL.Query().Get("host")
		if host == "" {
			host = "localhost"
		}

		png, err := share.QRPNG(share.DownloadURL(host, cfg.Port, exp.ID))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to build qr code", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}
