package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/megastudio/studio-agent/internal/studio"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/assemble", assembleHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Post("/projects/{id}/load", loadProjectHandler(cfg))
		r.Post("/projects/{id}/export", exportProjectHandler(cfg))
		r.Get("/projects/{id}/exports", listExportsHandler(cfg))

		r.Get("/player", playerStateHandler(cfg))
		r.Get("/player/frame", playerFrameHandler(cfg))
		r.Post("/player/play", playerPlayHandler(cfg))
		r.Post("/player/pause", playerPauseHandler(cfg))
		r.Post("/player/next", playerNextHandler(cfg))
		r.Post("/player/prev", playerPrevHandler(cfg))
		r.Post("/player/seek", playerSeekHandler(cfg))
		r.Post("/player/restart", playerRestartHandler(cfg))

		r.Get("/caption", getCaptionHandler(cfg))
		r.Put("/caption", setCaptionHandler(cfg))

		r.Get("/recording", recordingStatusHandler(cfg))
		r.Get("/exports/{id}/file", exportFileHandler(cfg))
		r.Get("/exports/{id}/qr", exportQRHandler(cfg))

		r.Get("/library", listLibraryHandler(cfg))
		r.Post("/library", saveLibraryHandler(cfg))
		r.Delete("/library/{id}", deleteLibraryHandler(cfg))

		r.Get("/providers", listProvidersHandler(cfg))
		r.Post("/providers/{provider}/connect", connectProviderHandler(cfg))
		r.Delete("/providers/{provider}", disconnectProviderHandler(cfg))

		r.Get("/system/stats", systemStatsHandler(cfg))
		r.Post("/runner/pause", runnerPauseHandler(cfg))
		r.Post("/runner/resume", runnerResumeHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.Studio.ListProjects(ctx, 1000)
		jobs, _ := cfg.Studio.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == studio.JobStatusRunning {
				state = "assembling"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == studio.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		recording := cfg.Capture != nil && cfg.Capture.Active()
		if recording {
			state = "recording"
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			ProjectsCount: len(projects),
			JobsRunning:   jobsRunning,
			Recording:     recording,
			ActiveJob:     activeJob,
		}

		if cfg.System != nil {
			if stats, err := cfg.System.Collect(ctx); err == nil {
				resp.System = stats
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func assembleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssembleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Topic == "" {
			WriteError(w, http.StatusBadRequest, "topic is required", "BAD_REQUEST")
			return
		}

		format := studio.OutputFormat(req.OutputFormat)
		if req.OutputFormat == "" {
			format = studio.FormatLandscape
		}
		if !format.Valid() {
			WriteError(w, http.StatusBadRequest, "output_format must be 16:9 or 9:16", "BAD_REQUEST")
			return
		}

		job, err := cfg.Studio.EnqueueAssembly(r.Context(), req.Topic, format, req.SceneCount)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, AssembleResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Studio.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Studio.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Studio.ListProjects(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
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

		WriteJSON(w, http.StatusOK, ProjectToResponse(project))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Studio.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listLibraryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cfg.Studio.SearchLibrary(r.Context(),
			r.URL.Query().Get("type"), r.URL.Query().Get("q"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list library", "INTERNAL_ERROR")
			return
		}

		resp := LibraryResponse{Items: make([]LibraryItemResponse, len(items))}
		for i, item := range items {
			resp.Items[i] = LibraryItemToResponse(item)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func saveLibraryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveLibraryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		item, err := cfg.Studio.SaveToLibrary(r.Context(), req.Type, req.URL, req.Title, req.Meta)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, LibraryItemToResponse(item))
	}
}

func deleteLibraryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Studio.RemoveFromLibrary(r.Context(), chi.URLParam(r, "id")); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listProvidersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := cfg.Studio.GetCredentials(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list providers", "INTERNAL_ERROR")
			return
		}

		resp := ProvidersResponse{Providers: make([]ProviderResponse, len(creds))}
		for i, c := range creds {
			resp.Providers[i] = CredentialToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func connectProviderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConnectProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cred, err := cfg.Studio.ConnectProvider(r.Context(), chi.URLParam(r, "provider"), req.APIKey)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, CredentialToResponse(cred))
	}
}

func disconnectProviderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Studio.DisconnectProvider(r.Context(), chi.URLParam(r, "provider")); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func systemStatsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cfg.System.Collect(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to collect stats", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, stats)
	}
}

func runnerPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Runner.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func runnerResumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Runner.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}
