package cli

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mchmarny/mscore/pkg/hub"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func modelParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("model")
	if _, _, err := hub.ParseRepoID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func ancestryAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := modelParam(w, r)
		if !ok {
			return
		}

		g, err := cfg.Extractor.Extract(r.Context(), id, cfg.Conf.MaxDepth)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ancestryResult{
			Root:      g.RootID(),
			Nodes:     g.Nodes(),
			Ancestors: g.Ancestors(),
		})
	}
}

func scoreAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := modelParam(w, r)
		if !ok {
			return
		}

		writeJSON(w, http.StatusOK, cfg.Scorer.Report(r.Context(), id))
	}
}
