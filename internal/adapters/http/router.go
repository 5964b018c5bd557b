package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
	"github.com/mkorneev/scholarmatch/internal/core/ports"
)

type Router struct {
	records ports.RecordDirectory
	batch   ports.BatchCoordinator
}

func NewRouter(records ports.RecordDirectory, batch ports.BatchCoordinator) *Router {
	return &Router{
		records: records,
		batch:   batch,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/researchers", rt.createResearchers)
	mux.HandleFunc("GET /v1/researchers", rt.listResearchers)
	mux.HandleFunc("POST /v1/researchers/clear", rt.clearResearchers)
	mux.HandleFunc("GET /v1/researchers/{id}", rt.getResearcher)
	mux.HandleFunc("DELETE /v1/researchers/{id}", rt.deleteResearcher)
	mux.HandleFunc("PUT /v1/researchers/{id}/source", rt.linkSource)
	mux.HandleFunc("DELETE /v1/researchers/{id}/source", rt.unlinkSource)
	mux.HandleFunc("POST /v1/researchers/{id}/analyze", rt.submitAnalysis)
	mux.HandleFunc("PUT /v1/researchers/{id}/favorite", rt.toggleFavorite)

	mux.HandleFunc("POST /v1/analyses/batch", rt.runBatch)
	mux.HandleFunc("POST /v1/analyses/retry", rt.retryErrors)

	mux.HandleFunc("PUT /v1/interests", rt.saveInterests)
	mux.HandleFunc("GET /v1/interests", rt.getInterests)

	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createResearchers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Researchers []struct {
			Name     string `json:"name"`
			SourceID string `json:"source_id"`
		} `json:"researchers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Researchers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "researchers list is required"})
		return
	}

	entries := make([]ports.NewResearcher, 0, len(req.Researchers))
	for _, item := range req.Researchers {
		entries = append(entries, ports.NewResearcher{
			Name:     item.Name,
			SourceID: item.SourceID,
		})
	}

	created, err := rt.records.CreateFromNames(r.Context(), entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"researchers": created})
}

func (rt *Router) listResearchers(w http.ResponseWriter, r *http.Request) {
	filter := domain.ResearcherFilter{
		Status:        domain.ResearcherStatus(r.URL.Query().Get("status")),
		FavoritesOnly: r.URL.Query().Get("favorites") == "true",
	}

	out, err := rt.records.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"researchers": out})
}

func (rt *Router) getResearcher(w http.ResponseWriter, r *http.Request) {
	rec, err := rt.records.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) deleteResearcher(w http.ResponseWriter, r *http.Request) {
	if err := rt.records.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) linkSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string `json:"source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.records.LinkSource(r.Context(), r.PathValue("id"), req.SourceID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) unlinkSource(w http.ResponseWriter, r *http.Request) {
	if err := rt.records.UnlinkSource(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := rt.records.Submit(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (rt *Router) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := rt.records.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": favorite})
}

func (rt *Router) clearResearchers(w http.ResponseWriter, r *http.Request) {
	deleted, err := rt.records.ClearNonFavorites(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (rt *Router) runBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InterestText string `json:"interest_text"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	report, err := rt.batch.RunEligible(r.Context(), req.InterestText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) retryErrors(w http.ResponseWriter, r *http.Request) {
	report, err := rt.batch.RetryErrors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) saveInterests(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "interest text is required"})
		return
	}

	if err := rt.records.SaveInterestText(r.Context(), req.Text); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) getInterests(w http.ResponseWriter, r *http.Request) {
	text, err := rt.records.InterestText(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
