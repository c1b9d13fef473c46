package httpadapter

import (
	"net/http"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

func (rt *Router) analyzeItem(w http.ResponseWriter, r *http.Request) {
	kind := domain.ItemKind(r.PathValue("kind"))
	id := r.PathValue("id")

	features, err := rt.services.Analyzer.AnalyzeItem(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":        kind,
		"id":          id,
		"ai_analysis": features,
	})
}
