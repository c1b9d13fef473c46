package httpadapter

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/export/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (rt *Router) scorePair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LostItemID  string `json:"lost_item_id"`
		FoundItemID string `json:"found_item_id"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := rt.services.Matcher.ScoreSingle(r.Context(), req.LostItemID, req.FoundItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (rt *Router) runBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	for _, category := range req.Categories {
		if !category.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category " + strconv.Quote(string(category))})
			return
		}
	}
	if req.MinScore <= 0 {
		req.MinScore = rt.cfg.MatchMinScore
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		rt.enqueueBatch(w, r, req)
		return
	}

	stats, err := rt.services.Batch.RunBatch(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) enqueueBatch(w http.ResponseWriter, r *http.Request, req domain.BatchRequest) {
	if rt.services.Queue == nil {
		writeError(w, r, domain.WrapError(domain.ErrTemporary, "enqueue batch", errors.New("batch queue is not configured")))
		return
	}

	job := domain.BatchJob{
		ID:          uuid.NewString(),
		Request:     req,
		RequestedAt: time.Now().UTC(),
	}
	if err := rt.services.Queue.PublishBatchJob(r.Context(), job); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID, "status": "queued"})
}

func (rt *Router) discoveryRequest(r *http.Request) (domain.DiscoveryRequest, error) {
	query := r.URL.Query()
	minScore, err := queryInt(query, "min_score", rt.cfg.PotentialMinScore)
	if err != nil {
		return domain.DiscoveryRequest{}, err
	}
	limit, err := queryInt(query, "limit", domain.DefaultDiscoveryLimit)
	if err != nil {
		return domain.DiscoveryRequest{}, err
	}
	category, err := parseCategory(query.Get("category"))
	if err != nil {
		return domain.DiscoveryRequest{}, err
	}
	return domain.DiscoveryRequest{
		MinScore: minScore,
		Category: category,
		UserID:   strings.TrimSpace(query.Get("user_id")),
		Limit:    limit,
	}, nil
}

func (rt *Router) discoverPotential(w http.ResponseWriter, r *http.Request) {
	req, err := rt.discoveryRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.services.Finder.DiscoverPotential(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) exportPotential(w http.ResponseWriter, r *http.Request) {
	req, err := rt.discoveryRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := rt.services.Finder.DiscoverPotential(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now().UTC()
	var buf bytes.Buffer
	if err := xlsx.WriteDiscoveryReport(&buf, report, now); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="potential-matches-`+now.Format("20060102")+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) listMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := queryInt(query, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	skip, err := queryInt(query, "skip", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.services.Reviewer.ListMatches(r.Context(), domain.MatchFilter{
		Status: domain.MatchStatus(strings.TrimSpace(query.Get("status"))),
		Limit:  limit,
		Skip:   skip,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) matchStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.services.Reviewer.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) updateMatchStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MatchID  string   `json:"match_id"`
		MatchIDs []string `json:"match_ids"`
		Status   string   `json:"status"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	ids := make([]string, 0, len(req.MatchIDs)+1)
	if id := strings.TrimSpace(req.MatchID); id != "" {
		ids = append(ids, id)
	}
	for _, id := range req.MatchIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	updated, err := rt.services.Reviewer.UpdateStatus(r.Context(), ids, domain.MatchStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated, "status": req.Status})
}
