package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

var baseTime = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

type itemRepoFake struct {
	mu        sync.Mutex
	lost      []domain.LostItem
	found     []domain.FoundItem
	listErr   error
	saved     map[string]domain.Features
	saveErr   error
	lostCalls []domain.ItemFilter
}

func (f *itemRepoFake) GetLost(_ context.Context, id string) (*domain.LostItem, error) {
	for _, item := range f.lost {
		if item.ID == id {
			copyItem := item
			return &copyItem, nil
		}
	}
	return nil, domain.WrapError(domain.ErrItemNotFound, "get lost item", errors.New(id))
}

func (f *itemRepoFake) GetFound(_ context.Context, id string) (*domain.FoundItem, error) {
	for _, item := range f.found {
		if item.ID == id {
			copyItem := item
			return &copyItem, nil
		}
	}
	return nil, domain.WrapError(domain.ErrItemNotFound, "get found item", errors.New(id))
}

func (f *itemRepoFake) ListLost(_ context.Context, filter domain.ItemFilter) ([]domain.LostItem, error) {
	f.mu.Lock()
	f.lostCalls = append(f.lostCalls, filter)
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.LostItem, 0, len(f.lost))
	for _, item := range f.lost {
		if !categoryAllowed(item.Category, filter.Categories) {
			continue
		}
		if filter.UserID != "" && item.UserID != filter.UserID {
			continue
		}
		if filter.ActiveOnly && !item.Status.Active() {
			continue
		}
		out = append(out, item)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *itemRepoFake) ListFound(_ context.Context, filter domain.ItemFilter) ([]domain.FoundItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.FoundItem, 0, len(f.found))
	for _, item := range f.found {
		if !categoryAllowed(item.Category, filter.Categories) {
			continue
		}
		if filter.ActiveOnly && !item.Status.Active() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *itemRepoFake) SaveFeatures(_ context.Context, kind domain.ItemKind, id string, features domain.Features) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]domain.Features)
	}
	f.saved[string(kind)+":"+id] = features
	return nil
}

func categoryAllowed(category domain.Category, allowed []domain.Category) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, c := range allowed {
		if c == category {
			return true
		}
	}
	return false
}

type matchRepoFake struct {
	mu        sync.Mutex
	matches   []domain.Match
	findErr   error
	createErr func(m *domain.Match) error
	creates   int
}

func (f *matchRepoFake) FindByPair(_ context.Context, key domain.PairKey) (*domain.Match, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.LostItemID == key.LostItemID && m.FoundItemID == key.FoundItemID {
			copyMatch := m
			return &copyMatch, nil
		}
	}
	return nil, domain.WrapError(domain.ErrMatchNotFound, "find match by pair", errors.New(key.String()))
}

func (f *matchRepoFake) CreateIfAbsent(_ context.Context, match *domain.Match) (bool, error) {
	if f.createErr != nil {
		if err := f.createErr(match); err != nil {
			return false, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	for _, m := range f.matches {
		if m.LostItemID == match.LostItemID && m.FoundItemID == match.FoundItemID {
			return false, nil
		}
	}
	f.matches = append(f.matches, *match)
	return true, nil
}

func (f *matchRepoFake) List(_ context.Context, filter domain.MatchFilter) ([]domain.Match, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	filtered := make([]domain.Match, 0, len(f.matches))
	for _, m := range f.matches {
		if filter.Status == "" || m.Status == filter.Status {
			filtered = append(filtered, m)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
	total := len(filtered)
	start := min(filter.Skip, total)
	end := min(start+filter.Limit, total)
	return filtered[start:end], total, nil
}

func (f *matchRepoFake) UpdateStatus(_ context.Context, ids []string, status domain.MatchStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	updated := 0
	for i := range f.matches {
		for _, id := range ids {
			if f.matches[i].ID == id {
				f.matches[i].Status = status
				updated++
			}
		}
	}
	return updated, nil
}

func (f *matchRepoFake) Stats(ctx context.Context) (*domain.MatchStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.MatchStats{
		TotalMatches: len(f.matches),
		ByStatus:     map[domain.MatchStatus]int{},
		ByConfidence: map[domain.Confidence]int{},
	}
	sum := 0
	for _, m := range f.matches {
		sum += m.Score
		stats.ByStatus[m.Status]++
		stats.ByConfidence[m.Confidence]++
	}
	if len(f.matches) > 0 {
		stats.AverageScore = int(float64(sum)/float64(len(f.matches)) + 0.5)
	}
	return stats, nil
}

func (f *matchRepoFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matches)
}

// scorerFake returns a fixed score per found item id.
type scorerFake struct {
	mu     sync.Mutex
	scores map[string]int
	calls  int
}

func (f *scorerFake) Score(_ context.Context, _ domain.LostItem, found domain.FoundItem) (domain.ScoreResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	score := f.scores[found.ID]
	return domain.ScoreResult{
		Score:          score,
		Similarities:   []string{"Same category: Electronics", "Similar descriptions", "Same location", "Close dates"},
		Differences:    []string{},
		Confidence:     domain.ConfidenceMedium,
		Recommendation: "Possible match - requires manual verification",
		Source:         domain.SourceFallback,
	}, nil
}

type extractorFake struct {
	mu    sync.Mutex
	calls int
}

func (f *extractorFake) Extract(item domain.Item) domain.Features {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return domain.Features{Colors: []string{"black"}, Fingerprint: "stale-" + item.ID}
}

type eventsFake struct {
	mu      sync.Mutex
	created []domain.Match
	err     error
}

func (f *eventsFake) PublishMatchCreated(_ context.Context, match domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, match)
	return f.err
}

type cacheFake struct {
	stored      map[domain.DiscoveryRequest]*domain.DiscoveryReport
	invalidated int
}

func (f *cacheFake) Get(_ context.Context, req domain.DiscoveryRequest) (*domain.DiscoveryReport, bool, error) {
	report, ok := f.stored[req]
	return report, ok, nil
}

func (f *cacheFake) Set(_ context.Context, req domain.DiscoveryRequest, report *domain.DiscoveryReport, _ time.Duration) error {
	if f.stored == nil {
		f.stored = make(map[domain.DiscoveryRequest]*domain.DiscoveryReport)
	}
	f.stored[req] = report
	return nil
}

func (f *cacheFake) Invalidate(context.Context) error {
	f.invalidated++
	f.stored = nil
	return nil
}

type lockerFake struct {
	calls int
	err   error
}

func (f *lockerFake) WithBatchLock(ctx context.Context, fn func(context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type recorderFake struct {
	mu      sync.Mutex
	scores  int
	batches []domain.BatchStats
}

func (f *recorderFake) RecordScore(domain.ScoreSource, int, int) {
	f.mu.Lock()
	f.scores++
	f.mu.Unlock()
}

func (f *recorderFake) RecordBatch(stats domain.BatchStats) {
	f.mu.Lock()
	f.batches = append(f.batches, stats)
	f.mu.Unlock()
}

func lostItem(id, userID, title string) domain.LostItem {
	return domain.LostItem{
		Item: domain.Item{
			ID:          id,
			Title:       title,
			Description: "black iphone with blue case, lost in library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
			UserID:      userID,
		},
		DateLost: baseTime,
		Status:   domain.LostStatusOpen,
	}
}

func foundItem(id, userID, title string) domain.FoundItem {
	return domain.FoundItem{
		Item: domain.Item{
			ID:          id,
			Title:       title,
			Description: "black phone, blue case, found near library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
			UserID:      userID,
		},
		DateFound: baseTime.Add(48 * time.Hour),
		Status:    domain.FoundStatusAvailable,
	}
}
