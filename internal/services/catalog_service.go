package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"devstore/internal/domain"
	"devstore/internal/repos"
)

// PageSize is the catalog page length.
const PageSize = 9

// FilterState holds the three catalog selectors for one browsing session.
// "all" bypasses a selector. Type values are category-scoped, so picking a
// category always resets the type.
type FilterState struct {
	Category string
	Type     string
	License  string
}

func NewFilterState() *FilterState {
	return &FilterState{Category: "all", Type: "all", License: "all"}
}

func (f *FilterState) SelectCategory(category string) {
	f.Category = normSelector(category)
	f.Type = "all"
}

func (f *FilterState) SelectType(typ string) {
	f.Type = normSelector(typ)
}

func (f *FilterState) SelectLicense(license string) {
	f.License = normSelector(license)
}

func normSelector(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "all"
	}
	return s
}

// Matches is the catalog predicate: exact case-insensitive equality per
// selector, skipped for "all".
func (f *FilterState) Matches(p domain.Project) bool {
	if f.Category != "all" && !strings.EqualFold(p.TypeCategory, f.Category) {
		return false
	}
	if f.Type != "all" && !strings.EqualFold(p.TypeTitle, f.Type) {
		return false
	}
	if f.License != "all" && !strings.EqualFold(p.LicenseTitle, f.License) {
		return false
	}
	return true
}

// CatalogService keeps an in-memory snapshot of the project catalog and the
// per-session filter states. Snapshots carry a monotonic version so a stale
// refresh can never overwrite a newer one.
type CatalogService struct {
	Projects *repos.ProjectRepo

	mu       sync.RWMutex
	version  uint64
	snapshot []domain.Project

	fmu     sync.Mutex
	filters map[string]*FilterState
}

func NewCatalogService(projects *repos.ProjectRepo) *CatalogService {
	return &CatalogService{Projects: projects, filters: map[string]*FilterState{}}
}

// Refresh loads the catalog (with license variants) and applies it as the
// next snapshot version.
func (s *CatalogService) Refresh() error {
	items, err := s.Projects.ListAll()
	if err != nil {
		return err
	}
	for i := range items {
		lics, err := s.Projects.Licenses(items[i].ID)
		if err != nil {
			return err
		}
		items[i].Licenses = lics
	}
	s.mu.Lock()
	next := s.version + 1
	s.mu.Unlock()
	s.Apply(next, items)
	return nil
}

// Apply installs a snapshot if its version is newer than the current one.
// Returns false when the snapshot is stale and was ignored.
func (s *CatalogService) Apply(version uint64, items []domain.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version <= s.version {
		return false
	}
	s.version = version
	s.snapshot = items
	return true
}

// Watch refreshes the snapshot on an interval until the context is done.
func (s *CatalogService) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = s.Refresh()
		}
	}
}

func (s *CatalogService) Snapshot() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *CatalogService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// FilterFor returns the browsing filter bound to a session id, creating a
// fresh all/all/all state on first use.
func (s *CatalogService) FilterFor(sid string) *FilterState {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	f, ok := s.filters[sid]
	if !ok {
		f = NewFilterState()
		s.filters[sid] = f
	}
	return f
}

// Filtered returns the snapshot entries matching the filter, keeping
// snapshot (newest-first) order.
func (s *CatalogService) Filtered(f *FilterState) []domain.Project {
	snap := s.Snapshot()
	out := make([]domain.Project, 0, len(snap))
	for _, p := range snap {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Page slices one fixed-size page out of the filtered set. page is
// zero-based; out-of-range pages yield an empty slice. The second return is
// the total page count (zero for an empty set).
func (s *CatalogService) Page(f *FilterState, page int) ([]domain.Project, int) {
	items := s.Filtered(f)
	total := (len(items) + PageSize - 1) / PageSize
	if page < 0 || page >= total {
		return nil, total
	}
	start := page * PageSize
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

// Categories lists the distinct category values over the snapshot.
func (s *CatalogService) Categories() []string {
	return s.distinct(func(p domain.Project) string { return p.TypeCategory }, "")
}

// Types lists the distinct type values, scoped to a category unless the
// category selector is "all".
func (s *CatalogService) Types(category string) []string {
	return s.distinct(func(p domain.Project) string { return p.TypeTitle }, normSelector(category))
}

// LicenseTitles lists the distinct license tiers over the snapshot.
func (s *CatalogService) LicenseTitles() []string {
	return s.distinct(func(p domain.Project) string { return p.LicenseTitle }, "")
}

func (s *CatalogService) distinct(key func(domain.Project) string, category string) []string {
	seen := map[string]string{}
	for _, p := range s.Snapshot() {
		if category != "" && category != "all" && !strings.EqualFold(p.TypeCategory, category) {
			continue
		}
		v := key(p)
		if v == "" {
			continue
		}
		seen[strings.ToLower(v)] = v
	}
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
