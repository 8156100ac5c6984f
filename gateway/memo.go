package gateway

import (
	"context"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Memo is a Gateway that collapses identical requests for the lifetime of a run.
// Concurrent callers share one upstream call; failures are not remembered.
type Memo struct {
	gateway Gateway
	group   singleflight.Group
	results *cache.Cache
}

// Memoize decorates gateway with request de-duplication
func Memoize(gateway Gateway) *Memo {
	return &Memo{gateway: gateway, results: cache.New(cache.NoExpiration, 0)}
}

// PackagesKey identifies a package set regardless of slug order or repetition
func PackagesKey(slugs []string) string {
	unique := map[string]bool{}
	sorted := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if !unique[slug] {
			unique[slug] = true
			sorted = append(sorted, slug)
		}
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// GetActiveDetectionProgramForRule returns memoized active programs
func (m *Memo) GetActiveDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	result, err := m.load(ctx, "active:"+ruleKey(query), func(ctx context.Context) (interface{}, error) {
		return m.gateway.GetActiveDetectionProgramForRule(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.(*RulePrograms), nil
}

// GetDraftDetectionProgramForRule returns memoized draft programs
func (m *Memo) GetDraftDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	result, err := m.load(ctx, "draft:"+ruleKey(query), func(ctx context.Context) (interface{}, error) {
		return m.gateway.GetDraftDetectionProgramForRule(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.(*RulePrograms), nil
}

// GetDetectionProgramsForPackages returns memoized package programs keyed by the slug set
func (m *Memo) GetDetectionProgramsForPackages(ctx context.Context, query PackagesQuery) (*PackagesPrograms, error) {
	result, err := m.load(ctx, "packages:"+PackagesKey(query.PackagesSlugs), func(ctx context.Context) (interface{}, error) {
		return m.gateway.GetDetectionProgramsForPackages(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PackagesPrograms), nil
}

// TrackLinterExecution is passed through
func (m *Memo) TrackLinterExecution(ctx context.Context, execution Execution) error {
	return m.gateway.TrackLinterExecution(ctx, execution)
}

func (m *Memo) load(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if cached, ok := m.results.Get(key); ok {
		return cached, nil
	}
	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		if cached, ok := m.results.Get(key); ok {
			return cached, nil
		}
		result, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		m.results.SetDefault(key, result)
		return result, nil
	})
	return result, err
}

func ruleKey(query RuleQuery) string {
	return query.StandardSlug + "/" + query.RuleID + "/" + string(query.Language)
}
