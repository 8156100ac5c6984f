package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/lintexec/model"
	"gopkg.in/yaml.v3"
)

// Catalog is an offline set of standards and packages
type Catalog struct {
	Standards []*CatalogStandard `yaml:"standards" validate:"dive"`
	Packages  []*CatalogPackage  `yaml:"packages" validate:"dive"`
}

// CatalogStandard is a standard of a catalog
type CatalogStandard struct {
	Name  string         `yaml:"name"`
	Slug  string         `yaml:"slug" validate:"required"`
	Scope model.Scope    `yaml:"scope"`
	Rules []*CatalogRule `yaml:"rules" validate:"dive"`
}

// CatalogRule is a rule with its active and draft programs
type CatalogRule struct {
	ID       string        `yaml:"id" validate:"required"`
	Content  string        `yaml:"content"`
	Programs []RuleProgram `yaml:"programs"`
	Drafts   []RuleProgram `yaml:"drafts"`
}

// CatalogPackage groups standards under a slug
type CatalogPackage struct {
	Slug      string   `yaml:"slug" validate:"required"`
	Standards []string `yaml:"standards"`
}

// FileGateway is a Gateway serving a Catalog
type FileGateway struct {
	catalog    *Catalog
	logger     *slog.Logger
	mux        sync.Mutex
	executions []Execution
}

// FileOption configures a FileGateway
type FileOption func(*FileGateway)

// WithFileLogger sets the logger
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(g *FileGateway) {
		g.logger = logger
	}
}

// NewFileGateway creates a gateway over catalog
func NewFileGateway(catalog *Catalog, opts ...FileOption) *FileGateway {
	ret := &FileGateway{catalog: catalog}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// LoadCatalog reads a YAML catalog from location
func LoadCatalog(ctx context.Context, fs afs.Service, location string) (*Catalog, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %v: %w", location, err)
	}
	return DecodeCatalog(data)
}

// DecodeCatalog parses and validates YAML catalog data
func DecodeCatalog(data []byte) (*Catalog, error) {
	ret := &Catalog{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := validate.Struct(ret); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return ret, nil
}

// GetActiveDetectionProgramForRule returns active programs of a catalog rule
func (g *FileGateway) GetActiveDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	return g.ruleProgram(query, false)
}

// GetDraftDetectionProgramForRule returns draft programs of a catalog rule
func (g *FileGateway) GetDraftDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	return g.ruleProgram(query, true)
}

func (g *FileGateway) ruleProgram(query RuleQuery, draft bool) (*RulePrograms, error) {
	if err := validate.Struct(query); err != nil {
		return nil, fmt.Errorf("invalid rule query: %w", err)
	}
	standard := g.standard(query.StandardSlug)
	if standard == nil {
		return nil, fmt.Errorf("%w: %v", ErrStandardNotFound, query.StandardSlug)
	}
	for _, rule := range standard.Rules {
		if rule.ID != query.RuleID {
			continue
		}
		programs := rule.Programs
		if draft {
			programs = rule.Drafts
		}
		ret := &RulePrograms{RuleContent: rule.Content, Scope: standard.Scope, Programs: []RuleProgram{}}
		for _, program := range programs {
			if query.Language != "" && program.Language != query.Language {
				continue
			}
			ret.Programs = append(ret.Programs, program)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %v in standard %v", ErrRuleNotFound, query.RuleID, query.StandardSlug)
}

// GetDetectionProgramsForPackages returns one root target holding the standards of every package
func (g *FileGateway) GetDetectionProgramsForPackages(ctx context.Context, query PackagesQuery) (*PackagesPrograms, error) {
	if err := validate.Struct(query); err != nil {
		return nil, fmt.Errorf("invalid packages query: %w", err)
	}
	target := model.Target{Name: "Default", Path: "/", Standards: []model.Standard{}}
	seen := map[string]bool{}
	for _, slug := range query.PackagesSlugs {
		pkg := g.pkg(slug)
		if pkg == nil {
			return nil, fmt.Errorf("%w: %v", ErrPackageNotFound, slug)
		}
		for _, standardSlug := range pkg.Standards {
			if seen[standardSlug] {
				continue
			}
			seen[standardSlug] = true
			standard := g.standard(standardSlug)
			if standard == nil {
				return nil, fmt.Errorf("%w: %v referenced by package %v", ErrStandardNotFound, standardSlug, slug)
			}
			target.Standards = append(target.Standards, standard.model())
		}
	}
	return &PackagesPrograms{Targets: []model.Target{target}}, nil
}

// TrackLinterExecution records the execution locally
func (g *FileGateway) TrackLinterExecution(ctx context.Context, execution Execution) error {
	g.mux.Lock()
	g.executions = append(g.executions, execution)
	g.mux.Unlock()
	g.logger.Debug("linter execution", slog.Int("targets", execution.TargetCount), slog.Int("standards", execution.StandardCount))
	return nil
}

// Executions returns tracked executions
func (g *FileGateway) Executions() []Execution {
	g.mux.Lock()
	defer g.mux.Unlock()
	return append([]Execution(nil), g.executions...)
}

func (g *FileGateway) standard(slug string) *CatalogStandard {
	for _, candidate := range g.catalog.Standards {
		if candidate.Slug == slug {
			return candidate
		}
	}
	return nil
}

func (g *FileGateway) pkg(slug string) *CatalogPackage {
	for _, candidate := range g.catalog.Packages {
		if candidate.Slug == slug {
			return candidate
		}
	}
	return nil
}

func (s *CatalogStandard) model() model.Standard {
	name := s.Name
	if name == "" {
		name = s.Slug
	}
	ret := model.Standard{Name: name, Slug: s.Slug, Scope: s.Scope, Rules: make([]model.Rule, 0, len(s.Rules))}
	for _, rule := range s.Rules {
		item := model.Rule{Content: rule.Content, ActiveDetectionPrograms: make([]model.ActiveDetectionProgram, 0, len(rule.Programs))}
		for i := range rule.Programs {
			item.ActiveDetectionPrograms = append(item.ActiveDetectionPrograms, rule.Programs[i].DetectionProgram())
		}
		ret.Rules = append(ret.Rules, item)
	}
	return ret
}
