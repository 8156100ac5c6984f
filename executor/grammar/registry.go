package grammar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/lintexec/language"
	"golang.org/x/sync/singleflight"
)

// ErrGrammarNotFound is returned when no candidate grammar could be loaded for a language
var ErrGrammarNotFound = errors.New("grammar not found")

// State of a language grammar within a registry
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	}
	return "uninitialized"
}

// Provider loads a grammar by candidate name, returning false when it does not know the name
type Provider interface {
	Load(name string) (*sitter.Language, bool)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(name string) (*sitter.Language, bool)

// Load calls f
func (f ProviderFunc) Load(name string) (*sitter.Language, bool) {
	return f(name)
}

// candidates lists grammar names tried in order for each language
var candidates = map[language.Language][]string{
	language.Bash:          {"bash"},
	language.C:             {"c"},
	language.CPP:           {"cpp"},
	language.CSharp:        {"c_sharp", "csharp"},
	language.Go:            {"go", "golang"},
	language.HTML:          {"html"},
	language.Java:          {"java"},
	language.JavaScript:    {"javascript"},
	language.JavaScriptJSX: {"jsx", "javascript"},
	language.PHP:           {"php"},
	language.Python:        {"python"},
	language.SCSS:          {"scss", "css"},
	language.SQL:           {"sql"},
	language.TypeScript:    {"typescript"},
	language.TypeScriptTSX: {"tsx", "typescript"},
}

// Candidates returns the grammar names tried for lang
func Candidates(lang language.Language) []string {
	return append([]string(nil), candidates[lang]...)
}

type entry struct {
	state    State
	grammar  *sitter.Language
	resolved string
}

// Registry resolves and caches tree-sitter grammars per language.
// Each language is initialised at most once, concurrent first calls share one load.
type Registry struct {
	providers []Provider
	group     singleflight.Group
	mux       sync.RWMutex
	entries   map[language.Language]*entry
}

// Option configures a registry
type Option func(*Registry)

// WithProviders replaces the provider chain
func WithProviders(providers ...Provider) Option {
	return func(r *Registry) {
		r.providers = providers
	}
}

// WithProvider appends a provider, consulted after the existing ones
func WithProvider(provider Provider) Option {
	return func(r *Registry) {
		r.providers = append(r.providers, provider)
	}
}

// New creates a registry backed by the builtin grammars unless overridden
func New(opts ...Option) *Registry {
	ret := &Registry{
		providers: []Provider{Builtin()},
		entries:   map[language.Language]*entry{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// State returns the initialisation state of lang
func (r *Registry) State(lang language.Language) State {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if e, ok := r.entries[lang]; ok {
		return e.state
	}
	return Uninitialized
}

// Resolve returns the grammar of lang, loading it on first use
func (r *Registry) Resolve(ctx context.Context, lang language.Language) (*sitter.Language, error) {
	r.mux.RLock()
	e, ok := r.entries[lang]
	r.mux.RUnlock()
	if ok && e.state == Ready {
		return e.grammar, nil
	}
	result, err, _ := r.group.Do(string(lang), func() (interface{}, error) {
		return r.load(lang)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result.(*sitter.Language), nil
}

func (r *Registry) load(lang language.Language) (*sitter.Language, error) {
	r.mux.Lock()
	if e, ok := r.entries[lang]; ok && e.state == Ready {
		r.mux.Unlock()
		return e.grammar, nil
	}
	r.entries[lang] = &entry{state: Initializing}
	r.mux.Unlock()

	names, ok := candidates[lang]
	if !ok {
		r.reset(lang)
		return nil, fmt.Errorf("%w: unsupported language %v", ErrGrammarNotFound, lang)
	}
	for _, name := range names {
		for _, provider := range r.providers {
			grammar, ok := provider.Load(name)
			if !ok || grammar == nil {
				continue
			}
			r.mux.Lock()
			r.entries[lang] = &entry{state: Ready, grammar: grammar, resolved: name}
			r.mux.Unlock()
			return grammar, nil
		}
	}
	r.reset(lang)
	return nil, fmt.Errorf("%w: %v (tried %v)", ErrGrammarNotFound, lang, strings.Join(names, ", "))
}

func (r *Registry) reset(lang language.Language) {
	r.mux.Lock()
	delete(r.entries, lang)
	r.mux.Unlock()
}

// Resolved returns the candidate name that satisfied lang, if loaded
func (r *Registry) Resolved(lang language.Language) (string, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if e, ok := r.entries[lang]; ok && e.state == Ready {
		return e.resolved, true
	}
	return "", false
}
