package grammar_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lintexec/executor/grammar"
	"github.com/viant/lintexec/language"
)

func TestRegistry_ResolveBuiltin(t *testing.T) {
	testCases := []struct {
		description string
		language    language.Language
		resolved    string
	}{
		{description: "typescript", language: language.TypeScript, resolved: "typescript"},
		{description: "tsx", language: language.TypeScriptTSX, resolved: "tsx"},
		{description: "jsx falls back to javascript", language: language.JavaScriptJSX, resolved: "javascript"},
		{description: "scss falls back to css", language: language.SCSS, resolved: "css"},
		{description: "go falls back to golang", language: language.Go, resolved: "golang"},
		{description: "csharp second candidate", language: language.CSharp, resolved: "csharp"},
	}
	registry := grammar.New()
	for _, testCase := range testCases {
		assert.Equal(t, grammar.Uninitialized, registry.State(testCase.language), testCase.description)
		resolved, err := registry.Resolve(context.Background(), testCase.language)
		require.NoError(t, err, testCase.description)
		assert.NotNil(t, resolved, testCase.description)
		assert.Equal(t, grammar.Ready, registry.State(testCase.language), testCase.description)
		name, ok := registry.Resolved(testCase.language)
		assert.True(t, ok)
		assert.Equal(t, testCase.resolved, name, testCase.description)
	}
}

func TestRegistry_AllLanguagesResolve(t *testing.T) {
	registry := grammar.New()
	for _, lang := range language.All() {
		_, err := registry.Resolve(context.Background(), lang)
		assert.NoError(t, err, lang)
	}
}

func TestRegistry_ExhaustedCandidates(t *testing.T) {
	registry := grammar.New(grammar.WithProviders(grammar.Static(map[string]*sitter.Language{})))
	_, err := registry.Resolve(context.Background(), language.TypeScript)
	assert.ErrorIs(t, err, grammar.ErrGrammarNotFound)
	assert.Equal(t, grammar.Uninitialized, registry.State(language.TypeScript))

	_, err = registry.Resolve(context.Background(), language.Language("COBOL"))
	assert.ErrorIs(t, err, grammar.ErrGrammarNotFound)
}

func TestRegistry_ProviderChain(t *testing.T) {
	registry := grammar.New(grammar.WithProviders(
		grammar.Static(map[string]*sitter.Language{}),
		grammar.Static(map[string]*sitter.Language{"javascript": javascript.GetLanguage()}),
	))
	resolved, err := registry.Resolve(context.Background(), language.JavaScript)
	require.NoError(t, err)
	assert.NotNil(t, resolved)
}

func TestRegistry_SingleFlight(t *testing.T) {
	var loads int32
	provider := grammar.ProviderFunc(func(name string) (*sitter.Language, bool) {
		if name != "javascript" {
			return nil, false
		}
		atomic.AddInt32(&loads, 1)
		return javascript.GetLanguage(), true
	})
	registry := grammar.New(grammar.WithProviders(provider))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Resolve(context.Background(), language.JavaScript)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := registry.Resolve(context.Background(), language.JavaScript)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}
