package executor

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/lintexec/executor/grammar"
	"github.com/viant/lintexec/language"
)

// Parser turns source code into simplified syntax trees
type Parser struct {
	registry *grammar.Registry
}

// NewParser creates a parser over registry, a builtin registry when nil
func NewParser(registry *grammar.Registry) *Parser {
	if registry == nil {
		registry = grammar.New()
	}
	return &Parser{registry: registry}
}

// Supports reports whether a grammar can be resolved for lang
func (p *Parser) Supports(ctx context.Context, lang language.Language) bool {
	_, err := p.registry.Resolve(ctx, lang)
	return err == nil
}

// Parse parses content with the grammar of lang
func (p *Parser) Parse(ctx context.Context, lang language.Language, content []byte) (*Node, error) {
	grammarLanguage, err := p.registry.Resolve(ctx, lang)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(grammarLanguage)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrParse, lang, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, lang)
	}
	defer tree.Close()
	return Simplify(tree.RootNode(), content), nil
}
