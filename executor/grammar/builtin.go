package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var builtin = map[string]func() *sitter.Language{
	"bash":       bash.GetLanguage,
	"c":          c.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"csharp":     csharp.GetLanguage,
	"css":        css.GetLanguage,
	"golang":     golang.GetLanguage,
	"html":       html.GetLanguage,
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"php":        php.GetLanguage,
	"python":     python.GetLanguage,
	"sql":        sql.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"typescript": typescript.GetLanguage,
}

// Builtin returns a provider of the grammars compiled into the binary
func Builtin() Provider {
	return ProviderFunc(func(name string) (*sitter.Language, bool) {
		fn, ok := builtin[name]
		if !ok {
			return nil, false
		}
		return fn(), true
	})
}

// Static returns a provider serving a fixed set of grammars, mainly for tests and embedding
func Static(grammars map[string]*sitter.Language) Provider {
	return ProviderFunc(func(name string) (*sitter.Language, bool) {
		grammar, ok := grammars[name]
		return grammar, ok
	})
}
