package language

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Language represents a programming language a detection program can target
type Language string

const (
	Bash          Language = "BASH"
	C             Language = "C"
	CPP           Language = "CPP"
	CSharp        Language = "CSHARP"
	Go            Language = "GO"
	HTML          Language = "HTML"
	Java          Language = "JAVA"
	JavaScript    Language = "JAVASCRIPT"
	JavaScriptJSX Language = "JAVASCRIPT_JSX"
	PHP           Language = "PHP"
	Python        Language = "PYTHON"
	SCSS          Language = "SCSS"
	SQL           Language = "SQL"
	TypeScript    Language = "TYPESCRIPT"
	TypeScriptTSX Language = "TYPESCRIPT_TSX"
)

var (
	// ErrEmpty is returned when parsing an empty language name
	ErrEmpty = errors.New("programming language cannot be empty")
	// ErrUnknown is returned when a value matches no language
	ErrUnknown = errors.New("unknown programming language")
)

// Info describes how a language is displayed and recognised
type Info struct {
	DisplayName    string
	FileExtensions []string
}

var details = map[Language]Info{
	Bash:          {DisplayName: "Bash", FileExtensions: []string{"sh", "bash"}},
	C:             {DisplayName: "C", FileExtensions: []string{"c", "h"}},
	CPP:           {DisplayName: "C++", FileExtensions: []string{"cpp", "cc", "cxx", "c++", "hpp", "hxx"}},
	CSharp:        {DisplayName: "C#", FileExtensions: []string{"cs"}},
	Go:            {DisplayName: "Go", FileExtensions: []string{"go"}},
	HTML:          {DisplayName: "HTML", FileExtensions: []string{"html", "htm"}},
	Java:          {DisplayName: "Java", FileExtensions: []string{"java"}},
	JavaScript:    {DisplayName: "JavaScript", FileExtensions: []string{"js", "mjs", "cjs"}},
	JavaScriptJSX: {DisplayName: "JavaScript (JSX)", FileExtensions: []string{"jsx"}},
	PHP:           {DisplayName: "PHP", FileExtensions: []string{"php"}},
	Python:        {DisplayName: "Python", FileExtensions: []string{"py"}},
	SCSS:          {DisplayName: "SCSS", FileExtensions: []string{"scss"}},
	SQL:           {DisplayName: "SQL", FileExtensions: []string{"sql"}},
	TypeScript:    {DisplayName: "TypeScript", FileExtensions: []string{"ts", "mts", "cts"}},
	TypeScriptTSX: {DisplayName: "TypeScript (TSX)", FileExtensions: []string{"tsx"}},
}

var byExtension = func() map[string]Language {
	ret := map[string]Language{}
	for lang, info := range details {
		for _, ext := range info.FileExtensions {
			ret[ext] = lang
		}
	}
	return ret
}()

// All returns every supported language sorted by display name
func All() []Language {
	ret := make([]Language, 0, len(details))
	for lang := range details {
		ret = append(ret, lang)
	}
	sort.Slice(ret, func(i, j int) bool {
		return details[ret[i]].DisplayName < details[ret[j]].DisplayName
	})
	return ret
}

// Details returns display information for the language
func (l Language) Details() (Info, bool) {
	info, ok := details[l]
	return info, ok
}

// DisplayName returns a human readable name, or the raw value for unknown languages
func (l Language) DisplayName() string {
	if info, ok := details[l]; ok {
		return info.DisplayName
	}
	return string(l)
}

// Valid reports whether l is a known language
func (l Language) Valid() bool {
	_, ok := details[l]
	return ok
}

// FromExtension resolves a file extension (with or without a leading dot)
func FromExtension(ext string) (Language, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "", false
	}
	lang, ok := byExtension[ext]
	return lang, ok
}

// Parse resolves a language by enum name, display name or file extension, case-insensitively
func Parse(value string) (Language, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrEmpty
	}
	upper := strings.ToUpper(trimmed)
	if _, ok := details[Language(upper)]; ok {
		return Language(upper), nil
	}
	for lang, info := range details {
		if strings.EqualFold(info.DisplayName, trimmed) {
			return lang, nil
		}
	}
	if lang, ok := FromExtension(trimmed); ok {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, value)
}
