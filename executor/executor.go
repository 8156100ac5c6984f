package executor

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/dop251/goja"
	"github.com/patrickmn/go-cache"
	"github.com/viant/lintexec/executor/grammar"
	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
)

// DefaultProgramTimeout bounds a single detection program run
const DefaultProgramTimeout = 5 * time.Second

const entryPoint = "checkSourceCode"

// Hit is a line reported by a detection program
type Hit struct {
	Line      int
	Character int
}

// Outcome is the result of one program within ExecuteAll
type Outcome struct {
	Hits []Hit
	Err  error
}

// Executor evaluates detection programs against source files.
// Every run gets its own JavaScript runtime; compiled programs are shared.
// It is safe for concurrent use.
type Executor struct {
	parser   *Parser
	registry *grammar.Registry
	timeout  time.Duration
	programs *cache.Cache
	logger   *slog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithParser sets the syntax tree parser
func WithParser(parser *Parser) Option {
	return func(e *Executor) {
		e.parser = parser
	}
}

// WithGrammarRegistry sets the grammar registry used by the default parser
func WithGrammarRegistry(registry *grammar.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithProgramTimeout bounds each program run
func WithProgramTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// New creates an executor
func New(opts ...Option) *Executor {
	ret := &Executor{
		timeout:  DefaultProgramTimeout,
		programs: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.parser == nil {
		ret.parser = NewParser(ret.registry)
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultProgramTimeout
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// Parser returns the parser used for AST programs
func (e *Executor) Parser() *Parser {
	return e.parser
}

// Execute runs one program against content written in lang
func (e *Executor) Execute(ctx context.Context, program *model.DetectionProgram, content []byte, lang language.Language) ([]Hit, error) {
	outcome := e.ExecuteAll(ctx, []*model.DetectionProgram{program}, content, lang)[0]
	return outcome.Hits, outcome.Err
}

// ExecuteAll runs programs against content, parsing it at most once.
// Failures are reported per program and never stop the remaining ones.
func (e *Executor) ExecuteAll(ctx context.Context, programs []*model.DetectionProgram, content []byte, lang language.Language) []Outcome {
	ret := make([]Outcome, len(programs))
	var tree *Node
	var parseErr error
	parsed := false
	for i, program := range programs {
		if err := ctx.Err(); err != nil {
			ret[i].Err = err
			continue
		}
		var input interface{}
		switch program.State() {
		case model.SourceCodeRaw:
			input = string(content)
		default:
			if !parsed {
				tree, parseErr = e.parser.Parse(ctx, lang, content)
				parsed = true
			}
			if parseErr != nil {
				ret[i].Err = parseErr
				continue
			}
			input = tree
		}
		ret[i].Hits, ret[i].Err = e.run(ctx, program, lang, input)
	}
	return ret
}

func (e *Executor) run(ctx context.Context, program *model.DetectionProgram, lang language.Language, input interface{}) (hits []Hit, err error) {
	ctx, span := startExecutionSpan(ctx, string(lang), string(program.State()))
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		recordExecution(ctx, string(lang), time.Since(started), len(hits), err == nil)
	}()

	compiled, err := e.compile(program, lang)
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()
	timer := time.AfterFunc(e.timeout, func() {
		vm.Interrupt(ErrProgramTimeout)
	})
	defer timer.Stop()

	value, err := vm.RunProgram(compiled)
	if err != nil {
		return nil, runtimeError(err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, &RuntimeError{Message: "program did not evaluate to a function"}
	}
	var arg goja.Value
	switch actual := input.(type) {
	case *Node:
		arg = vm.ToValue(actual.object())
	default:
		arg = vm.ToValue(actual)
	}
	result, err := fn(goja.Undefined(), arg)
	if err != nil {
		return nil, runtimeError(err)
	}
	return e.toHits(lang, result), nil
}

func (e *Executor) compile(program *model.DetectionProgram, lang language.Language) (*goja.Program, error) {
	key := programKey(lang, program.State(), program.Code)
	if cached, ok := e.programs.Get(key); ok {
		return cached.(*goja.Program), nil
	}
	source := "(function(input) {\n" + program.Code + "\nreturn " + entryPoint + "(input);\n})"
	compiled, err := goja.Compile("detection-program.js", source, false)
	if err != nil {
		return nil, &CompileError{Message: err.Error()}
	}
	e.programs.SetDefault(key, compiled)
	return compiled, nil
}

func runtimeError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return ErrProgramTimeout
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		message := exception.Error()
		if value := exception.Value(); value != nil {
			message = value.String()
		}
		return &RuntimeError{Message: message, Cause: err}
	}
	return &RuntimeError{Message: err.Error(), Cause: err}
}

func (e *Executor) toHits(lang language.Language, result goja.Value) []Hit {
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		e.logger.Warn("program result is not an array", slog.String("language", string(lang)))
		return nil
	}
	items, ok := result.Export().([]interface{})
	if !ok {
		e.logger.Warn("program result is not an array", slog.String("language", string(lang)))
		return nil
	}
	hits := make([]Hit, 0, len(items))
	for _, item := range items {
		hit, ok := toHit(item)
		if !ok {
			e.logger.Warn("invalid violation line detected", slog.String("language", string(lang)), slog.Any("value", item))
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

// toHit accepts a 1-based line number or a {line, character} object
func toHit(value interface{}) (Hit, bool) {
	if object, ok := value.(map[string]interface{}); ok {
		line, ok := toInt(object["line"])
		if !ok || line < 1 {
			return Hit{}, false
		}
		character, ok := toInt(object["character"])
		if !ok || character < 0 {
			character = 0
		}
		return Hit{Line: line, Character: character}, true
	}
	line, ok := toInt(value)
	if !ok || line < 1 {
		return Hit{}, false
	}
	return Hit{Line: line}, true
}

func toInt(value interface{}) (int, bool) {
	switch actual := value.(type) {
	case int64:
		return int(actual), true
	case int:
		return actual, true
	case int32:
		return int(actual), true
	case float64:
		if math.IsNaN(actual) || math.IsInf(actual, 0) || math.Trunc(actual) != actual {
			return 0, false
		}
		return int(actual), true
	}
	return 0, false
}
