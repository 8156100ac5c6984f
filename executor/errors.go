package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrProgramCompile indicates the detection program source is not valid JavaScript
	ErrProgramCompile = errors.New("detection program failed to compile")
	// ErrProgramRuntime indicates the detection program threw while running
	ErrProgramRuntime = errors.New("detection program failed at runtime")
	// ErrProgramTimeout indicates the detection program exceeded its time budget
	ErrProgramTimeout = errors.New("detection program timed out")
	// ErrParse indicates the file content could not be parsed into a syntax tree
	ErrParse = errors.New("failed to parse source code")
)

// CompileError carries the compiler message of an invalid program
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v: %v", ErrProgramCompile, e.Message)
}

func (e *CompileError) Unwrap() error {
	return ErrProgramCompile
}

// RuntimeError carries the exception raised by a program
type RuntimeError struct {
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrProgramRuntime, e.Message)
}

func (e *RuntimeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrProgramRuntime}
	}
	return []error{ErrProgramRuntime, e.Cause}
}
