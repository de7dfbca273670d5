// Package llm defines the call contract for language models and embedding
// models. Implementations live in subpackages.
package llm

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrGenerationUnavailable is returned when a model call fails.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrGenerationTimeout is returned when a model call exceeds its timeout.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// Generator produces text from a prompt. Output is opaque text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GenerationError describes a failed model call.
type GenerationError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *GenerationError) Error() string {
	msg := e.Op + ": " + ErrGenerationUnavailable.Error()
	if e.Timeout {
		msg = e.Op + ": " + ErrGenerationTimeout.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches ErrGenerationUnavailable always and ErrGenerationTimeout when
// the call timed out.
func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrGenerationUnavailable:
		return true
	case ErrGenerationTimeout:
		return e.Timeout
	}
	return false
}

// Unavailable wraps err as a GenerationError, detecting timeouts.
func Unavailable(op string, err error) error {
	return &GenerationError{Op: op, Timeout: IsTimeout(err), Err: err}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrGenerationTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
