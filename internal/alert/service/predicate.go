// Package service provides the rule predicate evaluator and the channel
// adapters of the alert bus.
package service

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// Predicates compiles and caches CEL rule predicates. A predicate sees the
// event as the map variable `event`.
type Predicates struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewPredicates creates the shared CEL environment.
func NewPredicates() (*Predicates, error) {
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Predicates{env: env, programs: make(map[string]cel.Program)}, nil
}

// Validate reports whether expr compiles to a boolean expression.
func (p *Predicates) Validate(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := p.program(expr)
	return err
}

// Match evaluates expr against the event. An empty predicate matches.
func (p *Predicates) Match(expr string, e *alertDomain.Event) (bool, error) {
	if expr == "" {
		return true, nil
	}

	program, err := p.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := program.Eval(map[string]any{"event": e.Activation()})
	if err != nil {
		// Missing keys and type mismatches are treated as no match.
		return false, nil
	}
	matched, ok := out.Value().(bool)
	return ok && matched, nil
}

func (p *Predicates) program(expr string) (cel.Program, error) {
	p.mu.RLock()
	program, ok := p.programs[expr]
	p.mu.RUnlock()
	if ok {
		return program, nil
	}

	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperrors.Wrap(alertDomain.ErrInvalidPredicate, issues.Err().Error())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, alertDomain.ErrInvalidPredicate
	}
	program, err := p.env.Program(ast)
	if err != nil {
		return nil, apperrors.Wrap(alertDomain.ErrInvalidPredicate, err.Error())
	}

	p.mu.Lock()
	p.programs[expr] = program
	p.mu.Unlock()
	return program, nil
}
