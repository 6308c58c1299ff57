package orchestrator

import (
	"context"
	"fmt"

	"ContactScanner/internal/domain"
)

// RunResult carries everything a pipeline run produced, including partial
// output when the run stopped early.
type RunResult struct {
	Contacts []domain.Contact
	Report   *domain.AnalysisReport
	Outreach []domain.OutreachResult
	Success  bool
	Errors   []string
}

// Strategy is one way to drive a campaign over a contact list. Two are
// shipped: the batch pipeline (scan everything, analyze, score, report) and
// the outreach engine (visit, qualify, and message each contact in one
// pass). Callers select by name.
type Strategy interface {
	Name() string
	Run(ctx context.Context, contacts []domain.Contact) (RunResult, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("strategy %s is not registered", name)
}
