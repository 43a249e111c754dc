// Package pipeline runs extracted records through the fixed
// cleaning -> validation -> persistence stage chain.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fbstats/fbref-crawler/internal/record"
)

// OutcomeKind classifies what the chain did with a record.
type OutcomeKind string

// Chain outcomes. Dropped is a business outcome, not an error; Failed means
// a stage hit an operational error (almost always the sink).
const (
	OutcomePersisted OutcomeKind = "persisted"
	OutcomeDropped   OutcomeKind = "dropped"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the result of running one record through the chain.
type Outcome struct {
	Kind   OutcomeKind
	Stage  string
	Reason string // set when Kind is OutcomeDropped
	Err    error  // set when Kind is OutcomeFailed
}

// Stage transforms a record or rejects it. Stages must handle every record
// kind; an unknown kind is a defect and panics via record.MustKind.
type Stage interface {
	Name() string
	Process(ctx context.Context, rec record.Record) (record.Record, error)
}

// DropError signals that a stage removed the record from the pipeline for a
// business reason. It short-circuits the chain without counting as a failure.
type DropError struct {
	Reason string
}

func (e *DropError) Error() string { return e.Reason }

// Dropf builds a DropError from a format string.
func Dropf(format string, args ...any) error {
	return &DropError{Reason: fmt.Sprintf(format, args...)}
}

// Chain is the ordered stage list. Order is fixed at construction and the
// chain short-circuits on the first drop or failure.
type Chain struct {
	stages []Stage
	logger *zap.Logger
}

// NewChain builds a chain over the given stages.
func NewChain(logger *zap.Logger, stages ...Stage) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{stages: stages, logger: logger}
}

// Run passes rec through every stage in order and reports the outcome.
func (c *Chain) Run(ctx context.Context, rec record.Record) Outcome {
	for _, stage := range c.stages {
		next, err := stage.Process(ctx, rec)
		if err != nil {
			var drop *DropError
			if errors.As(err, &drop) {
				c.logger.Info("record dropped",
					zap.String("stage", stage.Name()),
					zap.String("kind", string(rec.Kind())),
					zap.String("reason", drop.Reason),
				)
				return Outcome{Kind: OutcomeDropped, Stage: stage.Name(), Reason: drop.Reason}
			}
			c.logger.Error("stage failed",
				zap.String("stage", stage.Name()),
				zap.String("kind", string(rec.Kind())),
				zap.String("key", rec.Key()),
				zap.Error(err),
			)
			return Outcome{Kind: OutcomeFailed, Stage: stage.Name(), Err: err}
		}
		rec = next
	}
	return Outcome{Kind: OutcomePersisted}
}
