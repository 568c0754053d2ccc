package orchestration

import (
	"context"
	"fmt"

	"github.com/bizmatters/graphide-orchestrator/internal/joern"
)

// GraphEngine runs code-property-graph queries
type GraphEngine interface {
	RunQuery(ctx context.Context, query string) (joern.QueryStatus, string, error)
}

// SliceStatus is the outcome of a slice query
type SliceStatus string

const (
	SliceSucceeded SliceStatus = "success"
	SliceFailed    SliceStatus = "failure"
)

// SliceResult is the normalized result of a graph query. RawResult is
// set on success and Message on failure.
type SliceResult struct {
	Status    SliceStatus
	RawResult string
	Message   string
}

// ExecuteSlice runs query against engine once and normalizes the outcome.
// Only transport failures are returned as errors.
func ExecuteSlice(ctx context.Context, engine GraphEngine, query string) (SliceResult, error) {
	status, text, err := engine.RunQuery(ctx, query)
	if err != nil {
		return SliceResult{}, fmt.Errorf("graph engine unavailable: %w", err)
	}

	switch status {
	case joern.QuerySucceeded:
		return SliceResult{Status: SliceSucceeded, RawResult: text}, nil
	case joern.QueryFailed, joern.QueryTimedOut:
		return SliceResult{Status: SliceFailed, Message: "query failed: " + text}, nil
	default:
		return SliceResult{}, fmt.Errorf("unexpected query status %s", status)
	}
}
