package service

import (
	"fmt"

	"inventory-orchestrator/internal/util"
)

// Operation identifies one guarded orchestrator operation. Exactly one
// request per operation may be in flight; there is no cross-operation lock,
// so a batch predict and a single predict can run concurrently.
type Operation string

const (
	OpRefreshing       Operation = "refreshing"
	OpPredicting       Operation = "predicting"
	OpOptimizing       Operation = "optimizing"
	OpPredictingSingle Operation = "predictingSingle"
	OpOptimizingSingle Operation = "optimizingSingle"
)

// BusyError reports that an operation was rejected because one with the same
// id was already in flight.
type BusyError struct {
	Op Operation
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("operation %q already in flight", e.Op)
}

// tryBegin marks an operation in flight, rejecting duplicates
func (o *Orchestrator) tryBegin(op Operation) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inflight[op] {
		util.OperationBusyTotal.WithLabelValues(string(op)).Inc()
		return &BusyError{Op: op}
	}
	o.inflight[op] = true
	return nil
}

// end clears the in-flight marker for an operation
func (o *Orchestrator) end(op Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, op)
}

// Busy reports whether the given operation is currently in flight
func (o *Orchestrator) Busy(op Operation) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight[op]
}
