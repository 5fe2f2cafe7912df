// Package simfail is the single process-wide uncaught-failure sink: one
// installed handler that every worker goroutine's top-level function
// routes a panic through. It logs the worker identity and the cause,
// then aborts the process. There is no partial-result recovery — a
// worker that panics means the simulation is no longer meaningful.
package simfail

import (
	"os"

	"github.com/go-catalogsim/catalogsim/internal/simlog"
)

// Handle logs worker and cause via simlog and terminates the process
// with exit code 2: the fatal-abort policy for an invariant violation
// or resource exhaustion that a single worker can't recover from.
func Handle(worker string, cause any) {
	simlog.Error("uncaught worker failure", "worker", worker, "cause", cause)
	os.Exit(2)
}

// Guard recovers a panic in the calling goroutine and routes it through
// Handle, tagged with worker. Call as the first deferred statement in
// every worker's top-level run function:
//
//	defer simfail.Guard("customer-3")
func Guard(worker string) {
	if r := recover(); r != nil {
		Handle(worker, r)
	}
}
