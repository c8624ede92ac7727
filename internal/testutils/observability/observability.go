package observability

import (
	"testing"

	testlogr "github.com/peridotvault/icrc3-explorer/internal/testutils/logger"
	"github.com/peridotvault/icrc3-explorer/observability"
)

/*
NOPObservability creates observability implementation which discards logs.
Use it for tests for which it absolutely doesn't make sense to create any logs.
Metrics are collected into a private registry.
*/
func NOPObservability() *observability.Observability {
	return observability.New(testlogr.NOP())
}

/*
Default creates observability implementation which logs using t.
*/
func Default(t testing.TB) *observability.Observability {
	return observability.New(testlogr.New(t))
}
