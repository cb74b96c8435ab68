package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrementAndAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(m.childSpawned)
	ChildSpawned()
	after := testutil.ToFloat64(m.childSpawned)
	assert.Equal(t, before+1, after)
}

func TestObserveDoesNotPanicBeforeOrAfterInit(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveMainCompile(0.01)
		ObserveDebugCompile(0.02)
		ObservePipeRead(0.001)
	})
}
