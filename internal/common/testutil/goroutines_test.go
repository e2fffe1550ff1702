package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnoreBackground_CoversInitWorkers(t *testing.T) {
	assert.Contains(t, BackgroundGoroutines, "go.opencensus.io/stats/view.(*worker).start")
	assert.Len(t, IgnoreBackground(), len(BackgroundGoroutines))
}

func TestVerifyNone_FinishedGoroutines(t *testing.T) {
	done := make(chan struct{})
	go func() { close(done) }()
	<-done

	VerifyNone(t)
}
