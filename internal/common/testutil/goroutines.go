// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// BackgroundGoroutines are started at package init by transitive
// dependencies and live for the whole process.
var BackgroundGoroutines = []string{
	// go.opencensus.io, pulled in by google.golang.org/genai
	"go.opencensus.io/stats/view.(*worker).start",
}

// IgnoreBackground returns goleak options skipping BackgroundGoroutines.
func IgnoreBackground() []goleak.Option {
	opts := make([]goleak.Option, 0, len(BackgroundGoroutines))
	for _, fn := range BackgroundGoroutines {
		opts = append(opts, goleak.IgnoreTopFunction(fn))
	}
	return opts
}

// VerifyNone fails t if goroutines other than the background ones are still
// running. Use with defer at the top of a test.
func VerifyNone(t testing.TB, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, append(IgnoreBackground(), opts...)...)
}
