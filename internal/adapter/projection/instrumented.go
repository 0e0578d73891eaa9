package projection

import (
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a Projector and counts failed transforms.
type Instrumented struct {
	inner    domain.Projector
	failures prometheus.Counter
}

// NewInstrumented creates a counting decorator around a projector.
func NewInstrumented(inner domain.Projector, failures prometheus.Counter) *Instrumented {
	return &Instrumented{inner: inner, failures: failures}
}

func (i *Instrumented) Project(from, to string, p orb.Point) (orb.Point, error) {
	out, err := i.inner.Project(from, to, p)
	if err != nil {
		i.failures.Inc()
	}
	return out, err
}
