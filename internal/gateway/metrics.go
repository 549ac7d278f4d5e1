package gateway

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Statement kinds used as the "op" label.
const (
	opExec     = "exec"
	opQuery    = "query"
	opNextID   = "next_id"
	opCommit   = "commit"
	opRollback = "rollback"
	opReset    = "reset"
)

// metrics counts gateway statements and failures per op.
type metrics struct {
	statements *prometheus.CounterVec
	errors     *prometheus.CounterVec
}

// newMetrics builds the gateway counters and registers them on reg. A nil
// registerer leaves the counters unregistered. When another gateway already
// registered the same counters on reg, the existing collectors are shared.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "typestore",
			Subsystem: "gateway",
			Name:      "statements_total",
			Help:      "Relational statements issued by the storage gateway.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "typestore",
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Relational statements that returned an error.",
		}, []string{"op"}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.statements, err = register(reg, m.statements); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// observe records one statement of kind op and whether it failed.
func (m *metrics) observe(op string, err error) {
	m.statements.WithLabelValues(op).Inc()
	if err != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}
