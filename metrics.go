package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes used as the "result" label
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
	LoginResultLocked  = "locked"
	LoginResultInvalid = "invalid"
	LoginResultError   = "error"
)

// Metrics holds the Prometheus collectors updated by sessions
type Metrics struct {
	Logins    *prometheus.CounterVec
	Lockouts  prometheus.Counter
	Logouts   *prometheus.CounterVec
	Autologin *prometheus.CounterVec
}

// NewMetrics registers the auth collectors with registry. A nil registry
// falls back to prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"driver", "result"},
		),
		Lockouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_lockouts_total",
				Help: "Total number of identities placed in the login jail",
			},
		),
		Logouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logouts_total",
				Help: "Total number of logouts by mode",
			},
			[]string{"mode"},
		),
		Autologin: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_autologin_total",
				Help: "Total number of autologin token uses by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) login(driver, result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(driver, result).Inc()
}

func (m *Metrics) lockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) logout(destroy bool) {
	if m == nil {
		return
	}
	mode := "regenerate"
	if destroy {
		mode = "destroy"
	}
	m.Logouts.WithLabelValues(mode).Inc()
}

func (m *Metrics) autologin(result string) {
	if m == nil {
		return
	}
	m.Autologin.WithLabelValues(result).Inc()
}
