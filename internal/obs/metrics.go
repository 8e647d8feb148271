package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_created_total",
		Help: "Sessions created.",
	})

	sessionsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_sessions_resolved_total",
		Help: "Successful session resolutions (each extends the sliding window).",
	})

	cookieWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_cookie_writes_total",
		Help: "Session cookie rows inserted.",
	})

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	consumablesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_consumable_tokens_issued_total",
		Help: "Single-use tokens issued.",
	})

	consumablesRedeemed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_consumable_tokens_redeemed_total",
			Help: "Consume attempts by result.",
		},
		[]string{"result"},
	)
)

// Init registers the auth metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		sessionsCreated, sessionsResolved, cookieWrites,
		loginAttempts, consumablesIssued, consumablesRedeemed,
	)
}

// Handler exposes the Prometheus scrape endpoint for the host to mount.
func Handler() http.Handler {
	return promhttp.Handler()
}

func SessionCreated()  { sessionsCreated.Inc() }
func SessionResolved() { sessionsResolved.Inc() }
func CookieWritten()   { cookieWrites.Inc() }

func LoginAttempt(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	loginAttempts.WithLabelValues(outcome).Inc()
}

func ConsumableIssued() { consumablesIssued.Inc() }

func ConsumableRedeemed(result string) {
	consumablesRedeemed.WithLabelValues(result).Inc()
}
