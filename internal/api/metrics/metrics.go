// Package metrics defines and registers all custom Prometheus metrics for the
// blog platform auth service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogauth"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "invalid_credentials", "locked", "inactive", "unverified"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// TokenRotationsTotal counts refresh-token rotations by outcome.
// Label:
//   - outcome: "success" or "invalid"
var TokenRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of refresh token rotation attempts, by outcome.",
	},
	[]string{"outcome"},
)

// TokenReuseDetectedTotal counts rotations that presented a token already
// rotated away, the stolen-or-stale replay signal.
var TokenReuseDetectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_reuse_detected_total",
		Help:      "Total number of refresh tokens replayed after rotation.",
	},
)

// LockoutsTotal counts login attempts rejected by an active lockout.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of login attempts rejected by an active account lockout.",
	},
)

// LoginDuration measures the wall time of a login attempt, dominated by the
// password hash comparison.
var LoginDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login attempts end-to-end.",
		Buckets:   prometheus.DefBuckets,
	},
)

// MailQueueDepth tracks the number of mails waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of mails pending in each queue worker channel.",
	},
	[]string{"worker_id"},
)
