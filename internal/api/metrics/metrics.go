// Package metrics defines and registers all custom Prometheus metrics for the
// task API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskapi"

// ── Account metrics ───────────────────────────────────────────────────────────

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of registered users.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "failed", "rejected" (empty credentials) or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts logout operations.
// Label:
//   - scope: "one" (logout) or "all" (logoutAll)
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of session revocations, by scope.",
	},
	[]string{"scope"},
)

// AccountDeletionsTotal counts account deletions.
// Label:
//   - result: "success", "cascade_failed" or "user_failed"
var AccountDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_deletions_total",
		Help:      "Total number of account deletions, by result.",
	},
	[]string{"result"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts created tasks.
var TasksCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created.",
	},
)

// TasksDeletedTotal counts removed tasks.
// Label:
//   - reason: "explicit", "cascade" or "sweep"
var TasksDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_deleted_total",
		Help:      "Total number of tasks deleted, by reason.",
	},
	[]string{"reason"},
)

// OrphanSweepsTotal counts background orphan sweeps.
// Label:
//   - result: "ok", "error" or "dropped" (queue full)
var OrphanSweepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_sweeps_total",
		Help:      "Total number of orphan task sweeps, by result.",
	},
	[]string{"result"},
)

// OrphanSweepQueueDepth tracks pending sweeps in each worker channel.
// Label:
//   - worker_id: numeric worker index
var OrphanSweepQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "orphan_sweep_queue_depth",
		Help:      "Current number of sweeps pending in each worker channel.",
	},
	[]string{"worker_id"},
)
