// Package metrics defines and registers the custom Prometheus metrics for the
// sweet shop API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register themselves with the default registry on package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// ── Stock metrics ─────────────────────────────────────────────────────────────

// StockAdjustmentsTotal counts applied stock changes.
// Label:
//   - kind: "purchase" or "restock"
var StockAdjustmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_adjustments_total",
		Help:      "Total number of applied stock adjustments, by kind.",
	},
	[]string{"kind"},
)

// UnitsSoldTotal counts units removed from stock by purchases.
var UnitsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total number of units sold across all sweets.",
	},
)

// PurchaseRejectionsTotal counts purchases that did not change stock.
// Label:
//   - reason: "insufficient_stock", "not_found", "invalid", "duplicate" or "error"
var PurchaseRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_rejections_total",
		Help:      "Total number of rejected purchases, by reason.",
	},
	[]string{"reason"},
)

// ── Catalogue metrics ─────────────────────────────────────────────────────────

// SweetsChangedTotal counts catalogue writes.
// Label:
//   - op: "create", "update" or "delete"
var SweetsChangedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweets_changed_total",
		Help:      "Total number of sweet catalogue writes, by operation.",
	},
	[]string{"op"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts registration and login outcomes.
// Labels:
//   - action: "register" or "login"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)
