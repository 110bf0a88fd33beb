// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default Prometheus registry via
// promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Matching metrics ──────────────────────────────────────────────────────────

// MatchRequestsTotal counts matching queries.
// Label:
//   - mode: "fresh" (no booking context) or "consolidation"
var MatchRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_requests_total",
		Help:      "Total number of matching queries served.",
	},
	[]string{"mode"},
)

// MatchCandidatesReturned observes how many ranked candidates each matching
// query returned after filtering and truncation.
var MatchCandidatesReturned = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "match_candidates_returned",
		Help:      "Number of candidates returned per matching query.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	},
)

// MatchDuration measures end-to-end matching latency.
var MatchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "match_duration_seconds",
		Help:      "Duration of a matching query from request to ranked response.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Booking metrics ───────────────────────────────────────────────────────────

// ClaimAttemptsTotal counts per-shipment claim transitions.
// Label:
//   - result: "won" or "lost"
var ClaimAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claim_attempts_total",
		Help:      "Total number of atomic shipment claim attempts, by result.",
	},
	[]string{"result"},
)

// BookingsTotal counts booking lifecycle outcomes.
// Label:
//   - event: "created", "completed", or "cancelled"
var BookingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of booking lifecycle events.",
	},
	[]string{"event"},
)

// BookingShipments observes the consolidation size of created bookings.
var BookingShipments = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "booking_shipments",
		Help:      "Number of shipments per booking at creation time.",
		Buckets:   []float64{1, 2, 3, 4, 6, 10},
	},
)

// EventsPublishedTotal counts booking events handed to the broker.
// Labels:
//   - type: the event routing key (e.g. "booking.created")
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of booking events published to the broker.",
	},
	[]string{"type", "result"},
)

// ── Shipment metrics ──────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - insured: "true" or "false"
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by insurance selection.",
	},
	[]string{"insured"},
)
