// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"net/http"
)

var (
	// LikesProcessed counts like operations by outcome.
	LikesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitmatch_likes_processed_total",
		Help: "Like operations processed, labelled by outcome.",
	}, []string{"outcome"})

	// LikesFailed counts like operations that exhausted their retry budget.
	LikesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitmatch_likes_failed_total",
		Help: "Like operations that surfaced coordination_failed.",
	})

	// MatchesConfirmed counts mutual matches.
	MatchesConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitmatch_matches_confirmed_total",
		Help: "Match records that reached matched status.",
	})

	// MessagesSent counts stored chat messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitmatch_messages_sent_total",
		Help: "Chat messages appended to the store.",
	})

	// ConversationsOpened counts reconciled conversation views opened.
	ConversationsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fitmatch_conversations_opened_total",
		Help: "Reconciled conversation subscriptions opened.",
	})

	// FeedsLoaded counts candidate feeds built, labelled by mode.
	FeedsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fitmatch_feeds_loaded_total",
		Help: "Candidate feeds built, labelled by ordering mode.",
	}, []string{"mode"})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
