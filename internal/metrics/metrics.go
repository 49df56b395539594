package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_chat_turns_total",
			Help: "Chat messages handled, by session mode at arrival",
		},
		[]string{"mode"},
	)

	FormsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_forms_started_total",
			Help: "Lead forms entered from chat",
		},
		[]string{"industry"},
	)

	FormsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_forms_completed_total",
			Help: "Lead forms whose last question was answered",
		},
		[]string{"industry"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_llm_calls_total",
			Help: "Reply generator calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadbot_llm_duration_seconds",
			Help:    "Reply generator latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"provider"},
	)

	LeadWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_lead_writes_total",
			Help: "Lead sink writes by sink, source and outcome",
		},
		[]string{"sink", "source", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadbot_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Outcome maps an error to its label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
