// Package metrics holds the listing lifecycle collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avtobot_submissions_total",
		Help: "Submission flows by terminal outcome.",
	}, []string{"outcome"})
	published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avtobot_listings_published_total",
		Help: "Listings posted to the channel by layout.",
	}, []string{"shape"})
	publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "avtobot_publish_failures_total",
		Help: "Channel posts that could not be sent.",
	})
	sales = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avtobot_sale_actions_total",
		Help: "Sold button presses by outcome.",
	}, []string{"outcome"})
	effectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avtobot_side_effect_failures_total",
		Help: "Best-effort edits and notifications that failed.",
	}, []string{"effect"})
	searches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "avtobot_search_results",
		Help:    "Result count per completed search.",
		Buckets: []float64{0, 1, 5, 10, 20},
	})
)

// Collectors returns every collector of this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{submissions, published, publishFailures, sales, effectFailures, searches}
}

// Submission counts a finished submission flow ("published", "cancelled", "failed").
func Submission(outcome string) { submissions.WithLabelValues(outcome).Inc() }

// Published counts a channel post of the given shape.
func Published(shape string) { published.WithLabelValues(shape).Inc() }

// PublishFailed counts a failed channel post.
func PublishFailed() { publishFailures.Inc() }

// Sale counts a sold action outcome.
func Sale(outcome string) { sales.WithLabelValues(outcome).Inc() }

// EffectFailed counts a failed best-effort side effect.
func EffectFailed(effect string) { effectFailures.WithLabelValues(effect).Inc() }

// SearchResults observes the size of a search answer.
func SearchResults(n int) { searches.Observe(float64(n)) }
