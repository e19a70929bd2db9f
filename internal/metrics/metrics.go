// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the things worth graphing for a webhook bot.
type Collector struct {
	registry *prometheus.Registry

	interactions  *prometheus.CounterVec
	commands      *prometheus.CounterVec
	components    *prometheus.CounterVec
	cacheRefresh  prometheus.Counter
	errorReplies  prometheus.Counter
	dailyPosts    prometheus.Counter
	dailyFailures prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_interactions_total",
			Help: "Inbound interactions by type.",
		}, []string{"type"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Slash command invocations by name.",
		}, []string{"command"}),
		components: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_component_actions_total",
			Help: "Component interactions by decoded action.",
		}, []string{"action"}),
		cacheRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_totd_cache_refresh_total",
			Help: "Times the TOTD cache was recomputed.",
		}),
		errorReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_error_replies_total",
			Help: "Uniform error messages sent to users.",
		}),
		dailyPosts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_daily_totd_posts_total",
			Help: "Successful scheduled TOTD posts.",
		}),
		dailyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_daily_totd_failures_total",
			Help: "Failed scheduled TOTD posts.",
		}),
	}

	c.registry.MustRegister(
		c.interactions,
		c.commands,
		c.components,
		c.cacheRefresh,
		c.errorReplies,
		c.dailyPosts,
		c.dailyFailures,
	)
	return c
}

func (c *Collector) RecordInteraction(kind string)   { c.interactions.WithLabelValues(kind).Inc() }
func (c *Collector) RecordCommand(name string)       { c.commands.WithLabelValues(name).Inc() }
func (c *Collector) RecordComponent(action string)   { c.components.WithLabelValues(action).Inc() }
func (c *Collector) RecordCacheRefresh()             { c.cacheRefresh.Inc() }
func (c *Collector) RecordErrorReply()               { c.errorReplies.Inc() }
func (c *Collector) RecordDailyPost(success bool) {
	if success {
		c.dailyPosts.Inc()
	} else {
		c.dailyFailures.Inc()
	}
}

// Handler exposes the collector's registry for GET /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
