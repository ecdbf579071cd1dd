package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AccountingPasses counts completed storage accounting recomputations.
	AccountingPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labvault_accounting_passes_total",
		Help: "Completed storage usage accounting passes.",
	})
	// AccountingFailures counts accounting passes that were abandoned on error.
	AccountingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labvault_accounting_failures_total",
		Help: "Storage usage accounting passes abandoned due to an error.",
	})
	// UsageQueries counts on-demand storage usage calculations.
	UsageQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labvault_usage_queries_total",
		Help: "On-demand storage usage calculations served.",
	})
)

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
