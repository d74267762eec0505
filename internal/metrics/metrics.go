package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SourceFetch        = "fetch"
	SourceSubscription = "subscription"

	ModeMulticall = "multicall"
	ModeParallel  = "parallel"

	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	EndpointResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "endpoint_responses_total",
		Help: "The total number of endpoint responses",
	}, []string{"endpoint", "status_code"})

	// Query cache metrics
	QueryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "query_cache_hits_total",
		Help: "Number of fetches answered from fresh cached data",
	})

	QueryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "query_cache_misses_total",
		Help: "Number of fetches that had to call the query function",
	})

	QueryCacheWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "query_cache_writes_total",
		Help: "Number of cache entry writes by source",
	}, []string{"source"})

	QueryCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "query_cache_entries",
		Help: "Number of entries currently held by the query cache",
	})

	// Contract read metrics
	ContractReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_reads_total",
		Help: "Number of batch contract reads by execution mode and outcome",
	}, []string{"mode", "status"})

	ContractReadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contract_read_duration_ms",
		Help:    "Duration of batch contract reads in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1ms to ~16s
	})

	SubscriptionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contract_read_subscriptions_active",
		Help: "Number of open live contract read subscriptions",
	})

	// Chain metrics
	BlockNumber = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chain_block_number",
		Help: "Latest block number observed by the block watcher",
	})
)
