package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommentsCreated counts created comments, partitioned by root vs reply.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_comments_created_total",
		Help: "Total number of comments created",
	}, []string{"kind"})

	// CommentsDeleted counts deleted comments (cascaded replies included).
	CommentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colloquy_comments_deleted_total",
		Help: "Total number of comments deleted",
	})

	// CommentLikeOps counts like/unlike operations by action.
	CommentLikeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_comment_like_ops_total",
		Help: "Total number of comment like/unlike operations",
	}, []string{"action"})

	// ThreadAssemblyLatency records latency of full thread assembly per post.
	ThreadAssemblyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "colloquy_thread_assembly_latency_seconds",
		Help:    "Latency of assembling a post's comment thread",
		Buckets: prometheus.DefBuckets,
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "colloquy_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveThreadAssembly records the elapsed time of a thread assembly that
// started at the given time. Intended for defer.
func ObserveThreadAssembly(start time.Time) {
	ThreadAssemblyLatency.Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
