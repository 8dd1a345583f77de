// metrics — прикладные метрики сервиса (регистрируются в prometheus.DefaultRegisterer
// и отдаются через /metrics вместе с метриками go-grpc-prometheus).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exivox_comments"

var (
	commentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Created comments by kind (top|reply) and anonymity.",
	}, []string{"kind", "anonymous"})

	starsToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stars_toggled_total",
		Help:      "Star toggles by direction (on|off).",
	}, []string{"direction"})

	reports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "Comments reported by users.",
	})

	attachmentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_rejected_total",
		Help:      "Attachments rejected by the form rules, by reason.",
	}, []string{"reason"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// CommentCreated учитывает созданный комментарий.
func CommentCreated(reply, anonymous bool) {
	kind := "top"
	if reply {
		kind = "reply"
	}

	commentsCreated.WithLabelValues(kind, strconv.FormatBool(anonymous)).Inc()
}

// StarToggled учитывает переключение звезды (starred — состояние после переключения).
func StarToggled(starred bool) {
	dir := "off"
	if starred {
		dir = "on"
	}

	starsToggled.WithLabelValues(dir).Inc()
}

// CommentReported учитывает жалобу.
func CommentReported() { reports.Inc() }

// AttachmentRejected учитывает отклонённое вложение.
func AttachmentRejected(reason string) {
	attachmentsRejected.WithLabelValues(reason).Inc()
}

// ObserveHTTP пишет длительность HTTP-запроса.
func ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}

	httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
