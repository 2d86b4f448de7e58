// Package metrics объявляет метрики Prometheus сервиса
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "school_scheduler"

var (
	// BookingAttempts попытки бронирования по результату: created или код ошибки
	BookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_attempts_total",
		Help:      "Booking creation attempts by result.",
	}, []string{"result"})

	// AttendanceMarked отметки посещаемости по статусу
	AttendanceMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_marked_total",
		Help:      "Attendance records created by status.",
	}, []string{"status"})

	// PlansActivated новые циклы планов по циклу оплаты
	PlansActivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_activated_total",
		Help:      "Plan cycles persisted by billing cycle and payment status.",
	}, []string{"billing_cycle", "payment_status"})

	// OccurrencesExpanded размер ответов доступности
	OccurrencesExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "availability_occurrences",
		Help:      "Number of occurrences returned per availability request.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	// HTTPRequests запросы HTTP API по маршруту и коду ответа
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
)
