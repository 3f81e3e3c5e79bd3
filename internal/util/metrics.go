package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_built_total",
		Help: "Total number of pending sales stored",
	})

	SalesConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_confirmed_total",
		Help: "Total number of sales confirmed",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of sale builds or confirmations rejected",
	}, []string{"reason"})

	SalesRevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_revenue_total",
		Help: "Sum of confirmed sale totals, in minor currency units",
	})

	ConfirmLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_confirm_latency_seconds",
		Help:    "Latency of sale confirmation transactions",
		Buckets: prometheus.DefBuckets,
	})

	StockUnitsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_units_sold_total",
		Help: "Units of stock decremented by confirmed sales",
	})

	EventsPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
