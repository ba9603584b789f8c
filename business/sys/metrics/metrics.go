// Package metrics constructs the metrics the application will track.
package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger is the behavior the gauges need to read the state of the ledger.
type Ledger interface {
	RetrieveLatestBlock() database.Block
	QueryMempoolLength() int
	RetrieveUTXOCount() int
}

var (
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	errorsTotal  prometheus.Counter
	panicsTotal  prometheus.Counter
	transactions prometheus.Counter
	blocks       *prometheus.CounterVec

	ledger atomic.Value

	initOnce sync.Once
)

// ledgerHolder keeps the stored type stable for atomic.Value.
type ledgerHolder struct {
	Ledger
}

// Init registers the metrics with the default prometheus registry. It is
// safe to call more than once.
func Init() {
	initOnce.Do(initMetrics)
}

func initMetrics() {
	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Number of requests handled by the api",
		},
		[]string{
			"method", // http method of the request
			"code",   // status code returned
		},
	)
	duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Time taken to handle a request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	errorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_http_errors_total",
			Help: "Number of requests that returned an error",
		},
	)
	panicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_http_panics_total",
			Help: "Number of requests that panicked",
		},
	)
	transactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transactions_submitted_total",
			Help: "Number of transactions accepted into the pending pool",
		},
	)
	blocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_blocks_total",
			Help: "Number of blocks added to the chain through the api",
		},
		[]string{
			"source", // mined or proposed
		},
	)

	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_chain_height",
			Help: "Index of the latest block in the chain",
		},
		func() float64 {
			if l := currentLedger(); l != nil {
				return float64(l.RetrieveLatestBlock().Index)
			}
			return 0
		},
	)
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_pending_transactions",
			Help: "Number of transactions waiting to be mined",
		},
		func() float64 {
			if l := currentLedger(); l != nil {
				return float64(l.QueryMempoolLength())
			}
			return 0
		},
	)
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_utxos",
			Help: "Number of utxos known to the ledger, spent or not",
		},
		func() float64 {
			if l := currentLedger(); l != nil {
				return float64(l.RetrieveUTXOCount())
			}
			return 0
		},
	)
}

// SetLedger binds the gauges to the specified ledger.
func SetLedger(l Ledger) {
	Init()
	ledger.Store(ledgerHolder{l})
}

func currentLedger() Ledger {
	h, ok := ledger.Load().(ledgerHolder)
	if !ok {
		return nil
	}
	return h.Ledger
}

// =============================================================================

// AddRequest records a handled request.
func AddRequest(method string, statusCode int, took time.Duration) {
	Init()
	requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	duration.WithLabelValues(method).Observe(took.Seconds())
}

// AddError records a request that returned an error.
func AddError() {
	Init()
	errorsTotal.Inc()
}

// AddPanic records a request that panicked.
func AddPanic() {
	Init()
	panicsTotal.Inc()
}

// AddTransaction records a transaction accepted into the pending pool.
func AddTransaction() {
	Init()
	transactions.Inc()
}

// AddBlock records a block added to the chain. The source is either
// mined or proposed.
func AddBlock(source string) {
	Init()
	blocks.WithLabelValues(source).Inc()
}
