package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "capsula"

// Metrics — Prometheus метрики процесса.
//
// Все методы безопасны для nil-получателя: компоненты, созданные
// без метрик (например, в тестах), просто ничего не пишут.
type Metrics struct {
	workersLive      prometheus.Gauge
	workerStarts     *prometheus.CounterVec
	workerTerminated *prometheus.CounterVec
	restartDelay     prometheus.Histogram
	refreshes        *prometheus.CounterVec
	dataVersion      prometheus.Gauge
	lockWait         prometheus.Histogram
	lockHeld         prometheus.Gauge
	tickPanics       prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		workersLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_live",
			Help:      "Number of worker handles tracked by the orchestrator.",
		}),
		workerStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_starts_total",
			Help:      "Workers started by the orchestrator.",
		}, []string{"account"}),
		workerTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_terminations_total",
			Help:      "Workers reaped after termination.",
		}, []string{"account"}),
		restartDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "restart_delay_seconds",
			Help:      "Delay scheduled before an account may be restarted.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Shared data refresh attempts by result.",
		}, []string{"result"}),
		dataVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shared_data_version",
			Help:      "Version of the currently published shared data.",
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_lock_wait_seconds",
			Help:      "Time spent waiting for the refresh lock.",
			Buckets:   prometheus.DefBuckets,
		}),
		lockHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_lock_held",
			Help:      "1 while a worker holds the refresh lock.",
		}),
		tickPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_panics_total",
			Help:      "Per-account orchestrator steps that panicked.",
		}),
	}

	reg.MustRegister(
		m.workersLive,
		m.workerStarts,
		m.workerTerminated,
		m.restartDelay,
		m.refreshes,
		m.dataVersion,
		m.lockWait,
		m.lockHeld,
		m.tickPanics,
	)

	return m
}

// SetWorkersLive обновляет количество отслеживаемых worker'ов.
func (m *Metrics) SetWorkersLive(n int) {
	if m == nil {
		return
	}
	m.workersLive.Set(float64(n))
}

// WorkerStarted учитывает запуск worker'а.
func (m *Metrics) WorkerStarted(account string) {
	if m == nil {
		return
	}
	m.workerStarts.WithLabelValues(account).Inc()
}

// WorkerTerminated учитывает завершение worker'а и назначенную задержку.
func (m *Metrics) WorkerTerminated(account string, delay time.Duration) {
	if m == nil {
		return
	}
	m.workerTerminated.WithLabelValues(account).Inc()
	m.restartDelay.Observe(delay.Seconds())
}

// RefreshSucceeded учитывает успешное обновление общих данных.
func (m *Metrics) RefreshSucceeded(version uint64) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("success").Inc()
	m.dataVersion.Set(float64(version))
}

// RefreshFailed учитывает неудачное обновление.
func (m *Metrics) RefreshFailed() {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("failure").Inc()
}

// ObserveLockWait реализует shared.LockObserver.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// SetLockHeld реализует shared.LockObserver.
func (m *Metrics) SetLockHeld(held bool) {
	if m == nil {
		return
	}
	if held {
		m.lockHeld.Set(1)
	} else {
		m.lockHeld.Set(0)
	}
}

// TickPanic учитывает panic в шаге оркестратора.
func (m *Metrics) TickPanic() {
	if m == nil {
		return
	}
	m.tickPanics.Inc()
}
