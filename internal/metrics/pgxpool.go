package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus
// gauges labelled with the pool name.
func RegisterPgxPoolMetrics(reg prometheus.Registerer, name string, pool *pgxpool.Pool) {
	stats := []struct {
		metric string
		help   string
		value  func(*pgxpool.Stat) float64
	}{
		{"acquired_conns", "Number of currently acquired connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
		{"idle_conns", "Number of idle connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
		{"total_conns", "Total number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }},
		{"max_conns", "Maximum number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
		{"empty_acquire_count", "Acquires that had to wait for a connection",
			func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }},
	}

	for _, st := range stats {
		value := st.value
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "maildns_pgxpool_" + st.metric,
			Help:        st.help,
			ConstLabels: prometheus.Labels{"pool": name},
		}, func() float64 {
			return value(pool.Stat())
		}))
	}
}
