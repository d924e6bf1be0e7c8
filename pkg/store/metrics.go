package store

import (
	"github.com/prometheus/client_golang/prometheus"

	"feedcache/pkg/store/db"
)

// metrics holds the store counters and reports engine state on collect.
type metrics struct {
	engine *db.DB

	insertSkipped      *prometheus.CounterVec
	resolveDropped     *prometheus.CounterVec
	profileCacheHits   prometheus.Counter
	profileCacheMisses prometheus.Counter

	walBytes       *prometheus.Desc
	l0Files        *prometheus.Desc
	l0Bytes        *prometheus.Desc
	compactionDebt *prometheus.Desc
	diskUsage      *prometheus.Desc
}

func newMetrics(engine *db.DB) *metrics {
	gauge := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("feedcache", "pebble", name), help, nil, nil)
	}
	return &metrics{
		engine: engine,
		insertSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedcache",
			Subsystem: "store",
			Name:      "insert_skipped_total",
			Help:      "First-write-wins inserts skipped because the key already existed.",
		}, []string{"table"}),
		resolveDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedcache",
			Subsystem: "store",
			Name:      "resolve_dropped_total",
			Help:      "Index pointers dropped from range reads.",
		}, []string{"reason"}),
		profileCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "feedcache",
			Subsystem: "store",
			Name:      "profile_cache_hits_total",
			Help:      "Profile reads served from the cache.",
		}),
		profileCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "feedcache",
			Subsystem: "store",
			Name:      "profile_cache_misses_total",
			Help:      "Profile reads that went to the engine.",
		}),
		walBytes:       gauge("wal_bytes", "Size of the live write-ahead log."),
		l0Files:        gauge("l0_files", "Number of sstables in level 0."),
		l0Bytes:        gauge("l0_bytes", "Bytes in level 0."),
		compactionDebt: gauge("compaction_debt_bytes", "Estimated bytes to compact before the LSM is stable."),
		diskUsage:      gauge("disk_usage_bytes", "Total bytes used by the engine on disk."),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	return reg.Register(m)
}

func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	m.insertSkipped.Describe(ch)
	m.resolveDropped.Describe(ch)
	m.profileCacheHits.Describe(ch)
	m.profileCacheMisses.Describe(ch)
	ch <- m.walBytes
	ch <- m.l0Files
	ch <- m.l0Bytes
	ch <- m.compactionDebt
	ch <- m.diskUsage
}

func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	m.insertSkipped.Collect(ch)
	m.resolveDropped.Collect(ch)
	m.profileCacheHits.Collect(ch)
	m.profileCacheMisses.Collect(ch)

	pm := m.engine.Metrics()
	if pm == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(m.walBytes, prometheus.GaugeValue, float64(pm.WAL.Size))
	ch <- prometheus.MustNewConstMetric(m.l0Files, prometheus.GaugeValue, float64(pm.Levels[0].NumFiles))
	ch <- prometheus.MustNewConstMetric(m.l0Bytes, prometheus.GaugeValue, float64(pm.Levels[0].Size))
	ch <- prometheus.MustNewConstMetric(m.compactionDebt, prometheus.GaugeValue, float64(pm.Compact.EstimatedDebt))
	ch <- prometheus.MustNewConstMetric(m.diskUsage, prometheus.GaugeValue, float64(pm.DiskSpaceUsage()))
}
