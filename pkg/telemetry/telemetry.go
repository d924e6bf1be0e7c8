// Package telemetry times store and ingest operations.
//
// Every finished trace feeds the feedcache_op_duration_seconds histogram.
// When a trace directory is configured the per-step breakdown is also
// appended, one JSON object per line, to <dir>/<op>.jsonl by a background writer.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"feedcache/pkg/state/logger"
)

type Step struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_ms"`
}

type Trace struct {
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	Steps    []Step    `json:"steps"`
	TotalMS  float64   `json:"total_ms"`
	lastMark time.Time
	tel      *Telemetry
}

type Options struct {
	// Dir receives the JSONL trace files; empty keeps traces in metrics only.
	Dir           string
	BufferSize    int
	QueueCapacity int
	FlushInterval time.Duration
	MaxFileSize   int64
}

// Telemetry owns the duration histogram and the optional trace writer.
type Telemetry struct {
	opts     Options
	duration *prometheus.HistogramVec

	mu       sync.Mutex
	files    map[string]*os.File
	buffers  map[string]*bufio.Writer
	traces   chan *Trace
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var (
	globalMu sync.RWMutex
	tel      *Telemetry
)

// Init installs the global instance. reg may be nil.
func Init(opts Options, reg prometheus.Registerer) error {
	t, err := New(opts, reg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	prev := tel
	tel = t
	globalMu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

// Track starts a trace on the global instance. Without Init the trace
// still records marks but Finish reports nowhere.
func Track(name string) *Trace {
	globalMu.RLock()
	t := tel
	globalMu.RUnlock()
	return t.Track(name)
}

// Close stops the global instance.
func Close() {
	globalMu.Lock()
	t := tel
	tel = nil
	globalMu.Unlock()
	if t != nil {
		t.Close()
	}
}

func New(opts Options, reg prometheus.Registerer) (*Telemetry, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64 << 10
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 1024
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	t := &Telemetry{
		opts: opts,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "feedcache",
			Name:      "op_duration_seconds",
			Help:      "Duration of store and ingest operations.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		}, []string{"op"}),
		files:   make(map[string]*os.File),
		buffers: make(map[string]*bufio.Writer),
		stopCh:  make(chan struct{}),
	}
	if reg != nil {
		if err := reg.Register(t.duration); err != nil {
			return nil, err
		}
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		t.traces = make(chan *Trace, opts.QueueCapacity)
		t.wg.Add(1)
		go t.writerLoop()
	}
	return t, nil
}

// Track starts a trace linked to t. A nil t yields a detached trace.
func (t *Telemetry) Track(name string) *Trace {
	now := time.Now()
	return &Trace{Name: name, Start: now, lastMark: now, tel: t}
}

// Mark records the time spent since the previous mark.
func (tr *Trace) Mark(label string) {
	now := time.Now()
	tr.Steps = append(tr.Steps, Step{Name: label, Duration: now.Sub(tr.lastMark).Seconds() * 1000})
	tr.lastMark = now
}

// Finish reports the trace once. Safe to call repeatedly or via defer.
func (tr *Trace) Finish() {
	t := tr.tel
	if t == nil {
		return
	}
	tr.tel = nil

	elapsed := time.Since(tr.Start)
	tr.TotalMS = elapsed.Seconds() * 1000
	var sum float64
	for _, s := range tr.Steps {
		sum += s.Duration
	}
	if remaining := tr.TotalMS - sum; remaining > 0.001 {
		tr.Steps = append(tr.Steps, Step{Name: "unmarked", Duration: remaining})
	}
	t.duration.WithLabelValues(tr.Name).Observe(elapsed.Seconds())

	if t.traces == nil {
		return
	}
	select {
	case t.traces <- tr:
	case <-t.stopCh:
	default:
		logger.Debug("telemetry_trace_dropped", "op", tr.Name)
	}
}

// Histogram exposes the duration collector for tests and ad-hoc registries.
func (t *Telemetry) Histogram() *prometheus.HistogramVec { return t.duration }

func (t *Telemetry) Close() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

func (t *Telemetry) writerLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case tr := <-t.traces:
			t.write(tr)
		case <-ticker.C:
			t.flush(true)
		case <-t.stopCh:
		drain:
			for {
				select {
				case tr := <-t.traces:
					t.write(tr)
				default:
					break drain
				}
			}
			t.flush(false)
			t.mu.Lock()
			for _, f := range t.files {
				_ = f.Sync()
				_ = f.Close()
			}
			t.mu.Unlock()
			return
		}
	}
}

func (t *Telemetry) write(tr *Trace) {
	data, err := json.Marshal(tr)
	if err != nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.bufferFor(tr.Name)
	if b == nil {
		return
	}
	b.Write(data)
	b.WriteByte('\n')
}

// flush writes buffers out and, when rotate is set, truncates oversized files.
func (t *Telemetry) flush(rotate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, b := range t.buffers {
		b.Flush()
		if !rotate || t.opts.MaxFileSize <= 0 {
			continue
		}
		f := t.files[name]
		if fi, err := f.Stat(); err == nil && fi.Size() > t.opts.MaxFileSize {
			if err := f.Truncate(0); err == nil {
				_, _ = f.Seek(0, 0)
				logger.Info("telemetry_truncated", "op", name, "max_bytes", t.opts.MaxFileSize)
			}
		}
	}
}

func (t *Telemetry) bufferFor(op string) *bufio.Writer {
	if b, ok := t.buffers[op]; ok {
		return b
	}
	path := filepath.Join(t.opts.Dir, fmt.Sprintf("%s.jsonl", op))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warn("telemetry_open_failed", "path", path, "error", err)
		return nil
	}
	b := bufio.NewWriterSize(f, t.opts.BufferSize)
	t.files[op] = f
	t.buffers[op] = b
	return b
}
