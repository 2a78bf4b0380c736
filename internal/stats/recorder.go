// Package stats aggregates latencies of repeated requests.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = int64(time.Hour / time.Microsecond)
	histogramSigFigs = 3
)

// Recorder collects request latencies in an HDR histogram.
//
// Recorder is safe for concurrent use. Counters are atomic and the
// histogram is guarded by a mutex.
type Recorder struct {
	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
	bytes   atomic.Int64

	startTime time.Time
}

// Summary is a point-in-time view of a Recorder.
type Summary struct {
	Requests int64         `json:"requests" yaml:"requests"`
	Success  int64         `json:"success" yaml:"success"`
	Failed   int64         `json:"failed" yaml:"failed"`
	Skipped  int64         `json:"skipped" yaml:"skipped"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
	RPS      float64       `json:"rps" yaml:"rps"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P90      time.Duration `json:"p90" yaml:"p90"`
	P95      time.Duration `json:"p95" yaml:"p95"`
	P99      time.Duration `json:"p99" yaml:"p99"`
}

// NewRecorder creates an empty Recorder. Elapsed time is measured from here.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:      hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		startTime: time.Now(),
	}
}

// Record adds one request.
func (r *Recorder) Record(latency time.Duration, success bool, bytes int64) {
	micros := latency.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.histMu.Lock()
	_ = r.hist.RecordValue(micros)
	r.histMu.Unlock()

	r.total.Add(1)
	r.bytes.Add(bytes)
	if success {
		r.success.Add(1)
	} else {
		r.failed.Add(1)
	}
}

// Skip counts n requests that were never sent. They are failures with no
// latency sample.
func (r *Recorder) Skip(n int) {
	if n <= 0 {
		return
	}
	r.total.Add(int64(n))
	r.failed.Add(int64(n))
	r.skipped.Add(int64(n))
}

// Summary returns the current aggregate.
func (r *Recorder) Summary() Summary {
	elapsed := time.Since(r.startTime)
	s := Summary{
		Requests: r.total.Load(),
		Success:  r.success.Load(),
		Failed:   r.failed.Load(),
		Skipped:  r.skipped.Load(),
		Bytes:    r.bytes.Load(),
		Elapsed:  elapsed,
	}
	if elapsed > 0 {
		s.RPS = float64(s.Requests) / elapsed.Seconds()
	}

	r.histMu.Lock()
	defer r.histMu.Unlock()
	if r.hist.TotalCount() == 0 {
		return s
	}
	s.Min = micros(r.hist.Min())
	s.Max = micros(r.hist.Max())
	s.Mean = time.Duration(r.hist.Mean() * float64(time.Microsecond))
	s.P50 = micros(r.hist.ValueAtQuantile(50))
	s.P90 = micros(r.hist.ValueAtQuantile(90))
	s.P95 = micros(r.hist.ValueAtQuantile(95))
	s.P99 = micros(r.hist.ValueAtQuantile(99))
	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
