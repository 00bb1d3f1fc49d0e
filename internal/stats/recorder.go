// Package stats summarizes latencies of repeated calls.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMin     = 1
	histogramMax     = 3600000000 // 1 hour in microseconds
	histogramSigFigs = 3
)

// Recorder collects call latencies. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram

	success  atomic.Int64
	failed   atomic.Int64
	timeouts atomic.Int64

	start time.Time
}

// NewRecorder returns an empty recorder whose wall clock starts now.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:  hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		start: time.Now(),
	}
}

// Record adds one call outcome.
func (r *Recorder) Record(d time.Duration, ok, timedOut bool) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	// RecordValue is not safe for concurrent use
	r.mu.Lock()
	_ = r.hist.RecordValue(micros)
	r.mu.Unlock()

	if ok {
		r.success.Add(1)
	} else {
		r.failed.Add(1)
	}
	if timedOut {
		r.timeouts.Add(1)
	}
}

// Summary describes the recorded calls.
type Summary struct {
	Count    int64         `json:"count" yaml:"count"`
	Success  int64         `json:"success" yaml:"success"`
	Failed   int64         `json:"failed" yaml:"failed"`
	Timeouts int64         `json:"timeouts" yaml:"timeouts"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P90      time.Duration `json:"p90" yaml:"p90"`
	P95      time.Duration `json:"p95" yaml:"p95"`
	P99      time.Duration `json:"p99" yaml:"p99"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
	RPS      float64       `json:"rps" yaml:"rps"`
}

// ErrorRate returns the share of failed calls.
func (s Summary) ErrorRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Count)
}

// Summary snapshots the recorder.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Success:  r.success.Load(),
		Failed:   r.failed.Load(),
		Timeouts: r.timeouts.Load(),
		Elapsed:  time.Since(r.start),
	}
	s.Count = s.Success + s.Failed
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
	if s.Elapsed > 0 {
		s.RPS = float64(s.Count) / s.Elapsed.Seconds()
	}
	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
