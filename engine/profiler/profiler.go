// Package profiler aggregates per-frame timing and culling statistics and reports them
// at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/log"
)

var profilerLog = log.New("profiler")

// DefaultInterval is how often a report is produced.
const DefaultInterval = time.Second

// Sample is what the run loop knows about one finished frame.
type Sample struct {
	// DeltaTime is the scene time step used for the frame.
	DeltaTime time.Duration
	// InFlight is how many submissions the device had not completed after Submit.
	InFlight int
	// Visible and Culled count view-space objects after culling.
	Visible int
	Culled  int
}

// Stats is one report window.
type Stats struct {
	Frames      int
	FPS         float64
	FrameTime   time.Duration
	MaxInFlight int
	AvgInFlight float64
	Visible     int
	Culled      int
	HeapMB      float64
	GCCount     uint32
}

// Profiler accumulates Samples and turns them into Stats every interval.
// It is used from the recording goroutine only.
type Profiler struct {
	interval time.Duration
	now      func() time.Time
	memory   bool
	quiet    bool

	windowStart time.Time
	frames      int
	frameTime   time.Duration
	inFlight    int
	maxInFlight int
	last        Sample

	memStats runtime.MemStats
	latest   Stats
	reports  int
}

// NewProfiler creates a Profiler whose first window starts now.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		interval: DefaultInterval,
		now:      time.Now,
		memory:   true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.windowStart = p.now()
	return p
}

// Tick records a finished frame. When the interval has elapsed the window is closed,
// its Stats are logged at Info and made available through Latest.
//
// Parameters:
//   - s: the frame's sample
//
// Returns:
//   - bool: true if a report was produced by this call
func (p *Profiler) Tick(s Sample) bool {
	p.frames++
	p.frameTime += s.DeltaTime
	p.inFlight += s.InFlight
	p.maxInFlight = max(p.maxInFlight, s.InFlight)
	p.last = s

	now := p.now()
	elapsed := now.Sub(p.windowStart)
	if elapsed < p.interval {
		return false
	}

	st := Stats{
		Frames:      p.frames,
		FPS:         float64(p.frames) / elapsed.Seconds(),
		FrameTime:   p.frameTime / time.Duration(p.frames),
		MaxInFlight: p.maxInFlight,
		AvgInFlight: float64(p.inFlight) / float64(p.frames),
		Visible:     s.Visible,
		Culled:      s.Culled,
	}
	if p.memory {
		runtime.ReadMemStats(&p.memStats)
		st.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
		st.GCCount = p.memStats.NumGC
	}
	p.latest = st
	p.reports++

	if !p.quiet {
		profilerLog.Infof("fps %.1f | frame %.2f ms | in flight avg %.2f max %d | visible %d culled %d | heap %.1f MB gc %d",
			st.FPS, float64(st.FrameTime.Microseconds())/1000, st.AvgInFlight, st.MaxInFlight,
			st.Visible, st.Culled, st.HeapMB, st.GCCount)
	}

	p.windowStart = now
	p.frames = 0
	p.frameTime = 0
	p.inFlight = 0
	p.maxInFlight = 0
	return true
}

// Latest returns the most recent report, or the zero Stats before the first one.
func (p *Profiler) Latest() Stats { return p.latest }

// Reports returns how many reports have been produced.
func (p *Profiler) Reports() int { return p.reports }

// Last returns the sample passed to the most recent Tick.
func (p *Profiler) Last() Sample { return p.last }
