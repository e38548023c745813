package app

import (
	"sort"
	"time"
)

// perfSampleCount is the ring size named in spec §4.6.
const perfSampleCount = 128

// emaAlpha and its complement weight the FPS exponential moving average
// (spec §4.6: "weights 0.8/0.2").
const emaAlpha = 0.2

// perfRing accumulates frame-to-frame deltas, in tenths of a millisecond,
// for the optional perf overlay (spec §3/§4.6).
type perfRing struct {
	samples  [perfSampleCount]int
	count    int
	next     int
	lastAt   time.Time
	emaFPS   float64
	haveEMA  bool
}

// record appends the delta since the previous call (a no-op on the very
// first call, which just establishes the baseline).
func (p *perfRing) record(now time.Time) {
	if p.lastAt.IsZero() {
		p.lastAt = now
		return
	}
	deltaMs := now.Sub(p.lastAt).Seconds() * 1000
	p.lastAt = now

	tenths := int(deltaMs * 10)
	p.samples[p.next] = tenths
	p.next = (p.next + 1) % perfSampleCount
	if p.count < perfSampleCount {
		p.count++
	}

	if deltaMs > 0 {
		fps := 1000 / deltaMs
		if !p.haveEMA {
			p.emaFPS = fps
			p.haveEMA = true
		} else {
			p.emaFPS = emaAlpha*fps + (1-emaAlpha)*p.emaFPS
		}
	}
}

// perfStats is the summary the perf overlay renders (spec §4.6).
type perfStats struct {
	LastMs float64
	AvgMs  float64
	P95Ms  float64
	MaxMs  float64
	FPS    float64
	EMAFPS float64
}

// stats computes the overlay summary from the current ring contents.
func (p *perfRing) stats() perfStats {
	if p.count == 0 {
		return perfStats{}
	}
	sorted := make([]int, p.count)
	sum := 0
	maxV := 0
	for i := 0; i < p.count; i++ {
		v := p.samples[i]
		sorted[i] = v
		sum += v
		if v > maxV {
			maxV = v
		}
	}
	sort.Ints(sorted)

	last := p.samples[(p.next-1+perfSampleCount)%perfSampleCount]
	avg := float64(sum) / float64(p.count) / 10
	p95Idx := int(float64(p.count) * 0.95)
	if p95Idx >= p.count {
		p95Idx = p.count - 1
	}
	p95 := float64(sorted[p95Idx]) / 10

	var fps float64
	if avg > 0 {
		fps = 1000 / avg
	}

	return perfStats{
		LastMs: float64(last) / 10,
		AvgMs:  avg,
		P95Ms:  p95,
		MaxMs:  float64(maxV) / 10,
		FPS:    fps,
		EMAFPS: p.emaFPS,
	}
}
