package ui

import (
	"sync"
	"time"
)

// speedSampleInterval is the minimum gap between speed samples.
const speedSampleInterval = 500 * time.Millisecond

// etaSmoothingFactor weights a new ETA against the previous one.
const etaSmoothingFactor = 0.3

// ProgressTracker accumulates progress events into display stats.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.Mutex
	stage      Stage
	current    int
	total      int
	message    string
	stageStart time.Time
	lastETA    time.Duration

	lastCurrent  int
	lastSample   time.Time
	currentSpeed float64
	avgSpeed     float64
	peakSpeed    float64
	samples      int

	now func() time.Time
}

// SpeedStats are files-per-second figures for the processing stage.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// ProgressStats is a snapshot of the tracker.
type ProgressStats struct {
	Stage    Stage
	Current  int
	Total    int
	Progress float64 // 0.0-1.0
	ETA      time.Duration
	Message  string
	Speed    SpeedStats
}

// NewProgressTracker creates a tracker in the scanning stage.
func NewProgressTracker() *ProgressTracker {
	return newProgressTrackerAt(time.Now)
}

func newProgressTrackerAt(now func() time.Time) *ProgressTracker {
	t := now()
	return &ProgressTracker{stage: StageScanning, stageStart: t, lastSample: t, now: now}
}

// Apply records a progress event. A stage change resets counters.
func (p *ProgressTracker) Apply(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if event.Stage != p.stage {
		p.stage = event.Stage
		p.stageStart = now
		p.lastETA = 0
		p.lastCurrent = 0
		p.lastSample = now
		p.currentSpeed, p.avgSpeed, p.peakSpeed, p.samples = 0, 0, 0, 0
	}
	p.current = event.Current
	p.total = event.Total
	if event.Message != "" {
		p.message = event.Message
	}

	elapsed := now.Sub(p.lastSample)
	if elapsed < speedSampleInterval {
		return
	}
	if delta := event.Current - p.lastCurrent; delta > 0 {
		speed := float64(delta) / elapsed.Seconds()
		p.currentSpeed = speed
		p.samples++
		if p.samples == 1 {
			p.avgSpeed = speed
		} else {
			p.avgSpeed = 0.2*speed + 0.8*p.avgSpeed
		}
		p.peakSpeed = max(p.peakSpeed, speed)
	}
	p.lastCurrent = event.Current
	p.lastSample = now
}

// Stats returns a snapshot. It updates the smoothed ETA.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	progress := 0.0
	if p.total > 0 {
		progress = min(1.0, float64(p.current)/float64(p.total))
	}
	return ProgressStats{
		Stage:    p.stage,
		Current:  p.current,
		Total:    p.total,
		Progress: progress,
		ETA:      p.calculateETA(),
		Message:  p.message,
		Speed:    SpeedStats{Current: p.currentSpeed, Avg: p.avgSpeed, Peak: p.peakSpeed},
	}
}

// calculateETA must be called with the lock held.
func (p *ProgressTracker) calculateETA() time.Duration {
	if p.current == 0 || p.total == 0 || p.current >= p.total {
		return 0
	}

	elapsed := p.now().Sub(p.stageStart)
	progress := float64(p.current) / float64(p.total)
	raw := time.Duration(float64(elapsed)/progress) - elapsed
	if raw < 0 {
		return 0
	}

	if p.lastETA == 0 {
		p.lastETA = raw
		return raw
	}
	p.lastETA = time.Duration(etaSmoothingFactor*float64(raw) + (1-etaSmoothingFactor)*float64(p.lastETA))
	return p.lastETA
}
