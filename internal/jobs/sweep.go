package jobs

import (
	"context"
	"time"

	"photoreport-bot/internal/buffer"
)

const sweepName = "buffer-sweep"

// BufferSweep periodically evicts stale photos from the buffer so
// unsubmitted bursts never pile up. Runs decoupled from photo ingestion.
type BufferSweep struct {
	buf    *buffer.Buffer
	period time.Duration
	maxAge time.Duration
}

// NewBufferSweep creates the eviction job with the buffer defaults.
func NewBufferSweep(buf *buffer.Buffer) *BufferSweep {
	return &BufferSweep{
		buf:    buf,
		period: buffer.DefaultSweepPeriod,
		maxAge: buffer.DefaultMaxAge,
	}
}

func (j *BufferSweep) Name() string {
	return sweepName
}

func (j *BufferSweep) NextRun(now time.Time) time.Time {
	return now.Add(j.period)
}

func (j *BufferSweep) Run(_ context.Context) error {
	j.buf.EvictStale(time.Now(), j.maxAge)
	return nil
}
