package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskHasArchiveRef(t *testing.T) {
	assert.True(t, Task{ArchiveFile: "crawl-data/x.warc.gz", Length: 100}.HasArchiveRef())
	assert.False(t, Task{}.HasArchiveRef())
	assert.False(t, Task{ArchiveFile: "x.warc.gz", Length: 0}.HasArchiveRef())
}

func TestScalabilityChangeSpeedupEfficiency(t *testing.T) {
	baseline := 10.0 // rate/worker_count at worker_count=2
	c := ScalabilityChange{WorkerCount: 4, Rate: 35}
	assert.InDelta(t, 3.5, c.Speedup(baseline), 0.001)
	assert.InDelta(t, 87.5, c.Efficiency(baseline), 0.001)
}

func TestScalabilityChangeZeroBaseline(t *testing.T) {
	c := ScalabilityChange{WorkerCount: 4, Rate: 35}
	assert.Equal(t, 4.0, c.Speedup(0))
}
