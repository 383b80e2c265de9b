package jobs

import (
	"strconv"

	"go.uber.org/atomic"
)

// JobCounter issues job ids as lowercase hex.
type JobCounter struct {
	counter *atomic.Uint64
}

func NewJobCounter() *JobCounter {
	return &JobCounter{
		counter: atomic.NewUint64(0),
	}
}

func (jc *JobCounter) Next() string {
	return strconv.FormatUint(jc.counter.Inc(), 16)
}

func (jc *JobCounter) Cur() string {
	return strconv.FormatUint(jc.counter.Load(), 16)
}
