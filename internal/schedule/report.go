package schedule

import (
	"sync"
	"time"

	"github.com/xlandscape/catchflow/internal/catchment"
	"github.com/xlandscape/catchflow/internal/driver"
)

// ReachReport is one worker's completion record for a single command.
type ReachReport struct {
	ReachID   catchment.ReachID
	Action    catchment.Action
	Status    catchment.ReportStatus
	WorkerID  int
	StartTime time.Time
	EndTime   time.Time
	Driver    driver.Report // diagnostic fields; zero value for init/cleanup
	Err       error
}

// ReportChannel is a many-to-one, unbounded completion channel. In serial
// mode it is not used at all: the scheduler invokes the worker inline and
// consumes the returned ReachReport directly, which is externally
// indistinguishable from draining a ReportChannel of depth one.
type ReportChannel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []ReachReport
	closed bool
}

// NewReportChannel returns an empty ReportChannel.
func NewReportChannel() *ReportChannel {
	r := &ReportChannel{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Send appends rep. Never blocks (the backing buffer grows as needed).
func (r *ReportChannel) Send(rep ReachReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.buf = append(r.buf, rep)
	r.cond.Signal()
}

// Receive blocks until a report is available or the channel is closed and
// drained, returning ok=false in the latter case.
func (r *ReportChannel) Receive() (ReachReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.buf) == 0 && !r.closed {
		r.cond.Wait()
	}
	if len(r.buf) == 0 {
		return ReachReport{}, false
	}
	rep := r.buf[0]
	r.buf = r.buf[1:]
	return rep, true
}

// Close marks the channel closed; any blocked Receive with an empty
// buffer returns ok=false once drained.
func (r *ReportChannel) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
}
