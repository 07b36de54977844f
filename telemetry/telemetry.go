// Package telemetry serves go-echarts/statsview's Go-runtime dashboard for
// the CLI's --stats flag and logs the simulated cycle rate (cycles per
// second) to logx once a second; the dashboard has no chart of simulated
// cycles. The sampler runs on its own goroutine, reads MCU.CPU.Cycle and
// MCU.State without synchronising with the CPU thread, and writes no
// simulator state.
package telemetry

import (
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/gosimavr/gosimavr/core/mcu"
	"github.com/gosimavr/gosimavr/logx"
)

// Dashboard serves statsview's built-in Go-runtime charts (goroutines, heap,
// GC pause) at http://<addr>/debug/statsview and samples one MCU's cycle
// counter once a second, logging the rate; the rate is not charted.
type Dashboard struct {
	m      *mcu.MCU
	view   *statsview.Viewer
	stop   chan struct{}
	period time.Duration
}

// New creates (without starting) a dashboard bound to m, serving on addr
// (e.g. "localhost:18066").
func New(m *mcu.MCU, addr string) *Dashboard {
	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithLinkAddr(addr))
	return &Dashboard{
		m:      m,
		view:   statsview.New(),
		stop:   make(chan struct{}),
		period: time.Second,
	}
}

// Start launches the HTTP dashboard and the cycle-rate sampling goroutine.
func (d *Dashboard) Start() {
	go func() {
		if err := d.view.Start(); err != nil {
			logx.Log("telemetry", "dashboard stopped: %v", err)
		}
	}()
	go d.sample()
}

// Stop shuts the sampling goroutine down; the statsview HTTP server has no
// graceful shutdown hook in the library itself, so the process exiting is
// what actually reclaims it.
func (d *Dashboard) Stop() {
	close(d.stop)
}

func (d *Dashboard) sample() {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			last = d.sampleOnce(last)
		}
	}
}

// sampleOnce logs one cycle-rate reading given the previous reading's cycle
// count and returns the current one, split out from sample's ticker loop so
// a single tick's bookkeeping can be exercised without waiting on a timer.
func (d *Dashboard) sampleOnce(last uint64) (cur uint64) {
	cur = d.m.CPU.Cycle
	rate := cur - last
	logx.Log("telemetry", "%s: %d cycles/sec, state=%s", d.m.Name, rate, d.m.State)
	return cur
}
