package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"trekconnect/contract"
)

var _ contract.Worker = (*HealthWorker)(nil)

// HealthWorker samples the gateway's own process metrics on a fixed
// interval. High usage is promoted to a warning so it stands out in the
// logs without a metrics backend.
type HealthWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	cpuThreshold   float64
	ramThreshold   float32
}

func NewHealthWorker(log *slog.Logger, metricInterval time.Duration,
	cpuThreshold float64, ramThreshold float32) *HealthWorker {
	return &HealthWorker{
		log:            log,
		metricInterval: metricInterval,
		cpuThreshold:   cpuThreshold,
		ramThreshold:   ramThreshold,
	}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := p.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}

			if cpu > w.cpuThreshold || ram > w.ramThreshold {
				w.log.Warn("Gateway under pressure", "cpu", cpu, "ram", ram)
				continue
			}
			w.log.Debug("Gateway health", "cpu", cpu, "ram", ram)
		}
	}
}
