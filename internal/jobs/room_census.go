package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dishant0406/lazyweb-backend/internal/metrics"
	"github.com/dishant0406/lazyweb-backend/internal/models"
)

// StatsSource is anything that can report the current room census.
type StatsSource interface {
	Stats() models.RoomStats
}

// RoomCensusJob periodically logs how many rooms and members are live and
// refreshes the matching gauges.
type RoomCensusJob struct {
	source   StatsSource
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

func NewRoomCensusJob(source StatsSource, schedule string, log *zap.Logger) *RoomCensusJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomCensusJob{
		source:   source,
		schedule: schedule,
		cron:     cron.New(),
		log:      log,
	}
}

// Start schedules the census. An empty schedule disables it.
func (j *RoomCensusJob) Start() error {
	if j.schedule == "" {
		j.log.Info("room census disabled")
		return nil
	}
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule room census: %w", err)
	}
	j.cron.Start()
	j.log.Info("room census started", zap.String("schedule", j.schedule))
	return nil
}

func (j *RoomCensusJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// RunOnce takes a single census.
func (j *RoomCensusJob) RunOnce() models.RoomStats {
	stats := j.source.Stats()
	metrics.SetRoomGauges(stats.Rooms, stats.Members)
	j.log.Info("room census", zap.Int("rooms", stats.Rooms), zap.Int("members", stats.Members))
	return stats
}
