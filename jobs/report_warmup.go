package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bengkel-erp/bengkel-erp/internal/accounting/reports"
)

// DailyReportWarmupJob pre-builds the composite daily report so the
// cache is warm before the morning traffic.
type DailyReportWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewDailyReportWarmupJob wires dependencies for the warmup handler.
func NewDailyReportWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *DailyReportWarmupJob {
	return &DailyReportWarmupJob{
		Reports: reportsSvc,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes daily warmup tasks. Zero payload date warms
// yesterday.
func (j *DailyReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("daily report warmup: handler not configured")
	}
	var payload DailyReportWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	day := payload.Date
	if day.IsZero() {
		day = j.clock().AddDate(0, 0, -1)
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	start := j.clock()
	report, err := j.Reports.Daily(ctx, day)
	if err != nil {
		j.logger().Error("daily report warmup", slog.Any("error", err))
		return err
	}
	j.logger().Info("daily report warmed",
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("workorders", report.Workorders.Count),
		slog.Duration("took", j.clock().Sub(start)))
	return nil
}

func (j *DailyReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
