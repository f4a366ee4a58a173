// Package jobs holds the background workers: report cache warmup, low
// stock scanning, idempotency-key cleanup, and the nightly journal
// integrity check.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDailyReportWarmup pre-builds the daily report so the first
	// morning request hits a warm cache.
	TaskDailyReportWarmup = "reports:daily_warmup"
	// TaskLowStockScan flags products under their minimum stock.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskIdempotencyCleanup prunes processed idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
	// TaskJournalIntegrity verifies every journal entry still balances.
	TaskJournalIntegrity = "accounting:journal_integrity"
)

// DailyReportWarmupPayload names the day to warm; zero means yesterday.
type DailyReportWarmupPayload struct {
	Date time.Time `json:"date"`
}

// NewDailyReportWarmupTask constructs the warmup task.
func NewDailyReportWarmupTask(date time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DailyReportWarmupPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyReportWarmup, body, asynq.Queue(QueueDefault)), nil
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskLowStockScan, nil, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload carries the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// NewJournalIntegrityTask constructs the integrity check task.
func NewJournalIntegrityTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskJournalIntegrity, nil, asynq.Queue(QueueDefault)), nil
}
