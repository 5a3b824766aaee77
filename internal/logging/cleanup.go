package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const DefaultRetention = 30 * 24 * time.Hour

// StartCleanup schedules a daily prune of system_logs older than retention.
// The caller stops the returned scheduler on shutdown.
func StartCleanup(db *gorm.DB, retention time.Duration) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc("@daily", func() {
		if _, err := PruneSystemLogs(db, time.Now().Add(-retention)); err != nil {
			slog.Error("log cleanup failed", "action", "log_cleanup", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule log cleanup: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

// PruneSystemLogs deletes rows written before cutoff.
func PruneSystemLogs(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
