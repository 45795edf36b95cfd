package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sharebook_backend/internals/features/notifications/dispatcher"
	"sharebook_backend/internals/features/notifications/model"
)

// EmailLogRecorder writes every delivery attempt to email_logs.
type EmailLogRecorder struct {
	db     *gorm.DB
	dryRun bool
}

func NewEmailLogRecorder(db *gorm.DB, dryRun bool) *EmailLogRecorder {
	return &EmailLogRecorder{db: db, dryRun: dryRun}
}

var _ dispatcher.Recorder = (*EmailLogRecorder)(nil)

func (r *EmailLogRecorder) Record(ctx context.Context, msg dispatcher.Message, attempt int, err error) error {
	row := NewEmailLog(msg, attempt, err, r.dryRun)
	return r.db.WithContext(ctx).Create(&row).Error
}

// NewEmailLog builds the row for one attempt.
func NewEmailLog(msg dispatcher.Message, attempt int, err error, dryRun bool) model.EmailLogModel {
	row := model.EmailLogModel{
		EmailLogTemplate:  msg.Template,
		EmailLogRecipient: msg.To,
		EmailLogSubject:   msg.Subject,
		EmailLogStatus:    model.EmailStatusSent,
		EmailLogAttempt:   attempt,
	}
	switch {
	case err != nil:
		s := err.Error()
		row.EmailLogStatus = model.EmailStatusFailed
		row.EmailLogError = &s
	case dryRun:
		row.EmailLogStatus = model.EmailStatusDryRun
	}

	meta := datatypes.JSONMap{}
	for k, v := range msg.Meta {
		meta[k] = v
	}
	if len(msg.Cc) > 0 {
		meta["cc"] = msg.Cc
	}
	if len(meta) > 0 {
		row.EmailLogMeta = meta
	}
	return row
}

// ListRecent returns the latest log rows, newest first, optionally for one template.
func (r *EmailLogRecorder) ListRecent(ctx context.Context, template string, since time.Time, limit int) ([]model.EmailLogModel, error) {
	q := r.db.WithContext(ctx).Where("email_log_created_at >= ?", since)
	if template != "" {
		q = q.Where("email_log_template = ?", template)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []model.EmailLogModel
	err := q.Order("email_log_created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
