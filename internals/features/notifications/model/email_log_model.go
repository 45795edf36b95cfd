package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
	EmailStatusDryRun = "dry_run"
)

// EmailLogModel records one delivery attempt.
type EmailLogModel struct {
	EmailLogID        uuid.UUID         `gorm:"column:email_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"email_log_id"`
	EmailLogTemplate  string            `gorm:"column:email_log_template;size:60;not null;index" json:"email_log_template"`
	EmailLogRecipient string            `gorm:"column:email_log_recipient;size:255;not null" json:"email_log_recipient"`
	EmailLogSubject   string            `gorm:"column:email_log_subject;size:255" json:"email_log_subject"`
	EmailLogStatus    string            `gorm:"column:email_log_status;type:varchar(20);not null" json:"email_log_status"`
	EmailLogAttempt   int               `gorm:"column:email_log_attempt;not null;default:1" json:"email_log_attempt"`
	EmailLogError     *string           `gorm:"column:email_log_error;type:text" json:"email_log_error,omitempty"`
	EmailLogMeta      datatypes.JSONMap `gorm:"column:email_log_meta;type:jsonb" json:"email_log_meta,omitempty"`
	EmailLogCreatedAt time.Time         `gorm:"column:email_log_created_at;autoCreateTime;index" json:"email_log_created_at"`
}

func (EmailLogModel) TableName() string {
	return "email_logs"
}
