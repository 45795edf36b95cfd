package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebook_backend/internals/features/notifications/dispatcher"
	"sharebook_backend/internals/features/notifications/model"
)

func TestNewEmailLog(t *testing.T) {
	msg := dispatcher.Message{
		To:       "donor@example.com",
		Cc:       []string{"fac@example.com"},
		Subject:  "s",
		Template: "winner_chosen_donor",
		Meta:     map[string]any{"book_id": "b1"},
	}

	t.Run("sent", func(t *testing.T) {
		row := NewEmailLog(msg, 1, nil, false)
		assert.Equal(t, model.EmailStatusSent, row.EmailLogStatus)
		assert.Nil(t, row.EmailLogError)
		assert.Equal(t, "b1", row.EmailLogMeta["book_id"])
		assert.Equal(t, []string{"fac@example.com"}, row.EmailLogMeta["cc"])
	})

	t.Run("failed", func(t *testing.T) {
		row := NewEmailLog(msg, 2, errors.New("550 mailbox unavailable"), false)
		assert.Equal(t, model.EmailStatusFailed, row.EmailLogStatus)
		require.NotNil(t, row.EmailLogError)
		assert.Equal(t, "550 mailbox unavailable", *row.EmailLogError)
		assert.Equal(t, 2, row.EmailLogAttempt)
	})

	t.Run("dry run", func(t *testing.T) {
		row := NewEmailLog(dispatcher.Message{To: "x@example.com"}, 1, nil, true)
		assert.Equal(t, model.EmailStatusDryRun, row.EmailLogStatus)
		assert.Nil(t, row.EmailLogMeta)
	})

	assert.NotContains(t, msg.Meta, "cc")
}
