package audit

import (
	"testing"

	"plastics-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(LogOptions{
		UserID:     3,
		UserName:   "clerk",
		EntityType: EntitySalesBill,
		EntityID:   9,
		Action:     models.AuditActionUpdate,
		Before:     map[string]string{"bill_no": "S_9"},
	})
	assert.Equal(t, `{"bill_no":"S_9"}`, entry.BeforeData)
	assert.Equal(t, "null", entry.AfterData)
	assert.Equal(t, EntitySalesBill, entry.EntityType)
}

func TestWriteLogWithoutDatabase(t *testing.T) {
	assert.ErrorIs(t, WriteLog(LogOptions{EntityType: EntityStock}), ErrNoDatabase)
}
