package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shim/internal/config"
	"shim/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(config.DatabaseConfig{
		Driver: DialectSQLite,
		Path:   filepath.Join(t.TempDir(), "shim.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestItem(t *testing.T, db *DB, name string) *models.Item {
	t.Helper()
	item := &models.Item{
		Name:       name,
		Condition:  "Baik",
		AcquiredAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:     models.ItemAvailable,
	}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return item
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func newBooking(requesterID, itemID int64, start, end time.Time) *models.Booking {
	return &models.Booking{
		RequesterID:   requesterID,
		RequesterName: "Peminjam",
		ItemID:        itemID,
		StartAt:       start,
		EndAt:         end,
		Reason:        "Praktikum",
	}
}

func approve(id, admin int64) models.Transition {
	return models.Transition{BookingID: id, AdminID: admin, From: models.StatusPending, To: models.StatusApproved}
}
