package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shim/internal/domain"
	"shim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Limited Item")

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			// every window overlaps day 12
			start := day(10).Add(time.Duration(id) * time.Hour)
			results <- db.CreateBookingWithLock(ctx, newBooking(int64(id+1), item.ID, start, day(12).Add(time.Duration(id)*time.Hour)))
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, domain.ErrConflict):
			conflictCount++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successCount, "only one overlapping booking may be created")
	assert.Equal(t, numGoroutines-1, conflictCount)

	bookings, err := db.ListOverlappingBookings(ctx, item.ID, day(1), day(20))
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestConcurrentApprove(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Kamera")

	b := newBooking(1, item.ID, day(10), day(12))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	const numAdmins = 8
	var wg sync.WaitGroup
	wg.Add(numAdmins)
	results := make(chan error, numAdmins)

	for i := 0; i < numAdmins; i++ {
		go func(admin int64) {
			defer wg.Done()
			_, err := db.ApplyTransition(ctx, approve(b.ID, admin))
			results <- err
		}(int64(100 + i))
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, successCount, "only one admin may approve")

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestConcurrentNonOverlappingBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Mikrofon")

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := day(1 + 2*i)
			errs <- db.CreateBookingWithLock(ctx, newBooking(int64(i+1), item.ID, start, start.Add(time.Hour)))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	all, err := db.GetAllBookings(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, n)
}
