package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type status string

func (s status) String() string { return string(s) }

func TestErrorKinds(t *testing.T) {
	err := Conflict("booking is not pending").WithBooking(7).WithStatus(status("Approved"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int64(7), err.BookingID)
	assert.Equal(t, "Approved", err.Status)
	assert.Equal(t, KindConflict, KindOf(err))

	wrapped := fmt.Errorf("approve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("insert booking", cause)

	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestWithCopies(t *testing.T) {
	base := NotFound("item %d not found", 5)
	withItem := base.WithItem(5)
	assert.Equal(t, int64(0), base.ItemID)
	assert.Equal(t, int64(5), withItem.ItemID)
	assert.Equal(t, "not_found: item 5 not found", withItem.Error())
}
