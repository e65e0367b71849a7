package usecase

import (
	"context"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRoomFree(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(time.Date(2023, 12, 28, 10, 0, 0, 0, time.UTC))
	held := f.seed(f.guest.ID, day(2024, 1, 1), day(2024, 1, 4), entity.BookingStatusConfirmed)
	f.seed(f.guest.ID, day(2024, 1, 10), day(2024, 1, 12), entity.BookingStatusCancelled)

	t.Run("degenerate ranges never reach the store", func(t *testing.T) {
		before := f.store.bookingReads

		_, err := f.avail.IsRoomFree(ctx, f.room.ID, day(2024, 1, 4), day(2024, 1, 4), nil)
		assert.ErrorIs(t, err, errDateOrder)
		_, err = f.avail.IsRoomFree(ctx, f.room.ID, day(2024, 1, 4), day(2024, 1, 1), nil)
		assert.ErrorIs(t, err, errDateOrder)

		assert.Equal(t, before, f.store.bookingReads)
	})

	cases := []struct {
		name     string
		in, out  time.Time
		exclude  *uuid.UUID
		wantFree bool
	}{
		{"inside", day(2024, 1, 2), day(2024, 1, 3), nil, false},
		{"straddles start", day(2023, 12, 30), day(2024, 1, 2), nil, false},
		{"ends at check-in", day(2023, 12, 30), day(2024, 1, 1), nil, true},
		{"starts at check-out", day(2024, 1, 4), day(2024, 1, 6), nil, true},
		{"cancelled booking ignored", day(2024, 1, 10), day(2024, 1, 12), nil, true},
		{"own booking excluded", day(2024, 1, 2), day(2024, 1, 5), &held.ID, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			free, err := f.avail.IsRoomFree(ctx, f.room.ID, tc.in, tc.out, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.wantFree, free)
		})
	}
}

func TestRefreshRoomAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("covered now", func(t *testing.T) {
		f := newBookingFixture(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
		f.seed(f.guest.ID, day(2024, 1, 1), day(2024, 1, 4), entity.BookingStatusConfirmed)

		available, err := f.avail.RefreshRoomAvailability(ctx, f.room.ID)
		require.NoError(t, err)
		assert.False(t, available)
		assert.False(t, f.store.room(f.room.ID).IsAvailable)
	})

	t.Run("only future bookings", func(t *testing.T) {
		f := newBookingFixture(time.Date(2023, 12, 28, 10, 0, 0, 0, time.UTC))
		f.seed(f.guest.ID, day(2024, 1, 1), day(2024, 1, 4), entity.BookingStatusConfirmed)
		f.store.setAvailable(f.room.ID, false)

		available, err := f.avail.RefreshRoomAvailability(ctx, f.room.ID)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		f := newBookingFixture(time.Date(2023, 12, 28, 10, 0, 0, 0, time.UTC))
		f.store.failRefresh = true

		_, err := f.avail.RefreshRoomAvailability(ctx, f.room.ID)
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC))

	ended := f.store.addRoom("102", 80)
	stillHeld := f.store.addRoom("103", 90)

	for _, b := range []entity.Booking{
		{RoomID: ended.ID, CheckIn: day(2024, 1, 10), CheckOut: day(2024, 1, 12), Status: entity.BookingStatusConfirmed},
		{RoomID: stillHeld.ID, CheckIn: day(2024, 1, 10), CheckOut: day(2024, 1, 12), Status: entity.BookingStatusConfirmed},
		{RoomID: stillHeld.ID, CheckIn: day(2024, 1, 19), CheckOut: day(2024, 1, 22), Status: entity.BookingStatusConfirmed},
	} {
		b.UserID = f.guest.ID
		f.store.addBooking(b)
	}
	f.store.setAvailable(ended.ID, false)
	f.store.setAvailable(stillHeld.ID, false)

	released, err := f.avail.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.True(t, f.store.room(ended.ID).IsAvailable)
	assert.False(t, f.store.room(stillHeld.ID).IsAvailable)

	released, err = f.avail.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}
