package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

// startPostgres boots a throwaway database with the schema applied.
func startPostgres(t *testing.T) database.PgxIface {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("hotel"),
		postgres.WithUsername("hotel"),
		postgres.WithPassword("secret"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func seedUserAndRoom(t *testing.T, repo *Repository) (*entity.User, *entity.Room) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	user := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         "Guest",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Role:         entity.RoleUser,
	}
	require.NoError(t, repo.User.Create(ctx, user))

	room := &entity.Room{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Type:        "deluxe",
		Number:      uuid.NewString()[:8],
		Price:       100,
		Capacity:    2,
		Amenities:   []string{"wifi"},
		IsAvailable: true,
	}
	require.NoError(t, repo.Room.Create(ctx, room))

	return user, room
}

func newBooking(userID, roomID uuid.UUID, checkIn, checkOut time.Time) *entity.Booking {
	now := time.Now()
	return &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        userID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		TotalPrice:    200,
		Status:        entity.BookingStatusConfirmed,
		PaymentStatus: entity.PaymentStatusPending,
		FullName:      "Guest",
		PhoneNumber:   "+84901234567",
		Email:         "guest@example.com",
	}
}

func TestBookingRepositoryIntegration(t *testing.T) {
	db := startPostgres(t)
	repo := NewRepository(db, nil, zap.NewNop())
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2030, 1, d, 0, 0, 0, 0, time.UTC) }

	t.Run("CreateMarksRoomUnavailable", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)

		require.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(10), day(12))))

		got, err := repo.Room.FindByID(ctx, room.ID)
		require.NoError(t, err)
		assert.False(t, got.IsAvailable)
	})

	t.Run("OverlapRejected", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		require.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(10), day(12))))

		err := repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(11), day(13)))
		assert.ErrorIs(t, err, ErrBookingOverlap)

		// back-to-back stays share a boundary without overlapping
		assert.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(12), day(14))))
	})

	t.Run("CancelledBookingFreesDates", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		first := newBooking(user.ID, room.ID, day(10), day(12))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, first))
		require.NoError(t, repo.Booking.UpdateStatus(ctx, first.ID, entity.BookingStatusCancelled))

		assert.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(10), day(12))))
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		user, _ := seedUserAndRoom(t, repo)
		err := repo.Booking.CreateExclusive(ctx, newBooking(user.ID, uuid.New(), day(10), day(12)))
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("ConcurrentDoubleBooking", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			overlaps  int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(20), day(23)))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, ErrBookingOverlap):
					overlaps++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, attempts-1, overlaps)
	})

	t.Run("SyncNeverHidesConcurrentBooking", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			user, room := seedUserAndRoom(t, repo)

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(10), day(12))))
			}()
			go func() {
				defer wg.Done()
				_, err := repo.Booking.SyncRoomAvailability(ctx, room.ID, day(11))
				assert.NoError(t, err)
			}()
			wg.Wait()

			got, err := repo.Room.FindByID(ctx, room.ID)
			require.NoError(t, err)
			assert.False(t, got.IsAvailable, "room covered by a committed booking must stay unavailable")
		}
	})

	t.Run("UpdateExcludesSelf", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		booking := newBooking(user.ID, room.ID, day(10), day(12))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, booking))

		booking.CheckOut = day(13)
		booking.UpdatedAt = time.Now()
		require.NoError(t, repo.Booking.UpdateExclusive(ctx, booking, true))

		other := newBooking(user.ID, room.ID, day(14), day(16))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, other))

		booking.CheckOut = day(15)
		assert.ErrorIs(t, repo.Booking.UpdateExclusive(ctx, booking, true), ErrBookingOverlap)
	})

	t.Run("PaidIsSticky", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		booking := newBooking(user.ID, room.ID, day(10), day(12))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, booking))

		zpID := "240101000001"
		changed, err := repo.Booking.ApplyPaymentUpdate(ctx, booking.ID, entity.PaymentUpdate{
			Status:          entity.PaymentStatusPaid,
			ZpTransactionID: &zpID,
		})
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.Booking.ApplyPaymentUpdate(ctx, booking.ID, entity.PaymentUpdate{
			Status: entity.PaymentStatusProcessing,
		})
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := repo.Booking.FindByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentStatusPaid, got.PaymentStatus)
		require.NotNil(t, got.ZpTransactionID)
		assert.Equal(t, zpID, *got.ZpTransactionID)
	})

	t.Run("AwaitingPaymentOrdersByLastCheck", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		_, other := seedUserAndRoom(t, repo)
		checked := newBooking(user.ID, room.ID, day(20), day(22))
		unchecked := newBooking(user.ID, other.ID, day(20), day(22))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, checked))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, unchecked))
		require.NoError(t, repo.Booking.SetAppTransID(ctx, checked.ID, "300101_"+checked.ID.String()[:8]))
		require.NoError(t, repo.Booking.SetAppTransID(ctx, unchecked.ID, "300101_"+unchecked.ID.String()[:8]))

		stamp := time.Now().Add(30 * time.Minute)
		require.NoError(t, repo.Booking.MarkPaymentChecked(ctx, []uuid.UUID{checked.ID}, stamp))

		pick := func(before time.Time) []uuid.UUID {
			bookings, err := repo.Booking.FindAwaitingPayment(ctx, before, 1000)
			require.NoError(t, err)
			var ids []uuid.UUID
			for _, b := range bookings {
				if b.ID == checked.ID || b.ID == unchecked.ID {
					ids = append(ids, b.ID)
				}
			}
			return ids
		}

		assert.Equal(t, []uuid.UUID{unchecked.ID, checked.ID}, pick(time.Now().Add(time.Hour)))
		assert.Equal(t, []uuid.UUID{unchecked.ID}, pick(time.Now().Add(10*time.Minute)))

		got, err := repo.Booking.FindByID(ctx, checked.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PaymentCheckedAt)
		assert.WithinDuration(t, stamp, *got.PaymentCheckedAt, time.Millisecond)
	})

	t.Run("DetailJoinsUserAndRoom", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		booking := newBooking(user.ID, room.ID, day(10), day(12))
		require.NoError(t, repo.Booking.CreateExclusive(ctx, booking))

		detail, err := repo.Booking.FindDetailByID(ctx, booking.ID)
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Equal(t, user.Name, detail.UserName)
		assert.Equal(t, room.Number, detail.Room.Number)
		assert.Equal(t, []string{"wifi"}, detail.Room.Amenities)
	})

	t.Run("AvailabilityQueries", func(t *testing.T) {
		user, room := seedUserAndRoom(t, repo)
		require.NoError(t, repo.Booking.CreateExclusive(ctx, newBooking(user.ID, room.ID, day(10), day(12))))

		ids, err := repo.Booking.FindRoomIDsWithEndedBookings(ctx, day(13))
		require.NoError(t, err)
		assert.Contains(t, ids, room.ID)

		available, err := repo.Booking.SyncRoomAvailability(ctx, room.ID, day(12))
		require.NoError(t, err)
		assert.False(t, available)

		available, err = repo.Booking.SyncRoomAvailability(ctx, room.ID, day(13))
		require.NoError(t, err)
		assert.True(t, available)

		got, err := repo.Room.FindByID(ctx, room.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAvailable)

		booked, err := repo.Booking.FindBookedRoomIDs(ctx, day(11), day(15))
		require.NoError(t, err)
		assert.Contains(t, booked, room.ID)
	})
}
