package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/gateway/zalopay"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/mq"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	*bookingFixture
	gateway *fakeGateway
	payment *paymentService
	booking entity.Booking
}

func newPaymentFixture(now time.Time) *paymentFixture {
	bf := newBookingFixture(now)
	gw := newFakeGateway()

	b := bf.seed(bf.guest.ID, day(2024, 1, 10), day(2024, 1, 13), entity.BookingStatusConfirmed)

	return &paymentFixture{
		bookingFixture: bf,
		gateway:        gw,
		booking:        b,
		payment: &paymentService{
			repo:    bf.store.repository(),
			gateway: gw,
			events:  bf.events,
			now:     func() time.Time { return now },
			log:     zap.NewNop(),
		},
	}
}

// callback builds a signed gateway callback for orderID.
func (f *paymentFixture) callback(orderID string, zpTransID int64) *request.CallbackRequest {
	embed, _ := json.Marshal(zalopay.EmbedData{OrderID: orderID})
	data, _ := json.Marshal(map[string]any{
		"app_id":       2553,
		"app_trans_id": "240102_0badf00d",
		"amount":       300,
		"embed_data":   string(embed),
		"zp_trans_id":  zpTransID,
	})
	return &request.CallbackRequest{
		Data: string(data),
		Mac:  zalopay.Sign(f.gateway.key2, string(data)),
		Type: 1,
	}
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("valid payment marks booking paid", func(t *testing.T) {
		f := newPaymentFixture(now)

		ack, err := f.payment.HandleCallback(ctx, f.callback(f.booking.ID.String(), 240102000001))
		require.NoError(t, err)
		assert.Equal(t, 1, ack.ReturnCode)
		assert.Equal(t, "success", ack.ReturnMessage)

		b := f.store.booking(f.booking.ID)
		assert.Equal(t, entity.PaymentStatusPaid, b.PaymentStatus)
		require.NotNil(t, b.ZpTransactionID)
		assert.Equal(t, "240102000001", *b.ZpTransactionID)
		require.NotNil(t, b.PaidAmount)
		assert.EqualValues(t, 300, *b.PaidAmount)
		assert.Contains(t, f.events.published(), mq.KeyPaymentPaid)
	})

	t.Run("bad mac never mutates", func(t *testing.T) {
		f := newPaymentFixture(now)
		cb := f.callback(f.booking.ID.String(), 1)
		cb.Mac = zalopay.Sign("wrong-key", cb.Data)

		for _, typ := range []int{1, 2} {
			cb.Type = typ
			ack, err := f.payment.HandleCallback(ctx, cb)
			assert.ErrorIs(t, err, errCallbackMacMismatch)
			assert.Equal(t, -1, ack.ReturnCode)
			assert.Equal(t, "mac not equal", ack.ReturnMessage)
		}
		assert.Equal(t, entity.PaymentStatusPending, f.store.booking(f.booking.ID).PaymentStatus)
		assert.Empty(t, f.store.failures)
	})

	t.Run("missing data is rejected", func(t *testing.T) {
		f := newPaymentFixture(now)
		ack, err := f.payment.HandleCallback(ctx, &request.CallbackRequest{Mac: "abc", Type: 1})
		assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
		assert.Equal(t, -1, ack.ReturnCode)
	})

	t.Run("non payment type is acknowledged only", func(t *testing.T) {
		f := newPaymentFixture(now)
		cb := f.callback(f.booking.ID.String(), 1)
		cb.Type = 2

		ack, err := f.payment.HandleCallback(ctx, cb)
		require.NoError(t, err)
		assert.Equal(t, 1, ack.ReturnCode)
		assert.Equal(t, entity.PaymentStatusPending, f.store.booking(f.booking.ID).PaymentStatus)
	})

	t.Run("internal failures are acknowledged and dead-lettered", func(t *testing.T) {
		cases := []struct {
			orderID string
			reason  string
		}{
			{"", reasonMissingOrderID},
			{"507f1f77bcf86cd799439011", reasonInvalidOrderID},
			{"{" + uuid.NewString() + "}", reasonInvalidOrderID},
			{uuid.NewString(), reasonBookingNotFound},
		}
		for i, tc := range cases {
			f := newPaymentFixture(now)

			ack, err := f.payment.HandleCallback(ctx, f.callback(tc.orderID, int64(100+i)))
			require.NoError(t, err)
			assert.Equal(t, 1, ack.ReturnCode)

			require.Len(t, f.store.failures, 1)
			assert.Equal(t, tc.reason, f.store.failures[0].Reason)
			assert.Equal(t, entity.PaymentStatusPending, f.store.booking(f.booking.ID).PaymentStatus)
		}
	})

	t.Run("malformed payloads are acknowledged", func(t *testing.T) {
		f := newPaymentFixture(now)

		data := `{"zp_trans_id": 5, "embed_data": "not json"}`
		ack, err := f.payment.HandleCallback(ctx, &request.CallbackRequest{
			Data: data, Mac: zalopay.Sign(f.gateway.key2, data), Type: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, ack.ReturnCode)

		data = `not json at all`
		ack, err = f.payment.HandleCallback(ctx, &request.CallbackRequest{
			Data: data, Mac: zalopay.Sign(f.gateway.key2, data), Type: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, ack.ReturnCode)

		require.Len(t, f.store.failures, 2)
		assert.Equal(t, reasonInvalidEmbedData, f.store.failures[0].Reason)
		assert.Equal(t, reasonInvalidData, f.store.failures[1].Reason)
	})

	t.Run("redelivery is not reprocessed", func(t *testing.T) {
		f := newPaymentFixture(now)
		cb := f.callback(f.booking.ID.String(), 77)

		_, err := f.payment.HandleCallback(ctx, cb)
		require.NoError(t, err)
		_, err = f.payment.HandleCallback(ctx, cb)
		require.NoError(t, err)

		paid := 0
		for _, key := range f.events.published() {
			if key == mq.KeyPaymentPaid {
				paid++
			}
		}
		assert.Equal(t, 1, paid)
	})
}

func TestHandleStatusQuery(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	status := func(f *paymentFixture, code int, processing bool) *zalopay.OrderStatus {
		embed, _ := json.Marshal(zalopay.EmbedData{OrderID: f.booking.ID.String()})
		return &zalopay.OrderStatus{
			ReturnCode:     code,
			ReturnMessage:  "gateway says",
			IsProcessing:   processing,
			Amount:         300,
			DiscountAmount: 20,
			ZpTransID:      240102000009,
			EmbedData:      string(embed),
		}
	}

	t.Run("maps gateway codes", func(t *testing.T) {
		cases := []struct {
			code       int
			processing bool
			want       entity.PaymentStatus
		}{
			{zalopay.ReturnCodeSuccess, false, entity.PaymentStatusPaid},
			{zalopay.ReturnCodeProcessing, false, entity.PaymentStatusProcessing},
			{-1, true, entity.PaymentStatusProcessing},
			{zalopay.ReturnCodeFailed, false, entity.PaymentStatusFailed},
		}
		for _, tc := range cases {
			f := newPaymentFixture(now)
			f.gateway.statuses["240102_aa"] = status(f, tc.code, tc.processing)

			resp, err := f.payment.HandleStatusQuery(ctx, "240102_aa")
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.PaymentStatus)
			assert.Equal(t, f.booking.ID.String(), resp.OrderID)
			assert.Equal(t, tc.want, f.store.booking(f.booking.ID).PaymentStatus)
		}
	})

	t.Run("paid stores amounts and failed stores the message", func(t *testing.T) {
		f := newPaymentFixture(now)
		f.gateway.statuses["paid"] = status(f, zalopay.ReturnCodeSuccess, false)
		_, err := f.payment.HandleStatusQuery(ctx, "paid")
		require.NoError(t, err)

		b := f.store.booking(f.booking.ID)
		require.NotNil(t, b.PaidAmount)
		assert.EqualValues(t, 300, *b.PaidAmount)
		require.NotNil(t, b.DiscountAmount)
		assert.EqualValues(t, 20, *b.DiscountAmount)

		g := newPaymentFixture(now)
		g.gateway.statuses["failed"] = status(g, zalopay.ReturnCodeFailed, false)
		_, err = g.payment.HandleStatusQuery(ctx, "failed")
		require.NoError(t, err)

		b = g.store.booking(g.booking.ID)
		require.NotNil(t, b.PaymentError)
		assert.Equal(t, "gateway says", *b.PaymentError)
		assert.Contains(t, g.events.published(), mq.KeyPaymentFailed)
	})

	t.Run("paid is sticky", func(t *testing.T) {
		f := newPaymentFixture(now)
		f.gateway.statuses["paid"] = status(f, zalopay.ReturnCodeSuccess, false)
		f.gateway.statuses["late"] = status(f, zalopay.ReturnCodeProcessing, true)

		_, err := f.payment.HandleStatusQuery(ctx, "paid")
		require.NoError(t, err)
		resp, err := f.payment.HandleStatusQuery(ctx, "late")
		require.NoError(t, err)

		assert.Empty(t, resp.PaymentStatus)
		assert.Equal(t, entity.PaymentStatusPaid, f.store.booking(f.booking.ID).PaymentStatus)
	})

	t.Run("other codes leave booking untouched", func(t *testing.T) {
		f := newPaymentFixture(now)
		f.gateway.statuses["odd"] = status(f, -54, false)

		resp, err := f.payment.HandleStatusQuery(ctx, "odd")
		require.NoError(t, err)
		assert.Equal(t, -54, resp.ReturnCode)
		assert.Equal(t, entity.PaymentStatusPending, f.store.booking(f.booking.ID).PaymentStatus)
	})

	t.Run("unreadable embed data still returns status", func(t *testing.T) {
		f := newPaymentFixture(now)
		s := status(f, zalopay.ReturnCodeSuccess, false)
		s.EmbedData = "{broken"
		f.gateway.statuses["x"] = s

		resp, err := f.payment.HandleStatusQuery(ctx, "x")
		require.NoError(t, err)
		assert.Empty(t, resp.OrderID)
		assert.Equal(t, zalopay.ReturnCodeSuccess, resp.ReturnCode)
		assert.Equal(t, entity.PaymentStatusPending, f.store.booking(f.booking.ID).PaymentStatus)
	})

	t.Run("gateway failure surfaces as upstream", func(t *testing.T) {
		f := newPaymentFixture(now)
		f.gateway.queryErr = apperror.Upstream("Order status query failed", "timeout", errors.New("timeout"))

		_, err := f.payment.HandleStatusQuery(ctx, "x")
		assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	})
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("creates order and stamps booking", func(t *testing.T) {
		f := newPaymentFixture(now)

		resp, err := f.payment.CreatePayment(ctx, f.guest.ID, &request.CreatePaymentRequest{
			Amount: 300, OrderID: f.booking.ID.String(), Description: "Room 101",
		})
		require.NoError(t, err)
		assert.Equal(t, "240102_0badf00d", resp.AppTransID)
		assert.NotEmpty(t, resp.OrderURL)

		b := f.store.booking(f.booking.ID)
		require.NotNil(t, b.AppTransID)
		assert.Equal(t, "240102_0badf00d", *b.AppTransID)
		require.Len(t, f.gateway.created, 1)
		assert.Equal(t, f.booking.ID.String(), f.gateway.created[0].OrderID)
	})

	t.Run("rejections", func(t *testing.T) {
		f := newPaymentFixture(now)
		paid := f.seed(f.guest.ID, day(2024, 2, 1), day(2024, 2, 2), entity.BookingStatusConfirmed)
		_, err := f.store.repository().Booking.ApplyPaymentUpdate(ctx, paid.ID, entity.PaymentUpdate{Status: entity.PaymentStatusPaid})
		require.NoError(t, err)

		cases := []struct {
			name   string
			userID uuid.UUID
			req    request.CreatePaymentRequest
			kind   apperror.Kind
		}{
			{"missing amount", f.guest.ID, request.CreatePaymentRequest{OrderID: f.booking.ID.String(), Description: "d"}, apperror.KindInvalidInput},
			{"missing description", f.guest.ID, request.CreatePaymentRequest{Amount: 1, OrderID: f.booking.ID.String()}, apperror.KindInvalidInput},
			{"bad order id", f.guest.ID, request.CreatePaymentRequest{Amount: 1, OrderID: "nope", Description: "d"}, apperror.KindInvalidInput},
			{"unknown booking", f.guest.ID, request.CreatePaymentRequest{Amount: 1, OrderID: uuid.NewString(), Description: "d"}, apperror.KindNotFound},
			{"someone else's booking", uuid.New(), request.CreatePaymentRequest{Amount: 1, OrderID: f.booking.ID.String(), Description: "d"}, apperror.KindForbidden},
			{"already paid", f.guest.ID, request.CreatePaymentRequest{Amount: 1, OrderID: paid.ID.String(), Description: "d"}, apperror.KindConflict},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				req := tc.req
				_, err := f.payment.CreatePayment(ctx, tc.userID, &req)
				assert.Equal(t, tc.kind, apperror.KindOf(err))
			})
		}
		assert.Empty(t, f.gateway.created)
	})
}

func TestReconcilePending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	f := newPaymentFixture(now)
	repo := f.store.repository()

	stale := f.seed(f.guest.ID, day(2024, 2, 1), day(2024, 2, 3), entity.BookingStatusConfirmed)
	fresh := f.seed(f.guest.ID, day(2024, 3, 1), day(2024, 3, 3), entity.BookingStatusConfirmed)
	for id, txn := range map[uuid.UUID]string{stale.ID: "stale", fresh.ID: "fresh"} {
		require.NoError(t, repo.Booking.SetAppTransID(ctx, id, txn))
	}
	f.store.mu.Lock()
	for _, id := range []uuid.UUID{stale.ID, fresh.ID} {
		b := f.store.bookings[id]
		b.UpdatedAt = now.Add(-10 * time.Minute)
		if id == fresh.ID {
			b.UpdatedAt = now.Add(-10 * time.Second)
		}
		f.store.bookings[id] = b
	}
	f.store.mu.Unlock()

	embed, _ := json.Marshal(zalopay.EmbedData{OrderID: stale.ID.String()})
	f.gateway.statuses["stale"] = &zalopay.OrderStatus{ReturnCode: zalopay.ReturnCodeSuccess, Amount: 200, EmbedData: string(embed)}
	f.gateway.statuses["fresh"] = &zalopay.OrderStatus{ReturnCode: zalopay.ReturnCodeSuccess, Amount: 200}

	updated, err := f.payment.ReconcilePending(ctx, 2*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, entity.PaymentStatusPaid, f.store.booking(stale.ID).PaymentStatus)
	assert.Equal(t, entity.PaymentStatusPending, f.store.booking(fresh.ID).PaymentStatus)
}

func TestReconcilePendingRotatesUnsettledBookings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	f := newPaymentFixture(now)
	repo := f.store.repository()

	stuck := f.seed(f.guest.ID, day(2024, 2, 1), day(2024, 2, 3), entity.BookingStatusConfirmed)
	payable := f.seed(f.guest.ID, day(2024, 3, 1), day(2024, 3, 3), entity.BookingStatusConfirmed)
	require.NoError(t, repo.Booking.SetAppTransID(ctx, stuck.ID, "stuck"))
	require.NoError(t, repo.Booking.SetAppTransID(ctx, payable.ID, "payable"))

	f.store.mu.Lock()
	for id, age := range map[uuid.UUID]time.Duration{stuck.ID: time.Hour, payable.ID: 10 * time.Minute} {
		b := f.store.bookings[id]
		b.UpdatedAt = now.Add(-age)
		f.store.bookings[id] = b
	}
	f.store.mu.Unlock()

	// "stuck" has no status entry, so the fake gateway answers -49 and the booking stays pending.
	embed, _ := json.Marshal(zalopay.EmbedData{OrderID: payable.ID.String()})
	f.gateway.statuses["payable"] = &zalopay.OrderStatus{ReturnCode: zalopay.ReturnCodeSuccess, Amount: 200, EmbedData: string(embed)}

	for tick := 0; tick < 2; tick++ {
		_, err := f.payment.ReconcilePending(ctx, 2*time.Minute, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, entity.PaymentStatusPaid, f.store.booking(payable.ID).PaymentStatus)
	assert.Equal(t, entity.PaymentStatusPending, f.store.booking(stuck.ID).PaymentStatus)
	require.NotNil(t, f.store.booking(stuck.ID).PaymentCheckedAt)
	assert.Equal(t, now, *f.store.booking(stuck.ID).PaymentCheckedAt)
}

func TestListCallbackFailures(t *testing.T) {
	f := newPaymentFixture(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	_, err := f.payment.HandleCallback(context.Background(), f.callback(uuid.NewString(), 9))
	require.NoError(t, err)

	failures, err := f.payment.ListCallbackFailures(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, reasonBookingNotFound, failures[0].Reason)
	assert.Equal(t, "9", failures[0].ZpTransID)
}
