package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/gateway/zalopay"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

// memStore backs every fake repository so services see one consistent state.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]entity.User
	sessions map[uuid.UUID]entity.Session
	rooms    map[uuid.UUID]entity.Room
	bookings map[uuid.UUID]entity.Booking
	hotel    *entity.Hotel
	failures []entity.PaymentCallbackFailure
	keys     map[string]bool

	// failRefresh makes SyncRoomAvailability fail.
	failRefresh bool
	// bookingReads counts booking store reads, used to assert short-circuits.
	bookingReads int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]entity.User{},
		sessions: map[uuid.UUID]entity.Session{},
		rooms:    map[uuid.UUID]entity.Room{},
		bookings: map[uuid.UUID]entity.Booking{},
		keys:     map[string]bool{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:           &fakeUserRepo{m},
		Session:        &fakeSessionRepo{m},
		Room:           &fakeRoomRepo{m},
		Hotel:          &fakeHotelRepo{m},
		Booking:        &fakeBookingRepo{m},
		PaymentFailure: &fakeFailureRepo{m},
		Idempotency:    &fakeIdempotencyRepo{m},
	}
}

func (m *memStore) addUser(name, email string) entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := entity.User{Base: entity.Base{ID: uuid.New()}, Name: name, Email: email, Role: entity.RoleUser}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addRoom(number string, price float64) entity.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := entity.Room{
		Base:        entity.Base{ID: uuid.New()},
		Type:        "Deluxe",
		Number:      number,
		Price:       price,
		Capacity:    2,
		IsAvailable: true,
	}
	m.rooms[r.ID] = r
	return r
}

func (m *memStore) addBooking(b entity.Booking) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) setAvailable(id uuid.UUID, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room := m.rooms[id]
	room.IsAvailable = available
	m.rooms[id] = room
}

func (m *memStore) room(id uuid.UUID) entity.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[id]
}

func (m *memStore) overlaps(roomID uuid.UUID, in, out time.Time, exclude *uuid.UUID) bool {
	for _, b := range m.bookings {
		if b.RoomID != roomID || !b.IsActive() {
			continue
		}
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if b.Overlaps(in, out) {
			return true
		}
	}
	return false
}

func (m *memStore) detail(b entity.Booking) *entity.BookingDetail {
	u := m.users[b.UserID]
	return &entity.BookingDetail{Booking: b, UserName: u.Name, UserEmail: u.Email, Room: m.rooms[b.RoomID]}
}

// ==================== USERS & SESSIONS ====================

type fakeUserRepo struct{ m *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.m.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	all := make([]*entity.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return page(all, limit, offset), nil
}

func (r *fakeUserRepo) CountAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.users)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range r.m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.m.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.m.users, id)
	return nil
}

type fakeSessionRepo struct{ m *memStore }

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[s.Token] = *s
	return nil
}

func (r *fakeSessionRepo) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok || s.RevokedAt != nil || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[token]; ok {
		now := time.Now()
		s.RevokedAt = &now
		r.m.sessions[token] = s
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now()
	for token, s := range r.m.sessions {
		if s.UserID == userID {
			s.RevokedAt = &now
			r.m.sessions[token] = s
		}
	}
	return nil
}

func (r *fakeSessionRepo) CleanExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, s := range r.m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}

// ==================== ROOMS & HOTEL ====================

type fakeRoomRepo struct{ m *memStore }

func (r *fakeRoomRepo) Create(_ context.Context, room *entity.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.rooms {
		if existing.Number == room.Number {
			return repository.ErrDuplicate
		}
	}
	r.m.rooms[room.ID] = *room
	return nil
}

func (r *fakeRoomRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (r *fakeRoomRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return page(r.m.sortedRooms(), limit, offset), nil
}

func (r *fakeRoomRepo) CountAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.rooms)), nil
}

func (r *fakeRoomRepo) Update(_ context.Context, room *entity.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.rooms[room.ID]; !ok {
		return repository.ErrRoomNotFound
	}
	for _, existing := range r.m.rooms {
		if existing.ID != room.ID && existing.Number == room.Number {
			return repository.ErrDuplicate
		}
	}
	r.m.rooms[room.ID] = *room
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.rooms[id]; !ok {
		return repository.ErrRoomNotFound
	}
	for _, b := range r.m.bookings {
		if b.RoomID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.m.rooms, id)
	return nil
}

func (r *fakeRoomRepo) SearchAvailable(_ context.Context, excludeIDs []uuid.UUID, f entity.RoomFilter) ([]*entity.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	excluded := map[uuid.UUID]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	out := make([]*entity.Room, 0)
	for _, room := range r.m.sortedRooms() {
		switch {
		case !room.IsAvailable, excluded[room.ID], room.Capacity < f.MinCapacity:
			continue
		case f.MinPrice != nil && room.Price < *f.MinPrice:
			continue
		case f.MaxPrice != nil && room.Price > *f.MaxPrice:
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func (m *memStore) sortedRooms() []*entity.Room {
	all := make([]*entity.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		room := room
		all = append(all, &room)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number < all[j].Number })
	return all
}

type fakeHotelRepo struct{ m *memStore }

func (r *fakeHotelRepo) Get(context.Context) (*entity.Hotel, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.hotel == nil {
		return nil, nil
	}
	h := *r.m.hotel
	return &h, nil
}

func (r *fakeHotelRepo) Create(_ context.Context, hotel *entity.Hotel) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.hotel != nil {
		return repository.ErrHotelExists
	}
	h := *hotel
	r.m.hotel = &h
	return nil
}

func (r *fakeHotelRepo) Update(_ context.Context, hotel *entity.Hotel) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.hotel == nil {
		return repository.ErrHotelNotFound
	}
	h := *hotel
	r.m.hotel = &h
	return nil
}

// ==================== BOOKINGS ====================

type fakeBookingRepo struct{ m *memStore }

func (r *fakeBookingRepo) CreateExclusive(_ context.Context, b *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.rooms[b.RoomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.m.overlaps(b.RoomID, b.CheckIn, b.CheckOut, nil) {
		return repository.ErrBookingOverlap
	}
	r.m.bookings[b.ID] = *b
	room.IsAvailable = false
	r.m.rooms[b.RoomID] = room
	return nil
}

func (r *fakeBookingRepo) UpdateExclusive(_ context.Context, b *entity.Booking, checkOverlap bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.bookings[b.ID]; !ok {
		return repository.ErrBookingNotFound
	}
	if checkOverlap && b.IsActive() && r.m.overlaps(b.RoomID, b.CheckIn, b.CheckOut, &b.ID) {
		return repository.ErrBookingOverlap
	}
	r.m.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.bookingReads++
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *fakeBookingRepo) FindDetailByID(_ context.Context, id uuid.UUID) (*entity.BookingDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	return r.m.detail(b), nil
}

func (r *fakeBookingRepo) sortedDetails(keep func(entity.Booking) bool) []*entity.BookingDetail {
	out := make([]*entity.BookingDetail, 0)
	for _, b := range r.m.bookings {
		if keep(b) {
			out = append(out, r.m.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeBookingRepo) FindAllDetails(_ context.Context, limit, offset int) ([]*entity.BookingDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return page(r.sortedDetails(func(entity.Booking) bool { return true }), limit, offset), nil
}

func (r *fakeBookingRepo) FindDetailsByUserID(_ context.Context, userID uuid.UUID) ([]*entity.BookingDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.sortedDetails(func(b entity.Booking) bool { return b.UserID == userID }), nil
}

func (r *fakeBookingRepo) CountAll(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.bookings)), nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.BookingStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	r.m.bookings[id] = b
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.bookings[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(r.m.bookings, id)
	return nil
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, roomID uuid.UUID, in, out time.Time, exclude *uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.bookingReads++
	return r.m.overlaps(roomID, in, out, exclude), nil
}

func (r *fakeBookingRepo) SyncRoomAvailability(_ context.Context, roomID uuid.UUID, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failRefresh {
		return false, errStoreDown
	}
	room, ok := r.m.rooms[roomID]
	if !ok {
		return false, repository.ErrRoomNotFound
	}
	available := true
	for _, b := range r.m.bookings {
		if b.RoomID == roomID && b.IsActive() && b.Covers(at) {
			available = false
			break
		}
	}
	room.IsAvailable = available
	r.m.rooms[roomID] = room
	return available, nil
}

func (r *fakeBookingRepo) FindBookedRoomIDs(_ context.Context, in, out time.Time) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0)
	for _, b := range r.m.bookings {
		if b.IsActive() && b.Overlaps(in, out) && !seen[b.RoomID] {
			seen[b.RoomID] = true
			ids = append(ids, b.RoomID)
		}
	}
	return ids, nil
}

func (r *fakeBookingRepo) FindRoomIDsWithEndedBookings(_ context.Context, at time.Time) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0)
	for _, b := range r.m.bookings {
		if b.Status == entity.BookingStatusConfirmed && b.CheckOut.Before(at) &&
			!r.m.rooms[b.RoomID].IsAvailable && !seen[b.RoomID] {
			seen[b.RoomID] = true
			ids = append(ids, b.RoomID)
		}
	}
	return ids, nil
}

func (r *fakeBookingRepo) SetAppTransID(_ context.Context, id uuid.UUID, appTransID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.AppTransID = &appTransID
	r.m.bookings[id] = b
	return nil
}

func (r *fakeBookingRepo) ApplyPaymentUpdate(_ context.Context, id uuid.UUID, u entity.PaymentUpdate) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return false, nil
	}
	if b.PaymentStatus == entity.PaymentStatusPaid && u.Status != entity.PaymentStatusPaid {
		return false, nil
	}
	b.PaymentStatus = u.Status
	if u.ZpTransactionID != nil {
		b.ZpTransactionID = u.ZpTransactionID
	}
	if u.PaidAmount != nil {
		b.PaidAmount = u.PaidAmount
	}
	if u.DiscountAmount != nil {
		b.DiscountAmount = u.DiscountAmount
	}
	if u.PaymentError != nil {
		b.PaymentError = u.PaymentError
	}
	b.UpdatedAt = time.Now()
	r.m.bookings[id] = b
	return true, nil
}

func (r *fakeBookingRepo) FindAwaitingPayment(_ context.Context, checkedBefore time.Time, limit int) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	lastChecked := func(b *entity.Booking) time.Time {
		if b.PaymentCheckedAt != nil {
			return *b.PaymentCheckedAt
		}
		return b.UpdatedAt
	}
	out := make([]*entity.Booking, 0)
	for _, b := range r.m.bookings {
		b := b
		if (b.PaymentStatus == entity.PaymentStatusPending || b.PaymentStatus == entity.PaymentStatusProcessing) &&
			b.IsActive() && b.AppTransID != nil && lastChecked(&b).Before(checkedBefore) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lastChecked(out[i]).Before(lastChecked(out[j])) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkPaymentChecked(_ context.Context, ids []uuid.UUID, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, id := range ids {
		if b, ok := r.m.bookings[id]; ok {
			checked := at
			b.PaymentCheckedAt = &checked
			r.m.bookings[id] = b
		}
	}
	return nil
}

func (r *fakeBookingRepo) AggregateDailyByPaymentStatus(_ context.Context, from, to time.Time) ([]entity.DailyPaymentAggregate, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	type key struct {
		day    time.Time
		status entity.PaymentStatus
	}
	sums := map[key]*entity.DailyPaymentAggregate{}
	out := make([]entity.DailyPaymentAggregate, 0)
	for _, b := range r.m.bookings {
		if !b.IsActive() || b.CreatedAt.Before(from) || !b.CreatedAt.Before(to) {
			continue
		}
		local := b.CreatedAt.In(from.Location())
		k := key{time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, from.Location()), b.PaymentStatus}
		if sums[k] == nil {
			sums[k] = &entity.DailyPaymentAggregate{Day: k.day, PaymentAggregate: entity.PaymentAggregate{PaymentStatus: b.PaymentStatus}}
		}
		sums[k].Bookings++
		sums[k].Revenue += b.TotalPrice
	}
	for _, agg := range sums {
		out = append(out, *agg)
	}
	return out, nil
}

// ==================== PAYMENTS ====================

type fakeFailureRepo struct{ m *memStore }

func (r *fakeFailureRepo) Create(_ context.Context, f *entity.PaymentCallbackFailure) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.failures = append(r.m.failures, *f)
	return nil
}

func (r *fakeFailureRepo) FindRecent(_ context.Context, limit int) ([]*entity.PaymentCallbackFailure, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*entity.PaymentCallbackFailure, 0)
	for i := len(r.m.failures) - 1; i >= 0 && len(out) < limit; i-- {
		f := r.m.failures[i]
		out = append(out, &f)
	}
	return out, nil
}

type fakeIdempotencyRepo struct{ m *memStore }

func (r *fakeIdempotencyRepo) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.keys[key] {
		return false, nil
	}
	r.m.keys[key] = true
	return true, nil
}

func (r *fakeIdempotencyRepo) Release(_ context.Context, key string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.keys, key)
	return nil
}

// fakeGateway signs callbacks with key2 like the real client and serves canned statuses.
type fakeGateway struct {
	key2     string
	statuses map[string]*zalopay.OrderStatus
	queryErr error
	created  []zalopay.OrderRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{key2: "key2-secret", statuses: map[string]*zalopay.OrderStatus{}}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req zalopay.OrderRequest) (*zalopay.Order, error) {
	if req.Amount <= 0 || req.OrderID == "" || req.Description == "" {
		return nil, zalopay.ErrMissingFields
	}
	g.created = append(g.created, req)
	return &zalopay.Order{
		OrderURL:   "https://sb.zalopay.vn/order/1",
		QRCode:     "https://sb.zalopay.vn/order/1",
		AppTransID: "240102_0badf00d",
	}, nil
}

func (g *fakeGateway) QueryOrderStatus(_ context.Context, appTransID string) (*zalopay.OrderStatus, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	s, ok := g.statuses[appTransID]
	if !ok {
		return &zalopay.OrderStatus{ReturnCode: -49, ReturnMessage: "not found"}, nil
	}
	return s, nil
}

func (g *fakeGateway) VerifyCallback(data, mac string) bool {
	return zalopay.Sign(g.key2, data) == strings.ToLower(mac)
}

// recordingPublisher keeps every published routing key.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
