package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/cycle"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
)

const (
	teacherID = int64(100)
	studentID = int64(1)
)

// memStore хранилище в памяти с тем же контрактом, что и repository.Store:
// блокировка на студента вместо SELECT FOR UPDATE и проверки уникальности
// при вставке вместо уникальных индексов
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	plans      map[int64]*model.Plan
	bookings   []*model.Booking
	attendance map[int64]*model.Attendance
	templates  map[int64][]*model.SlotTemplate
	notified   map[int64]time.Time
	nextID     int64

	lockMu       sync.Mutex
	studentLocks map[int64]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]*model.User),
		plans:        make(map[int64]*model.Plan),
		attendance:   make(map[int64]*model.Attendance),
		templates:    make(map[int64][]*model.SlotTemplate),
		notified:     make(map[int64]time.Time),
		studentLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *memStore) addUser(id int64, teacher bool) *model.User {
	tgID := id + 1000
	u := &model.User{ID: id, TelegramID: &tgID, FirstName: fmt.Sprintf("User%d", id), IsTeacher: teacher}
	s.users[id] = u
	return u
}

func (s *memStore) setPlan(p model.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.StudentID] = &p
}

func (s *memStore) plan(studentID int64) model.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.plans[studentID]
}

func (s *memStore) addBooking(b model.Booking) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.bookings = append(s.bookings, &b)
	return &b
}

func (s *memStore) activeBookings() []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.Status == model.BookingStatusBooked {
			out = append(out, b)
		}
	}
	return out
}

func (s *memStore) studentLock(id int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.studentLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.studentLocks[id] = l
	}
	return l
}

func (s *memStore) WithStudentLock(ctx context.Context, studentID int64, fn func(tx repository.LedgerTx, plan *model.Plan) error) error {
	l := s.studentLock(studentID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	var plan *model.Plan
	if p, ok := s.plans[studentID]; ok {
		cp := *p
		plan = &cp
	}
	s.mu.Unlock()

	tx := &memLedgerTx{s: s}
	if err := fn(tx, plan); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *memStore) WithPlanLock(ctx context.Context, studentID int64, fn func(tx repository.PlanTx, plan *model.Plan) error) error {
	l := s.studentLock(studentID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	var plan *model.Plan
	if p, ok := s.plans[studentID]; ok {
		cp := *p
		plan = &cp
	}
	s.mu.Unlock()

	tx := &memLedgerTx{s: s}
	if err := fn(tx, plan); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *memStore) WithAttendanceTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error {
	tx := &memAttendanceTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memLedgerTx struct {
	s           *memStore
	inserted    *model.Booking
	incremented int64

	upserted int64
	replaced *model.Plan
}

func (t *memLedgerTx) SlotBooked(ctx context.Context, teacherID int64, start, end time.Time) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	key := model.NewSlotKey(teacherID, start, end)
	for _, b := range t.s.bookings {
		if b.Status == model.BookingStatusBooked && b.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (t *memLedgerTx) StudentBookedAt(ctx context.Context, studentID int64, start time.Time) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, b := range t.s.bookings {
		if b.Status == model.BookingStatusBooked && b.StudentID == studentID && b.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memLedgerTx) CountStudentBookings(ctx context.Context, studentID int64) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	n := 0
	for _, b := range t.s.bookings {
		if b.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (t *memLedgerTx) InsertBooking(ctx context.Context, booking *model.Booking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, b := range t.s.bookings {
		if b.Status != model.BookingStatusBooked {
			continue
		}
		if b.Key() == booking.Key() {
			return model.ErrSlotAlreadyBooked
		}
		if b.StudentID == booking.StudentID && b.Start.Equal(booking.Start) {
			return model.ErrDuplicateBooking
		}
	}

	t.s.nextID++
	booking.ID = t.s.nextID
	stored := *booking
	t.s.bookings = append(t.s.bookings, &stored)
	t.inserted = &stored
	return nil
}

func (t *memLedgerTx) IncrementSessionUsed(ctx context.Context, studentID int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.plans[studentID]
	if !ok || p.SessionUsed >= p.SessionLimit {
		return false, nil
	}
	p.SessionUsed++
	t.incremented = studentID
	return true, nil
}

func (t *memLedgerTx) UpsertPlan(ctx context.Context, plan *model.Plan) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.upserted == 0 {
		t.upserted = plan.StudentID
		t.replaced = t.s.plans[plan.StudentID]
	}
	plan.SessionUsed = 0
	plan.RenewalNotifiedAt = nil
	cp := *plan
	t.s.plans[plan.StudentID] = &cp
	return nil
}

func (t *memLedgerTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.inserted != nil {
		t.s.bookings = slices.DeleteFunc(t.s.bookings, func(b *model.Booking) bool { return b == t.inserted })
	}
	if t.incremented != 0 {
		t.s.plans[t.incremented].SessionUsed--
	}
	if t.upserted != 0 {
		if t.replaced == nil {
			delete(t.s.plans, t.upserted)
		} else {
			t.s.plans[t.upserted] = t.replaced
		}
	}
}

type memAttendanceTx struct {
	s        *memStore
	inserted *model.Attendance
}

func (t *memAttendanceTx) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.attendance[a.BookingID]; ok {
		return model.ErrAlreadyMarked
	}
	t.s.nextID++
	a.ID = t.s.nextID
	stored := *a
	t.s.attendance[a.BookingID] = &stored
	t.inserted = &stored
	return nil
}

func (t *memAttendanceTx) IncrementTeacherSessions(ctx context.Context, teacherID int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	u, ok := t.s.users[teacherID]
	if !ok || !u.IsTeacher {
		return model.ErrTeacherNotFound
	}
	u.AttendanceSessions++
	return nil
}

func (t *memAttendanceTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.inserted != nil {
		delete(t.s.attendance, t.inserted.BookingID)
	}
}

// Представления хранилища под интерфейсы сервисов

type memUsers struct{ s *memStore }

func (v memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memTemplates struct{ s *memStore }

func (v memTemplates) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.SlotTemplate, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.templates[teacherID], nil
}

type memBookings struct{ s *memStore }

func (v memBookings) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, b := range v.s.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (v memBookings) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*model.Booking
	for _, b := range v.s.bookings {
		if b.StudentID == studentID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (v memBookings) GetByTeacherRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*model.Booking
	for _, b := range v.s.bookings {
		if b.TeacherID == teacherID && b.Status == model.BookingStatusBooked && !b.Start.Before(from) && b.Start.Before(to) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAttendance struct{ s *memStore }

func (v memAttendance) GetByBookingID(ctx context.Context, bookingID int64) (*model.Attendance, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.attendance[bookingID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (v memAttendance) GetByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]*model.Attendance, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make(map[int64]*model.Attendance)
	for _, id := range bookingIDs {
		if a, ok := v.s.attendance[id]; ok {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

type memPlans struct{ s *memStore }

func (v memPlans) GetByStudentID(ctx context.Context, studentID int64) (*model.Plan, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.plans[studentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (v memPlans) ListRenewalsDue(ctx context.Context, now time.Time, limit int) ([]*model.Plan, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*model.Plan
	for _, p := range v.s.plans {
		if p.EndDate.Before(now) && p.RenewalNotifiedAt == nil {
			cp := *p
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (v memPlans) MarkRenewalNotified(ctx context.Context, studentID int64, at time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.plans[studentID]
	if !ok {
		return model.ErrNoActivePlan
	}
	p.RenewalNotifiedAt = &at
	return nil
}

// recordingNotifier запоминает отправленные уведомления
type recordingNotifier struct {
	mu         sync.Mutex
	bookings   []int64
	attendance []int64
	renewals   []int64
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, booking *model.Booking, teacher, student *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, booking.ID)
}

func (n *recordingNotifier) AttendanceMarked(ctx context.Context, attendance *model.Attendance, student *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attendance = append(n.attendance, attendance.BookingID)
}

func (n *recordingNotifier) RenewalDue(ctx context.Context, plan *model.Plan, student *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.renewals = append(n.renewals, plan.StudentID)
}

// fixture общее окружение тестов сервисов
type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	kolkata  *time.Location
	now      time.Time

	bookings     *BookingService
	attendance   *AttendanceService
	plans        *PlanService
	availability *AvailabilityService
}

// newFixture учитель с ежедневными часовыми слотами с 08:00 до 20:00
// по Калькутте и студент без плана. Текущий момент 1 июля 2025 00:00 UTC.
func newFixture() *fixture {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}

	store := newMemStore()
	store.addUser(teacherID, true)
	store.addUser(studentID, false)

	var slots []model.TemplateSlot
	for d := time.Sunday; d <= time.Saturday; d++ {
		for h := 8; h < 20; h++ {
			slots = append(slots, model.TemplateSlot{
				ID:        int64(len(slots) + 1),
				Weekday:   d,
				LocalTime: hourLabel(h) + "-" + hourLabel(h+1),
			})
		}
	}
	store.templates[teacherID] = []*model.SlotTemplate{{
		ID:        uuid.New(),
		TeacherID: teacherID,
		Class:     "Grade 5",
		Subject:   "English",
		Timezone:  "Asia/Kolkata",
		Slots:     slots,
		IsActive:  true,
	}}

	notifier := &recordingNotifier{}
	logger := zap.NewNop()
	users := memUsers{store}
	bookings := memBookings{store}
	attendance := memAttendance{store}
	templates := memTemplates{store}

	f := &fixture{
		store:    store,
		notifier: notifier,
		kolkata:  kolkata,
		now:      time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.bookings = NewBookingService(store, users, templates, bookings, notifier, logger)
	f.bookings.now = clock
	f.attendance = NewAttendanceService(store, bookings, attendance, users, notifier, logger)
	f.attendance.now = clock
	f.plans = NewPlanService(memPlans{store}, store, users, cycle.DefaultPrices(), kolkata, notifier, logger)
	f.plans.now = clock
	f.availability = NewAvailabilityService(users, templates, bookings, attendance, kolkata, logger)
	f.availability.now = clock

	return f
}

func hourLabel(h int) string {
	return time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("03:04PM")
}

// slot начало и конец часового занятия day июля 2025 в hour по Калькутте
func (f *fixture) slot(day, hour int) (time.Time, time.Time) {
	start := time.Date(2025, time.July, day, hour, 0, 0, 0, f.kolkata)
	return start, start.Add(time.Hour)
}

func (f *fixture) input(student int64, day, hour int) CreateBookingInput {
	start, end := f.slot(day, hour)
	return CreateBookingInput{StudentID: student, TeacherID: teacherID, Start: start, End: end}
}

// julyPlan оплаченный месячный план на июль 2025
func (f *fixture) julyPlan(student int64, used, limit int) model.Plan {
	return model.Plan{
		StudentID:      student,
		PlanType:       "monthly-tier-1",
		BillingCycle:   model.BillingCycleMonthly,
		SessionCadence: model.Cadence1h,
		StartDate:      time.Date(2025, time.July, 1, 0, 0, 0, 0, f.kolkata),
		EndDate:        time.Date(2025, time.July, 31, 23, 59, 59, 0, f.kolkata),
		SessionLimit:   limit,
		SessionUsed:    used,
		PaymentStatus:  model.PaymentStatusSuccess,
	}
}
