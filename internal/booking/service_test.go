package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/queue"
	redisclient "github.com/medisched/clinic-queue/internal/redis"
)

// clock is a Wednesday; bookDate the following Monday.
var (
	clock    = time.Date(2026, time.September, 2, 10, 30, 0, 0, time.UTC)
	bookDate = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
)

// -- In-memory fakes --

type memApptRepo struct {
	mu         sync.Mutex
	appts      map[uuid.UUID]*appointment.Appointment
	failCreate error
	queueRepo  *memQueueRepo
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *memApptRepo) Create(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	copied := *a
	m.appts[a.ID] = &copied
	return nil
}

func (m *memApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to appointment.Status, notes, cancelReason *string) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrStatusConflict
	}
	a.Status = to
	if cancelReason != nil {
		a.CancelReason = cancelReason
	}
	copied := *a
	return &copied, nil
}

// Move mirrors the transactional pg implementation: compare-and-swap on the
// status and retire the old queue entry atomically.
func (m *memApptRepo) Move(ctx context.Context, id uuid.UUID, date time.Time, queueEntryID uuid.UUID, queueNumber string, from, to appointment.Status) (*appointment.Appointment, error) {
	m.mu.Lock()
	a, ok := m.appts[id]
	if !ok {
		m.mu.Unlock()
		return nil, appointment.ErrAppointmentNotFound
	}
	if a.Status != from {
		m.mu.Unlock()
		return nil, appointment.ErrStatusConflict
	}
	oldEntryID := a.QueueEntryID
	a.Date = date
	a.QueueEntryID = queueEntryID
	a.QueueNumber = queueNumber
	a.Status = to
	copied := *a
	m.mu.Unlock()

	if m.queueRepo != nil {
		_ = m.queueRepo.MarkCancelled(ctx, oldEntryID)
	}
	return &copied, nil
}

func (m *memApptRepo) ListByPatient(context.Context, uuid.UUID, int, int) ([]appointment.Appointment, error) {
	return nil, nil
}

func (m *memApptRepo) ListByDoctorDate(context.Context, uuid.UUID, time.Time) ([]appointment.Appointment, error) {
	return nil, nil
}

func (m *memApptRepo) FindOverdue(context.Context, time.Time) ([]appointment.Appointment, error) {
	return nil, nil
}

func (m *memApptRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}

type memQueueRepo struct {
	mu       sync.Mutex
	counters map[string]int
	sequence map[string]int64
	entries  map[uuid.UUID]*queue.Entry
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{
		counters: make(map[string]int),
		sequence: make(map[string]int64),
		entries:  make(map[uuid.UUID]*queue.Entry),
	}
}

func partitionKey(doctorID uuid.UUID, date time.Time) string {
	return doctorID.String() + ":" + date.Format("2006-01-02")
}

func (m *memQueueRepo) NextOrdinal(_ context.Context, doctorID uuid.UUID, date time.Time, lane queue.Lane) (int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := partitionKey(doctorID, date)
	lk := pk + ":" + string(lane)
	m.counters[lk]++
	m.sequence[pk]++
	return m.counters[lk], m.sequence[pk], nil
}

func (m *memQueueRepo) InsertEntry(_ context.Context, e *queue.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *e
	m.entries[e.ID] = &copied
	return nil
}

func (m *memQueueRepo) GetEntry(_ context.Context, id uuid.UUID) (*queue.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, queue.ErrEntryNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memQueueRepo) ListEntries(_ context.Context, doctorID uuid.UUID, date time.Time) ([]queue.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []queue.Entry
	for _, e := range m.entries {
		if e.DoctorID == doctorID && e.Date.Equal(date) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *memQueueRepo) NextUnserved(_ context.Context, doctorID uuid.UUID, date time.Time) (*queue.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *queue.Entry
	for _, e := range m.entries {
		if e.DoctorID != doctorID || !e.Date.Equal(date) || e.Served || e.Cancelled {
			continue
		}
		if best == nil ||
			(e.Lane == queue.LaneEmergency && best.Lane != queue.LaneEmergency) ||
			(e.Lane == best.Lane && e.Ordinal < best.Ordinal) {
			best = e
		}
	}
	if best == nil {
		return nil, queue.ErrEntryNotFound
	}
	copied := *best
	return &copied, nil
}

func (m *memQueueRepo) MarkServed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return queue.ErrEntryNotFound
	}
	e.Served = true
	return nil
}

func (m *memQueueRepo) MarkCancelled(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return queue.ErrEntryNotFound
	}
	e.Cancelled = true
	return nil
}

func (m *memQueueRepo) CountLive(_ context.Context, doctorID uuid.UUID, date time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var regular, emergency int
	for _, e := range m.entries {
		if e.DoctorID != doctorID || !e.Date.Equal(date) || e.Served || e.Cancelled {
			continue
		}
		if e.Lane == queue.LaneEmergency {
			emergency++
		} else {
			regular++
		}
	}
	return regular, emergency, nil
}

type noopLocker struct{}

func (noopLocker) WithPartitionLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// flakyLocker refuses its first n acquisitions, then behaves normally.
type flakyLocker struct {
	mu       sync.Mutex
	failures int
}

func (l *flakyLocker) WithPartitionLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.mu.Unlock()
	return fn(ctx)
}

type memProfiles struct {
	profiles map[uuid.UUID]*availability.Profile
	onGet    func() // runs before each lookup, for interleaving tests
}

func (m *memProfiles) GetProfile(_ context.Context, doctorID uuid.UUID) (*availability.Profile, error) {
	if m.onGet != nil {
		m.onGet()
	}
	p, ok := m.profiles[doctorID]
	if !ok {
		return nil, availability.ErrDoctorNotFound
	}
	return p, nil
}

func (m *memProfiles) SetWorkingHours(context.Context, uuid.UUID, availability.WeekHours) error {
	return nil
}

func (m *memProfiles) SetStatus(context.Context, uuid.UUID, availability.Status) error {
	return nil
}

type memIdem struct {
	mu      sync.Mutex
	records map[string]string // "" means pending
}

func newMemIdem() *memIdem {
	return &memIdem{records: make(map[string]string)}
}

func (m *memIdem) Claim(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.records[key]; ok {
		return v, v == "", nil
	}
	m.records[key] = ""
	return "", false, nil
}

func (m *memIdem) Fulfil(_ context.Context, key, appointmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = appointmentID
	return nil
}

func (m *memIdem) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

type memRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *memRecorder) Record(_ context.Context, eventType string, _ uuid.UUID, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

type fixture struct {
	svc       *Service
	appts     *memApptRepo
	queueRepo *memQueueRepo
	profiles  *memProfiles
	idem      *memIdem
	recorder  *memRecorder
	doctorID  uuid.UUID
}

func newFixture(t *testing.T, locker redisclient.Locker) *fixture {
	t.Helper()

	doctorID := uuid.New()
	hours := availability.WeekHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = availability.DayWindow{Start: 9 * 60, End: 17 * 60}
	}
	profiles := &memProfiles{profiles: map[uuid.UUID]*availability.Profile{
		doctorID: {DoctorID: doctorID, Status: availability.StatusAvailable, Hours: hours},
	}}

	appts := newMemApptRepo()
	queueRepo := newMemQueueRepo()
	appts.queueRepo = queueRepo
	idem := newMemIdem()
	recorder := &memRecorder{}

	queues := queue.NewService(queueRepo, locker, zerolog.Nop())
	life := appointment.NewService(appts, queues, recorder, zerolog.Nop())

	svc := NewService(appts, life, queues, profiles, availability.NewCalculator(90), idem, recorder, zerolog.Nop())
	svc.now = func() time.Time { return clock }

	return &fixture{
		svc:       svc,
		appts:     appts,
		queueRepo: queueRepo,
		profiles:  profiles,
		idem:      idem,
		recorder:  recorder,
		doctorID:  doctorID,
	}
}

func (f *fixture) request() BookRequest {
	return BookRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      bookDate,
		Type:      appointment.TypeConsultation,
		Reason:    "persistent cough",
	}
}

func admin() appointment.Actor {
	return appointment.Actor{UserID: uuid.New(), Role: appointment.RoleAdmin}
}

// -- Tests --

func TestBook_AssignsLaneScopedNumbers(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	first, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	second, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}

	emergency := f.request()
	emergency.IsEmergency = true
	third, err := f.svc.Book(ctx, admin(), emergency)
	if err != nil {
		t.Fatalf("emergency booking: %v", err)
	}

	if first.QueueNumber != "1" || second.QueueNumber != "2" {
		t.Errorf("regular numbers: got %q, %q, want 1, 2", first.QueueNumber, second.QueueNumber)
	}
	if third.QueueNumber != "E1" {
		t.Errorf("emergency number: got %q, want E1", third.QueueNumber)
	}
	if first.Status != appointment.StatusScheduled {
		t.Errorf("new booking should be scheduled, got %s", first.Status)
	}
}

func TestBook_ReasonRequired(t *testing.T) {
	f := newFixture(t, noopLocker{})

	req := f.request()
	req.Reason = "   "
	_, err := f.svc.Book(context.Background(), admin(), req)
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if f.appts.count() != 0 {
		t.Error("no appointment should exist after a rejected booking")
	}
}

func TestBook_InvalidType(t *testing.T) {
	f := newFixture(t, noopLocker{})

	req := f.request()
	req.Type = "surgery"
	_, err := f.svc.Book(context.Background(), admin(), req)
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestBook_DateValidation(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	past := f.request()
	past.Date = clock.AddDate(0, 0, -1)
	if _, err := f.svc.Book(ctx, admin(), past); !errors.Is(err, availability.ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}

	far := f.request()
	far.Date = clock.AddDate(0, 0, 91)
	if _, err := f.svc.Book(ctx, admin(), far); !errors.Is(err, availability.ErrTooFarAhead) {
		t.Fatalf("expected ErrTooFarAhead, got %v", err)
	}

	edge := f.request()
	edge.Date = clock.AddDate(0, 0, 90)
	if _, err := f.svc.Book(ctx, admin(), edge); err != nil {
		t.Fatalf("day 90 should be bookable, got %v", err)
	}
}

func TestBook_PatientCannotBookForOthers(t *testing.T) {
	f := newFixture(t, noopLocker{})

	req := f.request()
	actor := appointment.Actor{UserID: uuid.New(), Role: appointment.RolePatient}
	_, err := f.svc.Book(context.Background(), actor, req)
	if !errors.Is(err, appointment.ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
}

func TestBook_IdempotentReplay(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	req := f.request()
	req.Nonce = "retry-abc"

	first, err := f.svc.Book(ctx, admin(), req)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	replayed, err := f.svc.Book(ctx, admin(), req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if replayed.ID != first.ID {
		t.Fatalf("replay must return the original appointment, got %s and %s", first.ID, replayed.ID)
	}
	if f.appts.count() != 1 {
		t.Fatalf("expected exactly one appointment, got %d", f.appts.count())
	}
}

func TestBook_DuplicateInFlight(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	req := f.request()
	req.Nonce = "inflight-1"

	// A pending claim with no fulfilled value means the first request is
	// still running.
	key := req.PatientID.String() + ":" + req.DoctorID.String() + ":" + bookDate.Format("2006-01-02") + ":" + req.Nonce
	if _, _, err := f.idem.Claim(ctx, key); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Book(ctx, admin(), req)
	if !errors.Is(err, ErrDuplicateInFlight) {
		t.Fatalf("expected ErrDuplicateInFlight, got %v", err)
	}
}

func TestBook_FailedCreateReleasesKeyAndBurnsNumber(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	f.appts.failCreate = errors.New("insert failed")

	req := f.request()
	req.Nonce = "retry-xyz"
	if _, err := f.svc.Book(ctx, admin(), req); err == nil {
		t.Fatal("expected booking to fail")
	}

	// The key is free again, so the retry succeeds and gets the next number:
	// the burned one is never reused.
	f.appts.failCreate = nil
	appt, err := f.svc.Book(ctx, admin(), req)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if appt.QueueNumber != "2" {
		t.Fatalf("expected number 2 after burning 1, got %q", appt.QueueNumber)
	}
}

func TestBook_RetriesOnceOnPartitionBusy(t *testing.T) {
	// One refused acquisition is absorbed by the transparent retry.
	f := newFixture(t, &flakyLocker{failures: 1})

	appt, err := f.svc.Book(context.Background(), admin(), f.request())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if appt.QueueNumber != "1" {
		t.Fatalf("got number %q, want 1", appt.QueueNumber)
	}
}

func TestBook_PartitionBusyAfterRetry(t *testing.T) {
	// Two refusals exhaust the single retry and surface to the caller.
	f := newFixture(t, &flakyLocker{failures: 2})

	_, err := f.svc.Book(context.Background(), admin(), f.request())
	if !errors.Is(err, queue.ErrPartitionBusy) {
		t.Fatalf("expected ErrPartitionBusy, got %v", err)
	}
}

func TestReschedule_MovesToNewDateAndRetiresOldEntry(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	oldEntryID := appt.QueueEntryID

	// Confirm it first; reschedule must drop it back to scheduled.
	if _, err := f.svc.life.Transition(ctx, admin(), appt.ID, appointment.StatusConfirmed, nil, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	newDate := bookDate.AddDate(0, 0, 7)
	moved, err := f.svc.Reschedule(ctx, admin(), appt.ID, newDate)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if !moved.Date.Equal(newDate) {
		t.Errorf("date: got %s, want %s", moved.Date, newDate)
	}
	if moved.Status != appointment.StatusScheduled {
		t.Errorf("confirmed appointment should reset to scheduled, got %s", moved.Status)
	}
	if moved.QueueNumber != "1" {
		t.Errorf("new partition should hand out number 1, got %q", moved.QueueNumber)
	}
	if moved.QueueEntryID == oldEntryID {
		t.Error("reschedule must allocate a fresh queue entry")
	}

	old, err := f.queueRepo.GetEntry(ctx, oldEntryID)
	if err != nil {
		t.Fatalf("old entry: %v", err)
	}
	if !old.Cancelled {
		t.Error("old entry should be flagged cancelled")
	}
	if old.Ordinal != 1 {
		t.Errorf("old entry keeps its number, got %d", old.Ordinal)
	}
}

func TestReschedule_OldPartitionNeverRenumbers(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	first, _ := f.svc.Book(ctx, admin(), f.request())
	second, _ := f.svc.Book(ctx, admin(), f.request())
	if first == nil || second == nil {
		t.Fatal("setup bookings failed")
	}

	if _, err := f.svc.Reschedule(ctx, admin(), first.ID, bookDate.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	// The second booking keeps 2; the next arrival gets 3, not the hole.
	entry, err := f.queueRepo.GetEntry(ctx, second.QueueEntryID)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Ordinal != 2 {
		t.Fatalf("surviving entry renumbered to %d", entry.Ordinal)
	}

	third, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatal(err)
	}
	if third.QueueNumber != "3" {
		t.Fatalf("next arrival got %q, want 3", third.QueueNumber)
	}
}

func TestReschedule_CancelDuringRescheduleWins(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	newDate := bookDate.AddDate(0, 0, 7)

	// The cancel lands after reschedule's status check but before the move.
	f.profiles.onGet = func() {
		f.profiles.onGet = nil
		if _, err := f.svc.Cancel(ctx, admin(), appt.ID, "walked in elsewhere"); err != nil {
			t.Fatalf("cancel: %v", err)
		}
	}

	_, err = f.svc.Reschedule(ctx, admin(), appt.ID, newDate)
	if !errors.Is(err, appointment.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	stored, err := f.appts.GetByID(ctx, appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != appointment.StatusCancelled {
		t.Fatalf("cancelled appointment resurrected as %s", stored.Status)
	}
	if !stored.Date.Equal(bookDate) {
		t.Fatalf("cancelled appointment moved to %s", stored.Date)
	}

	// The number allocated for the doomed move is burned, not left live.
	regular, emergency, err := f.queueRepo.CountLive(ctx, f.doctorID, newDate)
	if err != nil {
		t.Fatal(err)
	}
	if regular+emergency != 0 {
		t.Fatalf("new partition should hold no live entries, got %d", regular+emergency)
	}
}

func TestReschedule_SameDateIsNoChange(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = f.svc.Reschedule(ctx, admin(), appt.ID, bookDate)
	if !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}
}

func TestReschedule_MustBeFuture(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Today is not strictly in the future.
	_, err = f.svc.Reschedule(ctx, admin(), appt.ID, clock)
	if !errors.Is(err, ErrNotFuture) {
		t.Fatalf("expected ErrNotFuture, got %v", err)
	}
}

func TestReschedule_TerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, admin(), appt.ID, "changed plans"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err = f.svc.Reschedule(ctx, admin(), appt.ID, bookDate.AddDate(0, 0, 7))
	if !errors.Is(err, ErrNotReschedulable) {
		t.Fatalf("expected ErrNotReschedulable, got %v", err)
	}
}

func TestCancel_RecordsReasonAndFlagsEntry(t *testing.T) {
	f := newFixture(t, noopLocker{})
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, admin(), f.request())
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, admin(), appt.ID, "feeling better")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if cancelled.Status != appointment.StatusCancelled {
		t.Fatalf("status: got %s", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "feeling better" {
		t.Fatalf("reason not recorded: %v", cancelled.CancelReason)
	}

	entry, err := f.queueRepo.GetEntry(ctx, appt.QueueEntryID)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Cancelled {
		t.Error("queue entry should be flagged cancelled")
	}
	if entry.Served {
		t.Error("cancelled entry must not count as served")
	}
}
