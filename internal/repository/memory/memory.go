// Package memory is an in-process implementation of the repository
// interfaces with the same atomicity guarantees as the SQL store, used by
// service tests and local development without a database.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
)

// Store holds all entities behind one mutex so multi-step operations are
// atomic, matching the transactional behavior of the SQL repositories.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*model.User
	centers       map[uuid.UUID]*model.ServiceCenter
	appointments  map[uuid.UUID]*model.Appointment
	audits        []*model.AuditLog
	notifications map[uuid.UUID]*model.Notification
	notifOrder    []uuid.UUID
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*model.User),
		centers:       make(map[uuid.UUID]*model.ServiceCenter),
		appointments:  make(map[uuid.UUID]*model.Appointment),
		notifications: make(map[uuid.UUID]*model.Notification),
	}
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Centers() *CenterRepo             { return &CenterRepo{s} }
func (s *Store) Appointments() *AppointmentRepo   { return &AppointmentRepo{s} }
func (s *Store) Audits() *AuditRepo               { return &AuditRepo{s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }

// AuditCount reports recorded audit entries, for assertions.
func (s *Store) AuditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits)
}

// AuditEntries returns a snapshot of the audit trail.
func (s *Store) AuditEntries() []*model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.AuditLog, len(s.audits))
	for i, e := range s.audits {
		cp := *e
		out[i] = &cp
	}
	return out
}

// SeedCenter inserts a center as-is, keeping its id if set.
func (s *Store) SeedCenter(center *model.ServiceCenter) *model.ServiceCenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if center.ID == uuid.Nil {
		center.ID = uuid.New()
	}
	cp := *center
	s.centers[center.ID] = &cp
	return center
}

// SeedUser inserts a user as-is, keeping its id if set.
func (s *Store) SeedUser(user *model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	s.users[user.ID] = &cp
	return user
}

// SeedAppointment inserts an appointment as-is, keeping its id if set.
func (s *Store) SeedAppointment(appt *model.Appointment) *model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	cp := *appt
	s.appointments[appt.ID] = &cp
	return appt
}

func (s *Store) recordAudit(entry *model.AuditLog) {
	if entry == nil {
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	s.audits = append(s.audits, &cp)
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	cp := *a
	if a.QueuePosition != nil {
		v := *a.QueuePosition
		cp.QueuePosition = &v
	}
	return &cp
}
