package center

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

const slotInterval = 30 * time.Minute

// AvailableSlots returns the bookable times for a center on a date as
// "HH:MM" strings. Slots run every 30 minutes from opening to closing
// time inclusive; already-booked times are removed, and for today only
// times strictly after the current clock remain. An empty slice is a
// valid result, not an error.
func (s *Service) AvailableSlots(ctx context.Context, centerID uuid.UUID, date string) ([]string, error) {
	center, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return nil, apperrors.BadRequest("date must be YYYY-MM-DD", err)
	}

	open, err := time.Parse(clockLayout, center.OpeningTime)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("invalid opening time on center %s: %w", center.Code, err))
	}
	close, err := time.Parse(clockLayout, center.ClosingTime)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("invalid closing time on center %s: %w", center.Code, err))
	}

	booked, err := s.appointments.ScheduledTimes(ctx, centerID, day)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}

	now := time.Now()
	today := day.Year() == now.Year() && day.YearDay() == now.YearDay()
	cutoff := now.Format(clockLayout)

	slots := []string{}
	for t := open; !t.After(close); t = t.Add(slotInterval) {
		slot := t.Format(clockLayout)
		if taken[slot] {
			continue
		}
		// HH:MM strings are zero padded, so lexical order is clock order.
		if today && slot <= cutoff {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
