package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := toUTC(f.From)
	to := toUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	return from, to, normalizeEventType(f.Type), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
