package sms

import (
	"context"

	"github.com/smart-enid/booking-api/pkg/logger"
)

type Service interface {
	Send(ctx context.Context, phone string, message string) error
}

// logService is a stub gateway that logs outbound messages instead of
// sending them. TODO: integrate a real SMS provider once one is contracted.
type logService struct {
	logger *logger.Logger
}

func NewService(l *logger.Logger) Service {
	return &logService{logger: l}
}

func (s *logService) Send(_ context.Context, phone, message string) error {
	s.logger.Info("sms sent", "recipient", phone, "message", message)
	return nil
}
