package noop

import (
	"context"

	"github.com/rs/zerolog"

	"assaylab/internal/port"
)

type noopSender struct {
	logger zerolog.Logger
}

// NewNoopSender creates a ReportMailer that only logs what it would have sent.
func NewNoopSender(logger zerolog.Logger) port.ReportMailer {
	return &noopSender{logger: logger}
}

func (s *noopSender) SendReport(_ context.Context, msg port.ReportEmail) error {
	event := s.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject)
	if msg.File != nil {
		event = event.Str("filename", msg.File.Filename).Int("bytes", len(msg.File.Data))
	}
	event.Msg("[NOOP EMAIL] report delivery skipped")
	return nil
}
