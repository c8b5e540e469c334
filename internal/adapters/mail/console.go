package mail

import (
	"context"
	"log/slog"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
)

type consoleSender struct {
	logger *slog.Logger
}

var _ portssvc.MailSender = (*consoleSender)(nil)

// NewConsoleSender logs mails instead of sending them. Used in development.
func NewConsoleSender(logger *slog.Logger) portssvc.MailSender {
	return &consoleSender{logger: logger}
}

func (s *consoleSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	to := make([]string, len(msg.To))
	for i, a := range msg.To {
		to[i] = a.Address
	}
	s.logger.Info("Mail not sent, console mail driver",
		slog.Any("to", to),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}
