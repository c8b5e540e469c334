// Package mail holds the MailSender implementations.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
}

var _ portssvc.MailSender = (*sendgridSender)(nil)

// NewSendgridSender sends mail through the SendGrid v3 API.
func NewSendgridSender(key, appName, fromEmail string) portssvc.MailSender {
	return &sendgridSender{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		host:       sendgridHost,
	}
}

func (s *sendgridSender) prepare(msg domain.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (s *sendgridSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	if len(msg.To) == 0 {
		return nil
	}
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	// The client has no context support; stop waiting once ctx is done.
	var (
		status int
		body   string
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, reqErr := sendgrid.API(req)
		if reqErr != nil {
			err = reqErr
			return
		}
		status, body = res.StatusCode, res.Body
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sendgrid request abandoned: %w", ctx.Err())
	case <-done:
	}
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected mail with status %d: %s", status, body)
	}
	return nil
}
