package domain

import "net/mail"

// EmailMessage is a plain text mail handed to the mail sender.
type EmailMessage struct {
	To      []mail.Address
	Subject string
	Text    string
}
