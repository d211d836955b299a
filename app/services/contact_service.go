package services

import (
	"net/mail"

	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/models"
)

// ContactService forwards contact form messages to the support inbox.
type ContactService struct {
	mailer Mailer
	to     mail.Address
}

func NewContactService(mailer Mailer, supportEmail string) *ContactService {
	return &ContactService{mailer: mailer, to: mail.Address{Address: supportEmail}}
}

// Send validates the form and queues the email. Replies go to the sender.
func (s *ContactService) Send(form *models.ContactForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	s.mailer.SendMessages(&tvmail.Message{
		To:       []mail.Address{s.to},
		ReplyTo:  &mail.Address{Name: form.Name, Address: form.Email},
		Subject:  "Contact: " + form.Subject,
		Template: "contact",
		Data:     form,
	})
	return nil
}
