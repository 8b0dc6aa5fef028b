package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/diagnosis/pilgrim-quotes/pkg/config"
)

var ErrNoRecipient = errors.New("empty recipient email")

type templated struct {
	Sender
	brand string
}

// WithTemplates adds the marketplace notification messages on top of a plain Sender.
func WithTemplates(s Sender, brand string) Service {
	if strings.TrimSpace(brand) == "" {
		brand = "Pilgrim Quotes"
	}
	return &templated{Sender: s, brand: brand}
}

// New picks a transport from cfg: MailerSend when an API key is set, SMTP outside dev
// mode, and the logging mailer otherwise.
func New(cfg config.EmailConfig) Service {
	var s Sender
	switch {
	case cfg.MailerSendKey != "":
		s = NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	case !cfg.DevMode:
		s = NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		s = NewDevMailer()
	}
	return WithTemplates(s, cfg.FromName)
}

func (t *templated) SendOfferNotification(ctx context.Context, n OfferNotice) error {
	if strings.TrimSpace(n.CustomerEmail) == "" {
		return ErrNoRecipient
	}
	operator := n.OperatorName
	if operator == "" {
		operator = "An operator"
	}
	price := n.Currency + " " + strconv.FormatFloat(n.PricePerPerson, 'f', -1, 64)

	subject := fmt.Sprintf("New quote on your %s request", t.brand)
	text := fmt.Sprintf("Salaam %s,\n\n%s has quoted %s per person on request %s.\nSign in to compare it with your other offers.\n",
		greeting(n.CustomerName), operator, price, n.RequestID)
	body := fmt.Sprintf(`<p>Salaam %s,</p><p><b>%s</b> has quoted <b>%s</b> per person on request %s.</p><p>Sign in to compare it with your other offers.</p>`,
		html.EscapeString(greeting(n.CustomerName)), html.EscapeString(operator), html.EscapeString(price), html.EscapeString(n.RequestID))

	_, err := t.Send(ctx, n.CustomerEmail, n.CustomerName, subject, text, body)
	return err
}

func (t *templated) SendBookingIntentNotification(ctx context.Context, n BookingIntentNotice) error {
	if strings.TrimSpace(n.OperatorEmail) == "" {
		return ErrNoRecipient
	}
	customer := n.CustomerName
	if customer == "" {
		customer = "A customer"
	}

	subject := fmt.Sprintf("Booking request on %s", t.brand)
	text := fmt.Sprintf("Salaam %s,\n\n%s wants to book offer %s.\nReply to: %s\n",
		greeting(n.OperatorName), customer, n.OfferID, n.CustomerEmail)
	body := fmt.Sprintf(`<p>Salaam %s,</p><p><b>%s</b> wants to book offer %s.</p><p>Reply to: %s</p>`,
		html.EscapeString(greeting(n.OperatorName)), html.EscapeString(customer), html.EscapeString(n.OfferID), html.EscapeString(n.CustomerEmail))
	if n.Notes != "" {
		text += "\nNotes: " + n.Notes + "\n"
		body += "<p>Notes: " + html.EscapeString(n.Notes) + "</p>"
	}

	_, err := t.Send(ctx, n.OperatorEmail, n.OperatorName, subject, text, body)
	return err
}

func greeting(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
