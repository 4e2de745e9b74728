package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/markjakearzadon/donation-gobackend/internal/i18n"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type sendFunc func(ctx context.Context, from string, to []string, msg []byte) error

// Mailer emails the donor a receipt once a donation is confirmed.
type Mailer struct {
	From string
	send sendFunc
}

func NewMailer(host, port, user, password, from string) *Mailer {
	addr := net.JoinHostPort(host, port)
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &Mailer{From: from, send: func(ctx context.Context, from string, to []string, msg []byte) error {
		return sendMail(ctx, addr, host, auth, from, to, msg)
	}}
}

func (m *Mailer) DonationConfirmed(ctx context.Context, s *services.Settlement) error {
	if s.Donor == nil || strings.TrimSpace(s.Donor.Email) == "" {
		return nil
	}
	return m.send(ctx, m.From, []string{s.Donor.Email}, receiptMessage(m.From, s))
}

func (m *Mailer) SubmissionReceived(context.Context, *models.BankTransferSubmission) error {
	return nil
}

func receiptMessage(from string, s *services.Settlement) []byte {
	d := s.Donation
	var body bytes.Buffer
	fmt.Fprintf(&body, "%s %s\r\n\r\n", i18n.Message(i18n.Arabic, "receipt_greeting"), d.DonorName)
	fmt.Fprintf(&body, "Reference: %s\r\n", d.GeideaRef)
	fmt.Fprintf(&body, "Amount: %s\r\n", d.Amount.StringFixed(2))
	fmt.Fprintf(&body, "Type: %s\r\n", d.Type)
	if s.Certificate != nil {
		fmt.Fprintf(&body, "Certificate: %s\r\n", s.Certificate.CertificateNumber)
	}
	if s.Invoice != nil {
		fmt.Fprintf(&body, "Invoice: %s\r\n", s.Invoice.InvoiceNumber)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", s.Donor.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", i18n.Message(i18n.Arabic, "receipt_subject")))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes()
}

// sendMail is smtp.SendMail with the dial bound to ctx.
func sendMail(ctx context.Context, addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(nil); err != nil {
			return err
		}
	}
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
