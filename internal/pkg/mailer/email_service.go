package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendBookingNotice(toEmail string, notice BookingNotice) error
}

// BookingNotice is the content of the e-mail a star receives for a new paid booking.
type BookingNotice struct {
	StarName string
	FanName  string
	Date     string
	Slot     string
	Price    float64
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendBookingNotice(toEmail string, notice BookingNotice) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("New booking on %s", notice.Date))
	m.SetBody("text/html", renderBookingNotice(notice))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send booking notice to %s: %w", toEmail, err)
	}
	return nil
}

func renderBookingNotice(n BookingNotice) string {
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p><strong>%s</strong> booked a call with you.</p>
			<p>Date: %s<br/>Time: %s<br/>Price: %.2f coins</p>
			<p>Open the app to approve or reject the request.</p>
		</div>
	`, html.EscapeString(n.StarName), html.EscapeString(n.FanName), html.EscapeString(n.Date), html.EscapeString(n.Slot), n.Price)
}
