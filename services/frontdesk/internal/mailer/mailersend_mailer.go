package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	return &MailerSendClient{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
}

func (m *MailerSendClient) SendReservationConfirmation(ctx context.Context, msg ReservationConfirmation) error {
	body, text := renderConfirmation(msg)

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.ToEmail}})
	message.SetSubject(msg.Subject())
	message.SetHTML(body)
	message.SetText(text)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := m.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send email via MailerSend: %w", err)
	}
	return nil
}

// renderConfirmation returns the HTML and plain-text bodies. Names come from guest input and are escaped.
func renderConfirmation(msg ReservationConfirmation) (string, string) {
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Hi %s,</p>
		<p>Your reservation is recorded. Please present this code at the front desk:</p>
		<p style="font-size: 22px; letter-spacing: 3px;"><strong>%s</strong></p>
		<table>
			<tr><td>Room</td><td>%s (%s)</td></tr>
			<tr><td>Check-in</td><td>%s</td></tr>
			<tr><td>Check-out</td><td>%s</td></tr>
			<tr><td>Nights</td><td>%d</td></tr>
			<tr><td>Guests</td><td>%d</td></tr>
			<tr><td>Total</td><td>%s</td></tr>
			<tr><td>Paid</td><td>%s</td></tr>
		</table>
	`, html.EscapeString(msg.HotelName), html.EscapeString(msg.ToName), msg.Code, html.EscapeString(msg.RoomNumber), html.EscapeString(msg.RoomType),
		msg.CheckIn.Format("Mon 2 Jan 2006"), msg.CheckOut.Format("Mon 2 Jan 2006"),
		msg.Nights, msg.GuestCount, msg.Total.StringFixed(2), msg.Downpayment.StringFixed(2))

	text := fmt.Sprintf("Reservation code: %s\nRoom %s, %s to %s, total %s",
		msg.Code, msg.RoomNumber,
		msg.CheckIn.Format("2006-01-02"), msg.CheckOut.Format("2006-01-02"), msg.Total.StringFixed(2))
	return body, text
}
