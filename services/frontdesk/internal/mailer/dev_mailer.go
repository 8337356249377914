package mailer

import (
	"context"

	"github.com/diagnosis/frontdesk/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendReservationConfirmation(ctx context.Context, msg ReservationConfirmation) error {
	logger.InfoContext(ctx, "[DEV MAIL] Reservation confirmation",
		"to", msg.ToEmail,
		"name", msg.ToName,
		"subject", msg.Subject(),
		"code", msg.Code,
		"room", msg.RoomNumber,
		"check_in", msg.CheckIn.Format("2006-01-02"),
		"check_out", msg.CheckOut.Format("2006-01-02"),
		"total", msg.Total.StringFixed(2),
	)
	return nil
}
