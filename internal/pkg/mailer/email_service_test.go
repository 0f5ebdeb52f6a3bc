package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBookingNoticeEscapesNames(t *testing.T) {
	body := renderBookingNotice(BookingNotice{
		StarName: "Ava",
		FanName:  "<script>x</script>",
		Date:     "2030-01-15",
		Slot:     "09:00 - 10:00",
		Price:    12.5,
	})

	assert.Contains(t, body, "Hi Ava")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "12.50 coins")
}
