package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMulticast(t *testing.T) {
	msg := BuildMulticast([]string{"a", "b"}, Notification{
		Title: "Reminder: Dentist",
		Body:  "Due at 3:00 PM",
		Data:  map[string]string{"item_id": "42"},
		Link:  "http://localhost:5173/items/42",
	})

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Reminder: Dentist", msg.Notification.Title)
	assert.Equal(t, "42", msg.Data["item_id"])
	require.NotNil(t, msg.Webpush.FCMOptions)
	assert.Equal(t, "http://localhost:5173/items/42", msg.Webpush.FCMOptions.Link)

	noLink := BuildMulticast([]string{"a"}, Notification{Title: "x"})
	assert.Nil(t, noLink.Webpush.FCMOptions)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "***", redact("short"))
	assert.Equal(t, "abcdefghijkl...", redact("abcdefghijklmnopqrstuvwxyz"))
}
