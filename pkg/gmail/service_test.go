package gmail

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	date := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	raw, err := Compose(Message{
		FromName: "LifeOS",
		From:     "bot@example.com",
		To:       []string{"owner@example.com"},
		Subject:  "Morning brief – Tuesday",
		Body:     "EVENTS TODAY\n- Dentist at 3:00 PM\n",
	}, date)
	require.NoError(t, err)

	r, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Morning brief – Tuesday", subject)

	to, err := r.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "owner@example.com", to[0].Address)

	from, err := r.Header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, "LifeOS", from[0].Name)

	part, err := r.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Dentist at 3:00 PM")
}

func TestCompose_NoRecipients(t *testing.T) {
	_, err := Compose(Message{Subject: "x"}, time.Now())
	assert.Error(t, err)
}

func TestNewService_RequiresCredentials(t *testing.T) {
	_, err := NewService(context.Background(), "", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: []string{"a@example.com"}}))
}
