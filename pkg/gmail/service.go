package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by NewService without OAuth credentials
var ErrNotConfigured = errors.New("gmail is not configured")

// Message is a plain-text email
type Message struct {
	FromName string
	From     string
	To       []string
	Subject  string
	Body     string
}

// Mailer delivers digest emails
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Service struct {
	messages *gmail.UsersMessagesService
	now      func() time.Time
}

// NewService authenticates with a stored OAuth refresh token; the access
// token is refreshed on demand by the oauth2 token source.
func NewService(ctx context.Context, clientID, clientSecret, refreshToken string) (*Service, error) {
	if clientID == "" || refreshToken == "" {
		return nil, ErrNotConfigured
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, TokenType: "Bearer"})

	srv, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Service{messages: srv.Users.Messages, now: time.Now}, nil
}

func (s *Service) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(msg, s.now())
	if err != nil {
		return err
	}

	sent, err := s.messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}

	log.Info().Str("message_id", sent.Id).Str("subject", msg.Subject).Msg("[Gmail] Message sent")
	return nil
}

// Compose renders msg as an RFC 5322 message with a single text/plain part
func Compose(msg Message, date time.Time) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("message has no recipients")
	}

	var h mail.Header
	h.SetDate(date)
	h.SetSubject(msg.Subject)
	if msg.From != "" {
		h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.From}})
	}
	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, &mail.Address{Address: strings.TrimSpace(addr)})
	}
	h.SetAddressList("To", to)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Msg("[Gmail] Mail not configured, message logged\n" + msg.Body)
	return nil
}
