package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	sent []MailMessage
	err  error
}

func (s *stubSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, MailMessage{To: to, Subject: subject, Body: body})
	return nil
}

func TestMailProcessor_DeliversEncodedMail(t *testing.T) {
	sender := &stubSender{}
	p := NewMailProcessor(sender, zerolog.Nop())

	values, err := encodeMail(MailMessage{To: "a@example.com", Subject: "Hi", Body: "Your code is 123456"})
	require.NoError(t, err)

	require.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: values}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	assert.Equal(t, "Your code is 123456", sender.sent[0].Body)
}

func TestMailProcessor_DropsMalformed(t *testing.T) {
	sender := &stubSender{}
	p := NewMailProcessor(sender, zerolog.Nop())

	cases := []map[string]interface{}{
		{},
		{payloadField: "{not json"},
		{payloadField: `{"subject":"no recipient"}`},
	}
	for _, values := range cases {
		assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: values}))
	}
	assert.Empty(t, sender.sent)
}

func TestMailProcessor_SendFailureKeepsPending(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	p := NewMailProcessor(sender, zerolog.Nop())

	values, err := encodeMail(MailMessage{To: "a@example.com"})
	require.NoError(t, err)

	err = p.Handle(context.Background(), redis.XMessage{ID: "7-0", Values: values})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "7-0")
}
