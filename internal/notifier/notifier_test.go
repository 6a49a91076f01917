package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/digest"
)

type recordingSender struct {
	to, subject string
	calls       int
	err         error
}

func (r *recordingSender) Send(to, subject, htmlBody, plainBody string) error {
	r.calls++
	r.to, r.subject = to, subject
	return r.err
}

func TestSendReport(t *testing.T) {
	sender := &recordingSender{}
	n := New(sender, "me@example.com")

	sent, err := n.SendReport(&digest.Report{Subject: "s", UnreadCount: 0})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, sender.calls)

	sent, err = n.SendReport(&digest.Report{Subject: "3 unread", UnreadCount: 3})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, "me@example.com", sender.to)
	assert.Equal(t, "3 unread", sender.subject)

	sender.err = errors.New("smtp down")
	sent, err = n.SendReport(&digest.Report{UnreadCount: 1})
	assert.Error(t, err)
	assert.False(t, sent)
}

func TestNewFromConfig(t *testing.T) {
	n, err := NewFromConfig(config.EmailConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = NewFromConfig(config.EmailConfig{Enabled: true, Provider: "smtp"})
	assert.Error(t, err)

	_, err = NewFromConfig(config.EmailConfig{Enabled: true, Provider: "pigeon", ToAddr: "x@y"})
	assert.Error(t, err)

	n, err = NewFromConfig(config.EmailConfig{Enabled: true, Provider: "smtp", ToAddr: "x@y", SMTPHost: "localhost", SMTPPort: 25})
	require.NoError(t, err)
	assert.NotNil(t, n)
}
