package providers

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("bot@example.com", "me@example.com", "Wątki", "<p>hi</p>", "hi")
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "From: bot@example.com\r\n")
	assert.Contains(t, s, "To: me@example.com\r\n")
	assert.Contains(t, s, "Subject: =?utf-8?q?")
	assert.Contains(t, s, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, s, "<p>hi</p>")
	assert.Less(t, strings.Index(s, "text/plain"), strings.Index(s, "text/html"))
}

func TestSend(t *testing.T) {
	s := NewSMTPSender("mail.example.com", 587, "user", "pass", "bot@example.com")

	var gotAddr string
	var gotTo []string
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotAuth = addr, to, a
		return nil
	}

	require.NoError(t, s.Send("me@example.com", "subj", "<p>x</p>", "x"))
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.NotNil(t, gotAuth)
}
