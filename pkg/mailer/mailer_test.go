package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWithoutHost(t *testing.T) {
	t.Parallel()
	require.Nil(t, New(Config{}))
	require.NotNil(t, New(Config{Host: "smtp.example.com", Port: 587, Username: "u"}))
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	msg := NewMessage("no-reply@loyalty.local", "ann@example.com", "Levels unlocked", "You can now earn up to level 15.")
	require.Equal(t, []string{"ann@example.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Subject: Levels unlocked")
	require.Contains(t, buf.String(), "You can now earn up to level 15.")
}
