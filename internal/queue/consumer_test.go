package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	to, subject, body string
	calls             int
}

func (r *recordingNotifier) Notify(to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	r.calls++
	return nil
}

func TestHandleMessageDispatchesToNotifier(t *testing.T) {
	n := &recordingNotifier{}
	body := []byte(`{"email":"alice@example.com","username":"alice","confirm_url":"http://localhost:8080/api/auth/confirmed_email/tok"}`)

	require.NoError(t, handleMessage(body, n))
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "alice@example.com", n.to)
	assert.Contains(t, n.body, "alice")
	assert.Contains(t, n.body, "/api/auth/confirmed_email/tok")
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	n := &recordingNotifier{}
	assert.Error(t, handleMessage([]byte("{not json"), n))
	assert.Zero(t, n.calls)
}
