package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/config"
)

func TestBuildLetterForwardedEmail(t *testing.T) {
	m := BuildLetterForwardedEmail(LetterForwardedData{
		AcceptanceID:   42,
		DepartmentName: "Computer Engineering",
		DepartmentMail: "ce@uni.example",
		StudentName:    "Sara",
		CompanyName:    "Acme <Labs>",
		Decision:       "ACCEPTED",
		LetterText:     "Welcome aboard",
	})

	require.Equal(t, []string{"ce@uni.example"}, m.To)
	assert.Equal(t, "InternHub: internship letter for Sara (accepted)", m.Subject)
	assert.Contains(t, m.TextBody, "Welcome aboard")
	assert.Contains(t, m.HTMLBody, "Acme &lt;Labs&gt;")
	assert.Equal(t, "42", m.Headers[HeaderAcceptanceID])

	msg, err := render("noreply@internhub.example", m)
	require.NoError(t, err)
	assert.Equal(t, []string{"ce@uni.example"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"42"}, msg.GetHeader(HeaderAcceptanceID))
}

func TestRenderRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		from string
		msg  Message
	}{
		{"no sender", "", Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"}},
		{"no recipient", "a@b.c", Message{To: []string{"  "}, Subject: "s", TextBody: "b"}},
		{"no subject", "a@b.c", Message{To: []string{"a@b.c"}, TextBody: "b"}},
		{"no body", "a@b.c", Message{To: []string{"a@b.c"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render(tt.from, tt.msg)
			var me *MessageError
			assert.ErrorAs(t, err, &me)
		})
	}
}

func TestSendDisabled(t *testing.T) {
	c, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Send(t.Context(), Message{}), ErrDisabled)
}

func TestNewRequiresHostWhenEnabled(t *testing.T) {
	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.EmailConfig{Enabled: true, From: " noreply@internhub.example "})
	assert.Equal(t, "noreply@internhub.example", cfg.From)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
