package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/internhub_backend/internal/bus"
	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/internal/repo/memrepo"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type inbox struct {
	id  string
	mu  sync.Mutex
	got []presence.Event
}

func (c *inbox) ID() string { return c.id }

func (c *inbox) Send(ev presence.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, ev)
	return true
}

func (c *inbox) named(name string) []presence.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []presence.Event
	for _, ev := range c.got {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, int64, presence.Event) error {
	return errors.New("bus down")
}

type fixture struct {
	db      *memrepo.Store
	reg     *presence.Registry
	svc     Service
	company repo.User
	student repo.User
	advisor repo.User
	toComp  *inbox
	toStud  *inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: memrepo.New(), reg: presence.NewRegistry()}
	f.company = f.db.AddUser(repo.User{Role: repo.RoleCompany, Name: "Acme"})
	f.student = f.db.AddUser(repo.User{Role: repo.RoleStudent, Name: "Sara"})
	f.advisor = f.db.AddUser(repo.User{Role: repo.RoleAdvisor, Name: "Dr. Amini"})
	f.toComp = &inbox{id: "company"}
	f.toStud = &inbox{id: "student"}
	f.reg.Join(f.company.ID, f.toComp)
	f.reg.Join(f.student.ID, f.toStud)
	f.svc = New(f.db, bus.NewLocal(f.reg))
	return f
}

func text(s string) *string { return &s }

func TestSend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.svc.Send(ctx, SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("hello")})
	require.NoError(t, err)
	assert.Equal(t, repo.MessageText, m.Type)
	assert.False(t, m.IsRead)

	assert.Len(t, f.toStud.named(EventNewMessage), 1)
	assert.Len(t, f.toStud.named(EventMessageNew), 1)
	assert.Len(t, f.toComp.named(EventMessageSent), 1)
	assert.Empty(t, f.toComp.named(EventNewMessage))

	history, err := f.svc.Conversation(ctx, f.student.ID, f.company.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, m.ID, history[0].ID)
}

func TestSend_DerivesType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := &repo.FileMeta{URL: "https://cdn.example/cv.pdf", Name: "cv.pdf", MimeType: "application/pdf", Size: 1024}

	m, err := f.svc.Send(ctx, SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, File: file})
	require.NoError(t, err)
	assert.Equal(t, repo.MessageFile, m.Type)

	m, err = f.svc.Send(ctx, SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, File: file, Text: text("my cv")})
	require.NoError(t, err)
	assert.Equal(t, repo.MessageTextAndFile, m.Type)

	// A matching explicit type is accepted, in any case.
	m, err = f.svc.Send(ctx, SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, File: file, MessageType: "file"})
	require.NoError(t, err)
	assert.Equal(t, repo.MessageFile, m.Type)
}

func TestSend_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cv := &repo.FileMeta{URL: "https://cdn.example/cv.pdf", Name: "cv.pdf"}

	tests := []struct {
		name string
		req  SendRequest
		want error
	}{
		{"self", SendRequest{SenderID: f.student.ID, ReceiverID: f.student.ID, Text: text("me")}, ErrSelfMessage},
		{"empty", SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, Text: text("   ")}, ErrEmptyMessage},
		{"bad type", SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, Text: text("x"), MessageType: "VIDEO"}, ErrInvalidType},
		{"file type without file", SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, Text: text("hi"), MessageType: "FILE"}, ErrTypeMismatch},
		{"text type with file", SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, Text: text("hi"), File: cv, MessageType: "TEXT"}, ErrTypeMismatch},
		{"both type with text only", SendRequest{SenderID: f.student.ID, ReceiverID: f.company.ID, Text: text("hi"), MessageType: "TEXT_AND_FILE"}, ErrTypeMismatch},
		{"no sender", SendRequest{SenderID: 999, ReceiverID: f.company.ID, Text: text("x")}, ErrSenderNotFound},
		{"no receiver", SendRequest{SenderID: f.student.ID, ReceiverID: 999, Text: text("x")}, ErrReceiverAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Send(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	history, err := f.svc.Conversation(ctx, f.student.ID, f.company.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSend_PublishFailureKeepsMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := New(f.db, failingPublisher{})

	m, err := svc.Send(ctx, SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("durable")})
	require.NoError(t, err)

	stored, err := f.db.FindMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable", *stored.Text)
}

func TestSend_ConcurrentKeepsPairOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 40
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			from, to := f.company.ID, f.student.ID
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := f.svc.Send(ctx, SendRequest{SenderID: from, ReceiverID: to, Text: text(fmt.Sprint(i))})
			return err
		})
	}
	require.NoError(t, g.Wait())

	history, err := f.svc.Conversation(ctx, f.company.ID, f.student.ID)
	require.NoError(t, err)
	require.Len(t, history, n)

	// The student's live feed follows storage order.
	events := f.toStud.named(EventNewMessage)
	require.Len(t, events, n/2)
	for i := 1; i < len(events); i++ {
		prev := events[i-1].Data.(*repo.Message)
		cur := events[i].Data.(*repo.Message)
		assert.Less(t, prev.ID, cur.ID)
	}
}

func TestConversation_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Conversation(context.Background(), f.student.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.svc.Send(ctx, SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("read me")})
	require.NoError(t, err)

	_, err = f.svc.MarkRead(ctx, 999, f.student.ID)
	assert.ErrorIs(t, err, ErrMessageMissing)

	_, err = f.svc.MarkRead(ctx, m.ID, f.company.ID)
	assert.ErrorIs(t, err, ErrNotReceiver)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	read, err := f.svc.MarkRead(ctx, m.ID, f.student.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)
	assert.Len(t, f.toComp.named(EventMessageRead), 1)

	again, err := f.svc.MarkRead(ctx, m.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, *read.ReadAt, *again.ReadAt)
	assert.Len(t, f.toComp.named(EventMessageRead), 1)
}

func TestMarkAllReadAndUnread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Send(ctx, SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("c")})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := f.svc.Send(ctx, SendRequest{SenderID: f.advisor.ID, ReceiverID: f.student.ID, Text: text("a")})
		require.NoError(t, err)
	}

	sum, err := f.svc.UnreadSummary(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Total)
	require.Len(t, sum.BySender, 2)
	total := 0
	for _, g := range sum.BySender {
		total += g.Count
	}
	assert.Equal(t, sum.Total, total)

	n, err := f.svc.UnreadCount(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	res, err := f.svc.MarkAllRead(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.Len(t, res.Messages, 5)

	sum, err = f.svc.UnreadSummary(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.Empty(t, sum.BySender)

	res, err = f.svc.MarkAllRead(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Zero(t, res.Count)

	_, err = f.svc.MarkAllRead(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMarkAllRead_CapsEcho(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < MarkAllReadLimit+5; i++ {
		_, err := f.svc.Send(ctx, SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("x")})
		require.NoError(t, err)
	}

	res, err := f.svc.MarkAllRead(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, MarkAllReadLimit+5, res.Count)
	require.Len(t, res.Messages, MarkAllReadLimit)
	for i := 1; i < len(res.Messages); i++ {
		assert.Less(t, res.Messages[i-1].ID, res.Messages[i].ID)
	}
}

func TestTypingAndNotify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Typing(ctx, f.company.ID, f.student.ID, true))
	evs := f.toStud.named(EventUserTyping)
	require.Len(t, evs, 1)
	assert.Equal(t, TypingEvent{SenderID: f.company.ID, IsTyping: true}, evs[0].Data)

	require.NoError(t, f.svc.Notify(ctx, f.student.ID, "engagement:status", map[string]string{"status": "ACCEPTED"}))
	assert.Len(t, f.toStud.named("engagement:status"), 1)

	assert.ErrorIs(t, f.svc.Notify(ctx, f.student.ID, "", nil), ErrEventRequired)

	// Offline users are silently skipped.
	assert.NoError(t, f.svc.Notify(ctx, f.advisor.ID, "engagement:status", nil))
}

func TestUnavailableStore(t *testing.T) {
	f := newFixture(t)
	f.db.SetFailure(repo.ErrUnavailable)

	_, err := f.svc.Send(context.Background(), SendRequest{SenderID: f.company.ID, ReceiverID: f.student.ID, Text: text("x")})
	require.Error(t, err)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}
