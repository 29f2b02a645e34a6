// Package relay persists direct messages between participants and pushes
// the matching live events to whoever is connected.
package relay

import (
	"context"
	"errors"
	"hash/maphash"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

const meterName = "github.com/Alijeyrad/internhub_backend/internal/service/relay"

// MarkAllReadLimit caps the messages echoed back by MarkAllRead.
const MarkAllReadLimit = 50

// Live events emitted by the relay.
const (
	EventNewMessage    = "new_message"
	EventMessageNew    = "message:new"
	EventMessageSent   = "message_sent"
	EventMessageRead   = "message:read"
	EventUserTyping    = "user_typing"
	EventMessageFailed = "message_error"
)

// Publisher routes an event to every connection of a user, on whichever
// node holds it.
type Publisher interface {
	Publish(ctx context.Context, userID int64, ev presence.Event) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SendRequest struct {
	SenderID    int64
	ReceiverID  int64
	MessageType string
	Text        *string
	File        *repo.FileMeta
}

type MarkAllResult struct {
	Count    int             `json:"count"`
	Messages []*repo.Message `json:"messages"`
}

type UnreadSummary struct {
	Total    int                `json:"total"`
	BySender []repo.SenderCount `json:"bySender"`
}

type TypingEvent struct {
	SenderID int64 `json:"senderId"`
	IsTyping bool  `json:"isTyping"`
}

type ReadEvent struct {
	MessageID  int64      `json:"messageId"`
	ReaderID   int64      `json:"readerId"`
	ReadAt     *time.Time `json:"readAt"`
	SenderID   int64      `json:"senderId"`
	ReceiverID int64      `json:"receiverId"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Send(ctx context.Context, req SendRequest) (*repo.Message, error)
	Conversation(ctx context.Context, userA, userB int64) ([]*repo.Message, error)
	MarkRead(ctx context.Context, messageID, requesterID int64) (*repo.Message, error)
	MarkAllRead(ctx context.Context, receiverID int64) (*MarkAllResult, error)
	UnreadSummary(ctx context.Context, receiverID int64) (*UnreadSummary, error)
	UnreadCount(ctx context.Context, receiverID int64) (int, error)
	Typing(ctx context.Context, senderID, receiverID int64, isTyping bool) error
	// Notify pushes an arbitrary event to a user. Best effort.
	Notify(ctx context.Context, userID int64, event string, payload any) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

const stripes = 64

type relayService struct {
	db  repo.MessageStore
	pub Publisher

	seed  maphash.Seed
	pairs [stripes]sync.Mutex

	sent      metric.Int64Counter
	published metric.Int64Counter
	failed    metric.Int64Counter
}

func New(db repo.MessageStore, pub Publisher) Service {
	meter := otel.Meter(meterName)
	sent, _ := meter.Int64Counter("relay_messages_sent_total",
		metric.WithDescription("Messages persisted by the relay"))
	published, _ := meter.Int64Counter("relay_events_published_total",
		metric.WithDescription("Live events handed to the bus"))
	failed, _ := meter.Int64Counter("relay_publish_errors_total",
		metric.WithDescription("Live events the bus rejected"))

	return &relayService{
		db:        db,
		pub:       pub,
		seed:      maphash.MakeSeed(),
		sent:      sent,
		published: published,
		failed:    failed,
	}
}

// pairLock serializes persist+publish per unordered pair so receivers see a
// conversation's events in storage order.
func (s *relayService) pairLock(a, b int64) *sync.Mutex {
	if a > b {
		a, b = b, a
	}
	var h maphash.Hash
	h.SetSeed(s.seed)
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(a >> (8 * i))
		buf[8+i] = byte(b >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return &s.pairs[h.Sum64()%stripes]
}

func (s *relayService) Send(ctx context.Context, req SendRequest) (*repo.Message, error) {
	if req.SenderID == req.ReceiverID {
		return nil, ErrSelfMessage
	}

	hasText := req.Text != nil && strings.TrimSpace(*req.Text) != ""
	hasFile := req.File != nil && strings.TrimSpace(req.File.URL) != ""
	if !hasText && !hasFile {
		return nil, ErrEmptyMessage
	}

	msgType := repo.DeriveMessageType(hasText, hasFile)
	if strings.TrimSpace(req.MessageType) != "" {
		t, ok := repo.ParseMessageType(req.MessageType)
		if !ok {
			return nil, ErrInvalidType
		}
		// An explicit type must describe the content actually sent.
		if t != msgType {
			return nil, ErrTypeMismatch
		}
	}

	if _, err := s.db.FindUser(ctx, req.SenderID); err != nil {
		return nil, lookupErr(err, ErrSenderNotFound, "load sender")
	}
	if _, err := s.db.FindUser(ctx, req.ReceiverID); err != nil {
		return nil, lookupErr(err, ErrReceiverAbsent, "load receiver")
	}

	in := &repo.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Type:       msgType,
	}
	if hasText {
		in.Text = req.Text
	}
	if hasFile {
		in.File = req.File
	}

	mu := s.pairLock(req.SenderID, req.ReceiverID)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.db.CreateMessage(ctx, in)
	if err != nil {
		return nil, repo.Wrap("save message", err)
	}
	s.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(m.Type))))

	s.publish(ctx, m.ReceiverID, presence.Event{Name: EventNewMessage, Data: m})
	s.publish(ctx, m.ReceiverID, presence.Event{Name: EventMessageNew, Data: m})
	s.publish(ctx, m.SenderID, presence.Event{Name: EventMessageSent, Data: m})
	return m, nil
}

func (s *relayService) Conversation(ctx context.Context, userA, userB int64) ([]*repo.Message, error) {
	if _, err := s.db.FindUser(ctx, userA); err != nil {
		return nil, lookupErr(err, ErrUserNotFound, "load user")
	}
	if _, err := s.db.FindUser(ctx, userB); err != nil {
		return nil, lookupErr(err, ErrUserNotFound, "load user")
	}

	msgs, err := s.db.FindMessagesBetween(ctx, userA, userB)
	if err != nil {
		return nil, repo.Wrap("load conversation", err)
	}
	if msgs == nil {
		msgs = []*repo.Message{}
	}
	return msgs, nil
}

func (s *relayService) MarkRead(ctx context.Context, messageID, requesterID int64) (*repo.Message, error) {
	m, err := s.db.FindMessage(ctx, messageID)
	if err != nil {
		return nil, lookupErr(err, ErrMessageMissing, "load message")
	}
	if m.ReceiverID != requesterID {
		return nil, ErrNotReceiver
	}
	if m.IsRead {
		return m, nil
	}

	m, flipped, err := s.db.UpdateMessageRead(ctx, messageID)
	if err != nil {
		return nil, lookupErr(err, ErrMessageMissing, "mark message read")
	}
	if flipped {
		s.publish(ctx, m.SenderID, presence.Event{Name: EventMessageRead, Data: ReadEvent{
			MessageID:  m.ID,
			ReaderID:   requesterID,
			ReadAt:     m.ReadAt,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
		}})
	}
	return m, nil
}

func (s *relayService) MarkAllRead(ctx context.Context, receiverID int64) (*MarkAllResult, error) {
	if _, err := s.db.FindUser(ctx, receiverID); err != nil {
		return nil, lookupErr(err, ErrUserNotFound, "load user")
	}

	n, msgs, err := s.db.BulkUpdateMessagesRead(ctx, receiverID, MarkAllReadLimit)
	if err != nil {
		return nil, repo.Wrap("mark all read", err)
	}
	if msgs == nil {
		msgs = []*repo.Message{}
	}
	return &MarkAllResult{Count: n, Messages: msgs}, nil
}

func (s *relayService) UnreadSummary(ctx context.Context, receiverID int64) (*UnreadSummary, error) {
	if _, err := s.db.FindUser(ctx, receiverID); err != nil {
		return nil, lookupErr(err, ErrUserNotFound, "load user")
	}

	groups, err := s.db.GroupUnreadBySender(ctx, receiverID)
	if err != nil {
		return nil, repo.Wrap("group unread", err)
	}

	// Total comes from the same snapshot as the groups so the two agree.
	out := &UnreadSummary{BySender: groups}
	if out.BySender == nil {
		out.BySender = []repo.SenderCount{}
	}
	for _, g := range groups {
		out.Total += g.Count
	}
	return out, nil
}

func (s *relayService) UnreadCount(ctx context.Context, receiverID int64) (int, error) {
	if _, err := s.db.FindUser(ctx, receiverID); err != nil {
		return 0, lookupErr(err, ErrUserNotFound, "load user")
	}
	n, err := s.db.CountUnreadForUser(ctx, receiverID)
	if err != nil {
		return 0, repo.Wrap("count unread", err)
	}
	return n, nil
}

func (s *relayService) Typing(ctx context.Context, senderID, receiverID int64, isTyping bool) error {
	if senderID == receiverID {
		return ErrSelfMessage
	}
	s.publish(ctx, receiverID, presence.Event{Name: EventUserTyping, Data: TypingEvent{
		SenderID: senderID,
		IsTyping: isTyping,
	}})
	return nil
}

func (s *relayService) Notify(ctx context.Context, userID int64, event string, payload any) error {
	if strings.TrimSpace(event) == "" {
		return ErrEventRequired
	}
	return s.pub.Publish(ctx, userID, presence.Event{Name: event, Data: payload})
}

// publish never fails the caller; the message is already durable.
func (s *relayService) publish(ctx context.Context, userID int64, ev presence.Event) {
	if err := s.pub.Publish(ctx, userID, ev); err != nil {
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("event", ev.Name)))
		slog.Warn("relay: publish failed", "user_id", userID, "event", ev.Name, "error", err)
		return
	}
	s.published.Add(ctx, 1, metric.WithAttributes(attribute.String("event", ev.Name)))
}

func lookupErr(err, sentinel error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if repo.IsNotFound(err) {
		return sentinel
	}
	return repo.Wrap(op, err)
}
