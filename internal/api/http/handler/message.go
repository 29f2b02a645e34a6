package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
	"github.com/Alijeyrad/internhub_backend/internal/service/upload"
	"github.com/Alijeyrad/internhub_backend/pkg/apperr"
)

var errSenderMismatch = apperr.New(apperr.Forbidden, "sender does not match the caller")

type MessageHandler struct {
	svc    relay.Service
	upload upload.Service
}

func NewMessageHandler(svc relay.Service, up upload.Service) *MessageHandler {
	return &MessageHandler{svc: svc, upload: up}
}

type sendBody struct {
	SenderID    int64   `json:"senderId" validate:"required,gt=0"`
	ReceiverID  int64   `json:"receiverId" validate:"required,gt=0"`
	MessageType string  `json:"messageType"`
	Text        *string `json:"text"`
	FileURL     *string `json:"fileUrl"`
	FileName    *string `json:"fileName"`
	FileType    *string `json:"fileType"`
	FileSize    *int64  `json:"fileSize" validate:"omitempty,gte=0"`
}

func (b *sendBody) defaultCaller(id int64) {
	if b.SenderID == 0 {
		b.SenderID = id
	}
}

func (b sendBody) file() *repo.FileMeta {
	if b.FileURL == nil || *b.FileURL == "" {
		return nil
	}
	f := &repo.FileMeta{URL: *b.FileURL}
	if b.FileName != nil {
		f.Name = *b.FileName
	}
	if b.FileType != nil {
		f.MimeType = *b.FileType
	}
	if b.FileSize != nil {
		f.Size = *b.FileSize
	}
	return f
}

func (h *MessageHandler) Send(c fiber.Ctx) error {
	var body sendBody
	if bound, err := bindJSON(c, &body); !bound {
		return err
	}
	if caller := callerID(c); caller > 0 && caller != body.SenderID {
		return writeError(c, errSenderMismatch)
	}

	m, err := h.svc.Send(c.Context(), relay.SendRequest{
		SenderID:    body.SenderID,
		ReceiverID:  body.ReceiverID,
		MessageType: body.MessageType,
		Text:        body.Text,
		File:        body.file(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, m)
}

// Upload stores a chat attachment and returns the metadata to reference in
// a following send.
func (h *MessageHandler) Upload(c fiber.Ctx) error {
	owner := callerID(c)
	if owner <= 0 {
		return unauthorized(c)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, upload.ErrFileRequired)
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "could not read uploaded file")
	}
	defer f.Close()

	meta, err := h.upload.Upload(c.Context(), owner, upload.Request{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return created(c, meta)
}

func (h *MessageHandler) Conversation(c fiber.Ctx) error {
	userA, valid := paramID(c, "user_a")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	userB, valid := paramID(c, "user_b")
	if !valid {
		return badRequest(c, "invalid user id")
	}

	msgs, err := h.svc.Conversation(c.Context(), userA, userB)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, msgs)
}

func (h *MessageHandler) MarkRead(c fiber.Ctx) error {
	reader := callerID(c)
	if reader <= 0 {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid message id")
	}

	m, err := h.svc.MarkRead(c.Context(), id, reader)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, m)
}

func (h *MessageHandler) MarkAllRead(c fiber.Ctx) error {
	receiver := callerID(c)
	if receiver <= 0 {
		return unauthorized(c)
	}

	res, err := h.svc.MarkAllRead(c.Context(), receiver)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, res)
}

func (h *MessageHandler) UnreadSummary(c fiber.Ctx) error {
	receiver := callerID(c)
	if receiver <= 0 {
		return unauthorized(c)
	}

	sum, err := h.svc.UnreadSummary(c.Context(), receiver)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, sum)
}

func (h *MessageHandler) UnreadCount(c fiber.Ctx) error {
	receiver := callerID(c)
	if receiver <= 0 {
		return unauthorized(c)
	}

	n, err := h.svc.UnreadCount(c.Context(), receiver)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, fiber.Map{"count": n})
}
