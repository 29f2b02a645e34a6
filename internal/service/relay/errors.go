package relay

import "github.com/Alijeyrad/internhub_backend/pkg/apperr"

var (
	ErrSelfMessage    = apperr.New(apperr.InvalidArgument, "cannot send a message to yourself")
	ErrEmptyMessage   = apperr.New(apperr.InvalidArgument, "message must carry text or a file")
	ErrInvalidType    = apperr.New(apperr.InvalidArgument, "message type must be TEXT, FILE or TEXT_AND_FILE")
	ErrTypeMismatch   = apperr.New(apperr.InvalidArgument, "message type does not match its content")
	ErrEventRequired  = apperr.New(apperr.InvalidArgument, "event name is required")
	ErrSenderNotFound = apperr.New(apperr.NotFound, "sender not found")
	ErrReceiverAbsent = apperr.New(apperr.NotFound, "receiver not found")
	ErrUserNotFound   = apperr.New(apperr.NotFound, "user not found")
	ErrMessageMissing = apperr.New(apperr.NotFound, "message not found")
	ErrNotReceiver    = apperr.New(apperr.Forbidden, "only the receiver can mark a message as read")
)
