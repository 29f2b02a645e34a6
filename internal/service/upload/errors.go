package upload

import "github.com/Alijeyrad/internhub_backend/pkg/apperr"

var (
	ErrFileRequired    = apperr.New(apperr.InvalidArgument, "file is required")
	ErrStorageDisabled = apperr.New(apperr.Unavailable, "file upload is not configured")
)
