package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email or username already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrPermissionDenied    = errors.New("forbidden")
	ErrCannotDeleteSelf    = errors.New("cannot delete yourself")
	ErrCourseNotFound      = errors.New("course not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrInvalidScope        = errors.New("invalid scope")
	ErrContentNotFound     = errors.New("content not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrVideoNotFound       = errors.New("video not found")
	ErrTextTooShort        = errors.New("not enough text to generate questions")
	ErrTextUnreadable      = errors.New("could not extract text from document")
	ErrTranscriptMissing   = errors.New("transcript not available for this video")
	ErrQuizNotFound        = errors.New("no quiz for this content")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrUploadNotFound      = errors.New("upload progress not found")
	ErrInvalidChunk        = errors.New("invalid chunk")
	ErrUnsupportedProvider = errors.New("operation not supported by storage provider")
	ErrInvalidCount        = errors.New("count must be between 3 and 10")
	ErrNotVideo            = errors.New("content is not a video")
	ErrMissingFields       = errors.New("missing fields")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrPasswordLength      = errors.New("password must be 4 to 64 characters")
	ErrInvalidRole         = errors.New("invalid role")
	ErrAvatarRequired      = errors.New("avatar_uri is required")
	ErrDuplicate           = errors.New("already exists")
)

// statusOf maps sentinel errors to HTTP statuses.
var statusOf = map[error]int{
	ErrUserNotFound:       http.StatusNotFound,
	ErrEmailRegistered:    http.StatusConflict,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrAccountDisabled:    http.StatusUnauthorized,
	ErrPermissionDenied:   http.StatusForbidden,
	ErrCannotDeleteSelf:   http.StatusBadRequest,
	ErrCourseNotFound:     http.StatusNotFound,
	ErrTitleRequired:      http.StatusBadRequest,
	ErrInvalidScope:       http.StatusBadRequest,
	ErrContentNotFound:    http.StatusNotFound,
	ErrDocumentNotFound:   http.StatusNotFound,
	ErrVideoNotFound:      http.StatusNotFound,
	ErrTextTooShort:       http.StatusUnprocessableEntity,
	ErrTextUnreadable:     http.StatusUnprocessableEntity,
	ErrTranscriptMissing:  http.StatusUnprocessableEntity,
	ErrQuizNotFound:       http.StatusNotFound,
	ErrAttemptNotFound:    http.StatusNotFound,
	ErrInvalidRating:      http.StatusBadRequest,
	ErrInvalidFileType:    http.StatusBadRequest,
	ErrUploadNotFound:     http.StatusNotFound,
	ErrInvalidChunk:       http.StatusBadRequest,
	ErrInvalidCount:       http.StatusBadRequest,
	ErrNotVideo:           http.StatusNotFound,
	ErrMissingFields:      http.StatusBadRequest,
	ErrInvalidEmail:       http.StatusBadRequest,
	ErrInvalidUsername:    http.StatusBadRequest,
	ErrPasswordLength:     http.StatusBadRequest,
	ErrInvalidRole:        http.StatusBadRequest,
	ErrAvatarRequired:     http.StatusBadRequest,
	ErrDuplicate:          http.StatusConflict,
}

// HandleError answers with the status registered for a known error and
// logs anything else as an internal error.
func HandleError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		Error(c, http.StatusConflict, ErrDuplicate.Error())
		return
	}
	for target, status := range statusOf {
		if errors.Is(err, target) {
			Error(c, status, target.Error())
			return
		}
	}
	LogInternalError(c, err)
}
