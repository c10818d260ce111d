package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

const rosterField = "roster"

// limitBody caps the request body so oversized uploads fail while parsing.
func limitBody(c *gin.Context, maxBytes int64) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
}

// optionalRoster returns the uploaded roster file, or nil when the request carries none.
func optionalRoster(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(rosterField)
	switch {
	case err == nil:
		return file, header, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil, nil
	default:
		return nil, nil, uploadError(err)
	}
}

func uploadError(err error) error {
	return bindError(err, "invalid upload")
}

func bindError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "roster file exceeds the upload limit")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
