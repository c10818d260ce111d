// Package qr turns session codes into student links and scannable PNGs.
package qr

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// AttendPath is the student-facing route a QR link points at.
	AttendPath       = "/attend"
	codeParam        = "c"
	defaultSize      = 300
	minimumSize      = 64
	pngDataURLPrefix = "data:image/png;base64,"
)

// Encoder builds links against a public base URL and renders them as PNGs.
type Encoder struct {
	baseURL string
	size    int
}

// NewEncoder returns an Encoder. Sizes below a scannable minimum fall back to the default.
func NewEncoder(baseURL string, size int) *Encoder {
	if size < minimumSize {
		size = defaultSize
	}
	return &Encoder{baseURL: strings.TrimRight(baseURL, "/"), size: size}
}

// Link returns the URL a student follows for code.
func (e *Encoder) Link(code string) string {
	return fmt.Sprintf("%s%s?%s=%s", e.baseURL, AttendPath, codeParam, url.QueryEscape(code))
}

// PNG renders the link for code.
func (e *Encoder) PNG(code string) ([]byte, error) {
	png, err := qrcode.Encode(e.Link(code), qrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL renders the link for code as an inline base64 PNG.
func (e *Encoder) DataURL(code string) (string, error) {
	png, err := e.PNG(code)
	if err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
