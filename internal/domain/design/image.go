package design

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxImageBytes is the upload limit for a single design image.
const MaxImageBytes = 5 * 1024 * 1024

// AllowedMIMETypes lists the image formats accepted for analysis.
var AllowedMIMETypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrMalformedDataURI = errors.New("malformed data URI")
	ErrUnsupportedType  = errors.New("Invalid file type. Please upload a JPG, PNG, or WebP image.")
	ErrTooLarge         = errors.New("File size exceeds 5MB. Please upload a smaller image.")
)

// DataURI is a decoded data:<mime>;base64,<payload> string.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// String re-encodes the payload as a data URI.
func (d DataURI) String() string {
	return EncodeDataURI(d.MIMEType, d.Data)
}

// EncodeDataURI builds the self-describing form sent to the AI providers.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI. Only the base64 form is accepted.
func ParseDataURI(uri string) (DataURI, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: missing data: prefix", ErrMalformedDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, fmt.Errorf("%w: missing payload separator", ErrMalformedDataURI)
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return DataURI{}, fmt.Errorf("%w: payload must be base64 encoded", ErrMalformedDataURI)
	}
	// drop parameters such as ;charset=...
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		return DataURI{}, fmt.Errorf("%w: missing media type", ErrMalformedDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}
	return DataURI{MIMEType: strings.ToLower(mimeType), Data: data}, nil
}

// ValidateUpload enforces the size limit and the MIME allow-list.
func ValidateUpload(mimeType string, size int) error {
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	for _, allowed := range AllowedMIMETypes {
		if strings.EqualFold(mimeType, allowed) {
			return nil
		}
	}
	return ErrUnsupportedType
}
