package httpserver

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bryanwahyu/design-alchemist/internal/domain/design"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

const (
	multipartOverhead = 1 << 20
	// base64 grows payloads by 4/3
	maxJSONBody        = design.MaxImageBytes/3*4 + multipartOverhead
	maxDescriptionSize = 2000
)

type analyzeRequest struct {
	DesignImage       string `json:"design_image"`
	DesignDescription string `json:"design_description" validate:"max=2000"`
}

// designUpload is the validated input handed to the orchestrator. An empty
// ImageURI is passed through so the orchestrator reports the missing image.
type designUpload struct {
	ImageURI    string
	Description string
}

func readDesignUpload(w http.ResponseWriter, req *http.Request) (designUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(w, req)
	}
	return readJSONUpload(w, req)
}

func readMultipart(w http.ResponseWriter, req *http.Request) (designUpload, error) {
	req.Body = http.MaxBytesReader(w, req.Body, design.MaxImageBytes+multipartOverhead)
	if err := req.ParseMultipartForm(multipartOverhead); err != nil {
		return designUpload{}, uploadError(err)
	}
	description := middleware.SanitizeString(req.FormValue("description"))
	if len(description) > maxDescriptionSize {
		return designUpload{}, badRequest{msg: "description is too long"}
	}

	file, _, err := req.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return designUpload{Description: description}, nil
	}
	if err != nil {
		return designUpload{}, uploadError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, design.MaxImageBytes+1))
	if err != nil {
		return designUpload{}, uploadError(err)
	}
	mimeType := sniff(data)
	if err := design.ValidateUpload(mimeType, len(data)); err != nil {
		return designUpload{}, err
	}
	return designUpload{ImageURI: design.EncodeDataURI(mimeType, data), Description: description}, nil
}

func readJSONUpload(w http.ResponseWriter, req *http.Request) (designUpload, error) {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBody)
	var body analyzeRequest
	if err := decodeJSON(req, &body); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return designUpload{}, design.ErrTooLarge
		}
		return designUpload{}, err
	}
	if err := middleware.ValidateStruct(body); err != nil {
		return designUpload{}, err
	}
	description := middleware.SanitizeString(body.DesignDescription)
	if body.DesignImage == "" {
		return designUpload{Description: description}, nil
	}

	uri, err := design.ParseDataURI(body.DesignImage)
	if err != nil {
		return designUpload{}, err
	}
	if err := design.ValidateUpload(uri.MIMEType, len(uri.Data)); err != nil {
		return designUpload{}, err
	}
	// the declared type must match the bytes
	if sniffed := sniff(uri.Data); !strings.EqualFold(sniffed, uri.MIMEType) {
		return designUpload{}, design.ErrUnsupportedType
	}
	return designUpload{ImageURI: uri.String(), Description: description}, nil
}

func sniff(data []byte) string {
	m := mimetype.Detect(data)
	mediaType, _, _ := strings.Cut(m.String(), ";")
	return strings.TrimSpace(mediaType)
}

func uploadError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return design.ErrTooLarge
	}
	return badRequest{msg: "invalid upload: " + err.Error(), err: err}
}
