package pkg

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"
)

// ErrInvalidDataURI payload is not a base64 data uri
var ErrInvalidDataURI = errors.New("invalid data uri")

// ParseDataURI decode "data:<mime>;base64,<payload>" into mime type and bytes
func ParseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrInvalidDataURI
	}

	mime := strings.TrimSuffix(header, ";base64")
	if mime == "" {
		mime = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidDataURI
	}
	return mime, data, nil
}

// ExtensionByMime file extension registered for mime type, 找不到時用 .bin
func ExtensionByMime(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	// 同一型別有多個副檔名時偏好常見寫法
	for _, preferred := range []string{".jpg", ".png", ".gif", ".webp"} {
		for _, ext := range exts {
			if ext == preferred {
				return ext
			}
		}
	}
	return exts[0]
}
