// Package photo normalises images captured by the client (selfies, leave
// letters) before they are forwarded to the spreadsheet.
package photo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MaxWidth    = 480
	MaxHeight   = 640
	JPEGQuality = 50

	MaxAttachmentBytes = 10 << 20
)

var (
	ErrEmpty      = errors.New("photo: empty payload")
	ErrNotDataURL = errors.New("photo: not a base64 data url")
	ErrTooLarge   = errors.New("photo: file exceeds 10MB")
)

// DataURL is a parsed "data:<mime>;base64,<payload>" value.
type DataURL struct {
	MIME string
	Data []byte
}

func (d DataURL) IsImage() bool { return strings.HasPrefix(d.MIME, "image/") }

func (d DataURL) String() string {
	return "data:" + d.MIME + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// ParseDataURL also accepts bare base64, which is assumed to be a JPEG.
func ParseDataURL(s string) (DataURL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DataURL{}, ErrEmpty
	}

	mime := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		meta, rest, ok := strings.Cut(s[len("data:"):], ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return DataURL{}, ErrNotDataURL
		}
		mime = strings.TrimSuffix(meta, ";base64")
		if mime == "" {
			mime = "application/octet-stream"
		}
		payload = rest
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxAttachmentBytes+3 {
		return DataURL{}, ErrTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return DataURL{}, fmt.Errorf("%w: %v", ErrNotDataURL, err)
		}
	}
	if len(raw) > MaxAttachmentBytes {
		return DataURL{}, ErrTooLarge
	}
	return DataURL{MIME: mime, Data: raw}, nil
}

// Compress downsizes an image so landscape shots are at most MaxWidth wide
// and portrait shots at most MaxHeight tall, then re-encodes it as JPEG.
// Non-image payloads are returned unchanged.
func Compress(d DataURL) (DataURL, error) {
	if !d.IsImage() {
		return d, nil
	}
	img, err := imaging.Decode(bytes.NewReader(d.Data), imaging.AutoOrientation(true))
	if err != nil {
		return DataURL{}, fmt.Errorf("photo: decode: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > h {
		if w > MaxWidth {
			img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
		}
	} else if h > MaxHeight {
		img = imaging.Resize(img, 0, MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return DataURL{}, fmt.Errorf("photo: encode: %w", err)
	}
	return DataURL{MIME: "image/jpeg", Data: buf.Bytes()}, nil
}

// CompressString parses and compresses in one step.
func CompressString(s string) (string, error) {
	d, err := ParseDataURL(s)
	if err != nil {
		return "", err
	}
	out, err := Compress(d)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
