package form

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Signature is the capability exposed by whatever captured the hand-drawn signature.
// The gating core only asks whether it is empty and, at submit time, for its image.
type Signature interface {
	IsEmpty() bool
	DataURI() string
}

// ErrBadSignature is returned for data URIs that are not base64 images.
var ErrBadSignature = errors.New("signature is not a base64 image data URI")

// DataURISignature is a signature already serialised as a data URI. The zero value is empty.
type DataURISignature struct {
	uri string
}

// NoSignature is an empty signature.
var NoSignature Signature = DataURISignature{}

// ParseSignature validates a `data:image/<type>;base64,<payload>` URI. An empty string yields an
// empty signature.
func ParseSignature(uri string) (DataURISignature, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return DataURISignature{}, nil
	}

	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return DataURISignature{}, ErrBadSignature
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURISignature{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(raw) == 0 {
		return DataURISignature{}, nil
	}
	return DataURISignature{uri: uri}, nil
}

// SignatureFromPNG wraps raw PNG bytes.
func SignatureFromPNG(png []byte) DataURISignature {
	if len(png) == 0 {
		return DataURISignature{}
	}
	return DataURISignature{uri: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}
}

func (s DataURISignature) IsEmpty() bool { return s.uri == "" }

func (s DataURISignature) DataURI() string { return s.uri }
