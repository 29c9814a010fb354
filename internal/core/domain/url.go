package domain

import (
	"cmp"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// URLType tells how an ObjectURL is resolved.
type URLType uint8

const (
	// URLTypeFile points directly at a path on the local filesystem.
	URLTypeFile URLType = iota + 1
	// URLTypeContent is a logical path resolved through the content index.
	URLTypeContent
)

const (
	fileScheme    = "file:"
	contentScheme = "content:"

	// BlobScheme prefixes content paths that address a blob directly by hash.
	BlobScheme = "id://"
)

// String returns the scheme name of the type.
func (t URLType) String() string {
	switch t {
	case URLTypeFile:
		return "file"
	case URLTypeContent:
		return "content"
	default:
		return "unknown"
	}
}

// ObjectURL identifies an input or output of a command.
// It is a comparable value and is used as a map key.
type ObjectURL struct {
	Type URLType
	Path InternedString
}

// NewFileURL returns a File URL for the given filesystem path.
func NewFileURL(p string) ObjectURL {
	return ObjectURL{Type: URLTypeFile, Path: NewInternedString(filepath.ToSlash(filepath.Clean(p)))}
}

// NewContentURL returns a Content URL for the given logical path.
func NewContentURL(p string) ObjectURL {
	if strings.HasPrefix(p, BlobScheme) {
		return ObjectURL{Type: URLTypeContent, Path: NewInternedString(p)}
	}
	return ObjectURL{Type: URLTypeContent, Path: NewInternedString(strings.TrimPrefix(path.Clean("/"+p), "/"))}
}

// NewBlobURL returns a Content URL addressing the blob id directly.
func NewBlobURL(id ObjectID) ObjectURL {
	return NewContentURL(BlobScheme + id.String())
}

// ParseObjectURL parses "file:<path>", "content:<path>" or "id://<hex>".
// A string without a scheme is a File URL.
func ParseObjectURL(s string) (ObjectURL, error) {
	switch {
	case s == "":
		return ObjectURL{}, zerr.With(zerr.Wrap(ErrInvalidURL, "parse url"), "url", s)
	case strings.HasPrefix(s, BlobScheme):
		id, err := ParseObjectID(strings.TrimPrefix(s, BlobScheme))
		if err != nil {
			return ObjectURL{}, zerr.With(zerr.Wrap(errors.Join(ErrInvalidURL, err), "parse url"), "url", s)
		}
		return NewBlobURL(id), nil
	case strings.HasPrefix(s, contentScheme):
		p := strings.TrimPrefix(s, contentScheme)
		if p == "" {
			return ObjectURL{}, zerr.With(zerr.Wrap(ErrInvalidURL, "parse url"), "url", s)
		}
		return NewContentURL(p), nil
	case strings.HasPrefix(s, fileScheme):
		p := strings.TrimPrefix(s, fileScheme)
		if p == "" {
			return ObjectURL{}, zerr.With(zerr.Wrap(ErrInvalidURL, "parse url"), "url", s)
		}
		return NewFileURL(p), nil
	default:
		return NewFileURL(s), nil
	}
}

// BlobID returns the addressed id when the URL uses the id:// form.
func (u ObjectURL) BlobID() (ObjectID, bool) {
	if u.Type != URLTypeContent {
		return EmptyObjectID, false
	}
	p := u.Path.String()
	if !strings.HasPrefix(p, BlobScheme) {
		return EmptyObjectID, false
	}
	id, err := ParseObjectID(strings.TrimPrefix(p, BlobScheme))
	if err != nil {
		return EmptyObjectID, false
	}
	return id, true
}

// IsZero reports whether the URL is unset.
func (u ObjectURL) IsZero() bool {
	return u.Type == 0 && u.Path.String() == ""
}

// String renders the URL in the form accepted by ParseObjectURL.
func (u ObjectURL) String() string {
	switch u.Type {
	case URLTypeFile:
		return fileScheme + u.Path.String()
	case URLTypeContent:
		if _, ok := u.BlobID(); ok {
			return u.Path.String()
		}
		return contentScheme + u.Path.String()
	default:
		return u.Path.String()
	}
}

// Compare orders URLs by type, then path.
func (u ObjectURL) Compare(other ObjectURL) int {
	if c := cmp.Compare(u.Type, other.Type); c != 0 {
		return c
	}
	return strings.Compare(u.Path.String(), other.Path.String())
}
