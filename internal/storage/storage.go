// Package storage uploads and removes media objects in public buckets.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
)

// ErrObjectNotFound is returned when deleting or reading a missing object.
var ErrObjectNotFound = errors.New("object not found")

// Store is a public-read object store.
type Store interface {
	// Name identifies the backend ("supabase", "s3", "memory").
	Name() string
	// Put uploads body under bucket/key and returns the object's public URL.
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes bucket/key.
	Delete(ctx context.Context, bucket, key string) error
	// PublicURL returns the public URL of bucket/key without contacting the backend.
	PublicURL(bucket, key string) string
}

// Buckets maps media types to bucket names.
type Buckets struct {
	Photo string
	Video string
}

// For returns the bucket holding media of type t.
func (b Buckets) For(t database.MediaType) string {
	if t == database.MediaVideo {
		return b.Video
	}
	return b.Photo
}

// ObjectKey builds "<event-id|general>/<uuid><ext>" for an uploaded file name.
func ObjectKey(eventID, fileName string) string {
	folder := eventID
	if folder == "" {
		folder = constants.GeneralFolder
	}
	return folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(fileName))
}

// KeyFromURL recovers the object key (last two path segments) from a public URL.
func KeyFromURL(publicURL string) string {
	p := publicURL
	if u, err := url.Parse(publicURL); err == nil && u.Path != "" {
		p = u.Path
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 {
		return strings.Join(parts, "/")
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
