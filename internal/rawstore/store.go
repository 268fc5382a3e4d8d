// Package rawstore reads the raw transaction files delivered by the
// retrieval layer. Objects are laid out as "<user_id>/<...>/<name>.json".
package rawstore

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store lists and reads raw transaction files.
// This interface enables mocking of object storage in tests.
type Store interface {
	// ListUserObjects returns the names of a user's JSON objects, sorted.
	ListUserObjects(ctx context.Context, userID string) ([]string, error)

	// ReadObject returns the bytes of one object.
	ReadObject(ctx context.Context, name string) ([]byte, error)
}

// UserPrefix is the object prefix of all of a user's files.
func UserPrefix(userID string) string {
	return strings.TrimSuffix(userID, "/") + "/"
}

// IsJSONObject reports whether an object name is a raw transaction file.
func IsJSONObject(name string) bool {
	return !strings.HasSuffix(name, "/") && strings.EqualFold(path.Ext(name), ".json")
}

// UserFromObject returns the owning user of an object, the first path segment.
func UserFromObject(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}

// ParseURI splits "gs://bucket/path/to/file.json" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
