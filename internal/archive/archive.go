// Package archive copies raw uploads to Google Cloud Storage and reads them back.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Archiver stores the original bytes of an upload.
type Archiver interface {
	// Archive stores content for a session and returns its gs:// URI.
	Archive(ctx context.Context, sessionID, filename string, content []byte) (string, error)

	// Fetch downloads the bytes behind a gs:// URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ObjectName is the object path of a session's upload: uploads/<session_id>/<filename>.
func ObjectName(sessionID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return path.Join("uploads", sessionID, name)
}

// URI formats a bucket and object as gs://bucket/object.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// FilenameFromURI returns the last path element of a gs:// URI.
// e.g., "gs://bucket/uploads/abc/sales.csv" → "sales.csv"
func FilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}

	return path.Base(parts[1])
}

// ContentType returns the MIME type stored with an archived upload.
func ContentType(filename string) string {
	if strings.EqualFold(path.Ext(filename), ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
