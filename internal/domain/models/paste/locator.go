package paste

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const locatorLayout = "2006/01/02/150405"

// DocumentURL returns the public path of a document: "/<key>/".
func DocumentURL(key string) string {
	return "/" + key + "/"
}

// FormatLocator builds the externally visible locator of a revision:
// "<doc-key>/YYYY/MM/DD/HHMMSS.<microseconds>".
func FormatLocator(documentKey string, createdAt time.Time) string {
	t := createdAt.UTC()
	return fmt.Sprintf("%s/%s.%06d", documentKey, t.Format(locatorLayout), t.Nanosecond()/1000)
}

// RevisionURL returns the public path of a revision
func RevisionURL(documentKey string, createdAt time.Time) string {
	return "/" + FormatLocator(documentKey, createdAt)
}

// ParseLocator splits a path into a document key and, when the path ends
// with a revision timestamp, that timestamp. ok is false when the path has
// no timestamp suffix; the whole path is then the document key.
func ParseLocator(path string) (key string, at time.Time, ok bool) {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) < 5 {
		return path, time.Time{}, false
	}

	tail := parts[len(parts)-4:]
	stamp, micros, found := strings.Cut(tail[3], ".")
	if !found || len(micros) != 6 {
		return path, time.Time{}, false
	}
	us, err := strconv.Atoi(micros)
	if err != nil {
		return path, time.Time{}, false
	}

	t, err := time.ParseInLocation(locatorLayout, strings.Join(append(tail[:3:3], stamp), "/"), time.UTC)
	if err != nil {
		return path, time.Time{}, false
	}

	return strings.Join(parts[:len(parts)-4], "/"), t.Add(time.Duration(us) * time.Microsecond), true
}
