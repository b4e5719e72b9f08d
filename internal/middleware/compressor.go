package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/drstein77/shopsphere/internal/compress"
)

// ArchiveTypeMiddleware unwraps an archived request body. The archive type is
// taken from the archiveType query parameter (zip by default) and applied
// when the client marks the body with the matching Content-Encoding or
// Content-Type.
func ArchiveTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		archiveType := compress.ParseType(r.URL.Query().Get("archiveType"))
		CreateDecompressMiddleware(archiveType)(next).ServeHTTP(w, r)
	})
}

func CreateDecompressMiddleware(archiveType string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isArchived(r, archiveType) {
				h.ServeHTTP(w, r)
				return
			}

			cr, err := compress.NewReader(archiveType, r.Body)
			if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
				http.Error(w, tooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			if err != nil {
				http.Error(w, "invalid "+archiveType+" archive: "+err.Error(), http.StatusBadRequest)
				return
			}
			defer cr.Close()

			r.Body = cr
			h.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps the request body at n bytes. Reads past the cap fail with *http.MaxBytesError.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func isArchived(r *http.Request, archiveType string) bool {
	if r.Header.Get("Content-Encoding") == archiveType {
		return true
	}

	contentType := r.Header.Get("Content-Type")
	switch archiveType {
	case compress.Zip:
		return strings.HasPrefix(contentType, "application/zip")
	case compress.Tar:
		return strings.HasPrefix(contentType, "application/x-tar")
	}
	return false
}
