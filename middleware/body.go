package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// DefaultBodyLimit caps parsed request bodies at 100 KiB.
const DefaultBodyLimit = 100 << 10

// BodyParser decodes url-encoded and JSON request bodies up front so that
// malformed payloads are rejected before routing. Form values end up in
// r.PostForm; JSON bodies are validated and replayed for later binding.
func BodyParser(limit int64) Stage {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
		if r.Body == nil || r.Body == http.NoBody || r.Method == http.MethodGet || r.Method == http.MethodHead {
			return r, false
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return r, false
		}

		next := r.WithContext(r.Context())
		switch mediaType {
		case "application/x-www-form-urlencoded":
			next.Body = http.MaxBytesReader(w, r.Body, limit)
			if err := next.ParseForm(); err != nil {
				rejectBody(w, err)
				return r, true
			}
		case "application/json":
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				rejectBody(w, err)
				return r, true
			}
			if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
				http.Error(w, "malformed JSON body", http.StatusBadRequest)
				return r, true
			}
			next.Body = io.NopCloser(bytes.NewReader(raw))
		default:
			return r, false
		}
		return next, false
	}
}

func rejectBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "malformed request body", http.StatusBadRequest)
}
