package middleware

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Static serves regular files from fsys for GET and HEAD requests. Requests
// that do not name such a file fall through to the next stage. Directories and
// dotfiles are never served.
func Static(fsys fs.FS) Stage {
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return r, false
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || hasDotSegment(name) || !fs.ValidPath(name) {
			return r, false
		}

		f, err := fsys.Open(name)
		if err != nil {
			return r, false
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return r, false
		}

		rs, ok := f.(io.ReadSeeker)
		if !ok {
			b, err := io.ReadAll(f)
			if err != nil {
				return r, false
			}
			rs = strings.NewReader(string(b))
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
		return r, true
	}
}

func hasDotSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
