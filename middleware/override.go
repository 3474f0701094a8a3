package middleware

import (
	"context"
	"net/http"
	"strings"
)

// MethodOverrideField is the query or form field carrying the overriding verb.
const MethodOverrideField = "_method"

// MethodOverrideHeader is the header alternative to MethodOverrideField.
const MethodOverrideHeader = "X-HTTP-Method-Override"

type originalMethodKey struct{}

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms express PUT, PATCH and DELETE. Only POST
// requests are rewritten; unknown verbs are ignored. It must run after
// BodyParser so that form fields are available.
func MethodOverride() Stage {
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
		if r.Method != http.MethodPost {
			return r, false
		}

		method := r.URL.Query().Get(MethodOverrideField)
		if method == "" && r.PostForm != nil {
			method = r.PostForm.Get(MethodOverrideField)
		}
		if method == "" {
			method = r.Header.Get(MethodOverrideHeader)
		}
		method = strings.ToUpper(strings.TrimSpace(method))
		if !overridable[method] {
			return r, false
		}

		next := r.WithContext(context.WithValue(r.Context(), originalMethodKey{}, r.Method))
		next.Method = method
		return next, false
	}
}

// OriginalMethod returns the verb the client actually sent.
func OriginalMethod(r *http.Request) string {
	if m, ok := r.Context().Value(originalMethodKey{}).(string); ok {
		return m
	}
	return r.Method
}
