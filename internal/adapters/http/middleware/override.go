package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideField is the form or query field naming the intended method.
const MethodOverrideField = "_method"

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride rewrites POST and GET requests carrying a `_method` field of
// PUT, PATCH or DELETE. It must run before routing.
// POST: For POST, the body is parsed into r.PostForm before the method changes,
// so later PostFormValue calls still see the submitted fields.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var want string
		switch r.Method {
		case http.MethodPost:
			if err := r.ParseForm(); err == nil {
				want = r.PostForm.Get(MethodOverrideField)
			}
			if want == "" {
				want = r.URL.Query().Get(MethodOverrideField)
			}
		case http.MethodGet:
			want = r.URL.Query().Get(MethodOverrideField)
		}
		if want = strings.ToUpper(want); overridable[want] {
			r.Method = want
		}
		next.ServeHTTP(w, r)
	})
}
