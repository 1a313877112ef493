package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/form/v4"

	"utnode/internal/domain/validation"
)

// formDecoder maps url-encoded fields onto structs by their `form` tags.
var formDecoder = form.NewDecoder()

// decodeForm fills dst from the submitted form. Values that do not parse into
// their field type become violations, listed in the order of fields.
// PRE: dst is a pointer to a struct with `form` tags
func decodeForm(r *http.Request, dst any, fields []fieldSpec) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	// Blank inputs mean "not provided", which leaves the zero value.
	values := make(url.Values, len(r.PostForm))
	for k, vs := range r.PostForm {
		for _, v := range vs {
			if v != "" {
				values.Add(k, v)
			}
		}
	}

	err := formDecoder.Decode(dst, values)
	if err == nil {
		return nil
	}
	var decodeErrs form.DecodeErrors
	if !errors.As(err, &decodeErrs) {
		return fmt.Errorf("decode form: %w", err)
	}
	var out validation.Violations
	for _, f := range fields {
		if _, bad := decodeErrs[f.name]; bad {
			out.Add(f.name, f.label+" must be a number")
			delete(decodeErrs, f.name)
		}
	}
	for name := range decodeErrs {
		out.Add(name, name+" is invalid")
	}
	return out
}
