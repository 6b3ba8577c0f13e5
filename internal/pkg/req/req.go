/*
Package req provides helper functions for HTTP request parsing and data binding.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"campusportal/internal/pkg/errs"
)

// MaxJSONBodySize caps JSON request bodies (1 MB).
const MaxJSONBodySize int64 = 1 << 20

// BindJSON decodes the JSON request body into dst, rejecting unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// QueryInt reads a non-negative integer query parameter, returning def when it is absent.
func QueryInt(r *http.Request, key string, def int) (int, *errs.CustomError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}
	return n, nil
}
