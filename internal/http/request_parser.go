package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fintrack/internal/core"
)

const timeFormat = time.RFC3339

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads one JSON object from the body into dst, rejecting
// trailing garbage and unknown sizes past maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return core.Invalid("body", errors.New("malformed JSON payload"))
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return core.Invalid("body", errors.New("unexpected trailing data"))
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("id", errors.New("invalid id"))
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter. Absent means
// the zero Date, letting services apply their defaults.
func queryDate(query url.Values, name string) (core.Date, error) {
	v := query.Get(name)
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, err)
	}
	return d, nil
}

// queryInt64 parses an optional integer query parameter, 0 when absent.
func queryInt64(query url.Values, name string) (int64, error) {
	v := query.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, core.Invalid(name, errors.New("invalid number"))
	}
	return n, nil
}

// pagination reads page/size with the API defaults.
func pagination(query url.Values) (page, size int) {
	page, size = 0, 20
	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}
	if v := query.Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}
	return page, size
}

// requiredDate parses a YYYY-MM-DD string from a request body field.
func requiredDate(field, value string) (core.Date, error) {
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, core.Invalid(field, err)
	}
	return d, nil
}

// optionalDate parses a body date field that may be empty.
func optionalDate(field, value string) (core.Date, error) {
	if value == "" {
		return core.Date{}, nil
	}
	return requiredDate(field, value)
}
