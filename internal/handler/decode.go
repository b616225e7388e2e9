package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// maxFormMemory caps how much of a multipart form is held in memory.
// The body itself is already bounded by the max-body middleware.
const maxFormMemory = 1 << 20

// formDecoder is implemented by request types that can be filled from an
// HTML form submission as well as from JSON.
type formDecoder interface {
	decodeForm(form url.Values)
}

// errBodyTooLarge is returned by decode when the body exceeds the limit.
var errBodyTooLarge = errors.New("request body too large")

// isFormRequest reports whether the body is an HTML form submission.
// Form submissions get a 303 redirect on success instead of a JSON body.
func isFormRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// decode fills dst from a form or JSON body.
func decode(r *http.Request, dst formDecoder) error {
	if isFormRequest(r) {
		var err error
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
			err = r.ParseMultipartForm(maxFormMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return classifyBodyError(err)
		}
		dst.decodeForm(r.PostForm)
		return nil
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return classifyBodyError(err)
	}
	// Anything after the first value, other than whitespace, is rejected.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			if err := classifyBodyError(err); errors.Is(err, errBodyTooLarge) {
				return err
			}
		}
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func classifyBodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return err
}

// decodeOrReject decodes the body and writes the 400 or 413 itself on failure.
// It reports whether the handler should continue.
func decodeOrReject(w http.ResponseWriter, r *http.Request, dst formDecoder) bool {
	err := decode(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, err.Error(), nil)
	default:
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "malformed request body: "+err.Error(), nil)
	}
	return false
}

// respond finishes a successful write. Form submissions are redirected to
// location with 303 See Other; JSON clients get status and body. A nil body
// sends the status alone.
func respond(w http.ResponseWriter, r *http.Request, status int, body any, location string) {
	if isFormRequest(r) {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// firstOf returns the first non-empty value among the given form keys.
func firstOf(form url.Values, keys ...string) string {
	for _, k := range keys {
		if v := form.Get(k); v != "" {
			return v
		}
	}
	return ""
}
