package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"zawamis/apperror"
	"zawamis/models"
	"zawamis/store"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to temporary files.
const multipartMemory = 10 << 20

var errInvalidForm = apperror.New(apperror.KindValidation, "Invalid form data")

// parsedForm is a request body reduced to single-valued fields and files.
type parsedForm struct {
	Values map[string][]string
	Files  map[string][]*multipart.FileHeader
}

// parseForm accepts multipart and urlencoded bodies.
func parseForm(r *http.Request) (*parsedForm, error) {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, bodyError(err)
	}
	form := &parsedForm{Values: r.PostForm, Files: map[string][]*multipart.FileHeader{}}
	if r.MultipartForm != nil {
		form.Files = r.MultipartForm.File
	}
	return form, nil
}

// parseLoginBody accepts a JSON object or a form body.
func parseLoginBody(r *http.Request) (map[string][]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		form, err := parseForm(r)
		if err != nil {
			return nil, err
		}
		return form.Values, nil
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, bodyError(err)
	}
	values := make(map[string][]string, len(body))
	for k, v := range body {
		// Non-string values are left out and fail validation as missing.
		if s, ok := v.(string); ok {
			values[k] = []string{s}
		}
	}
	return values, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.Wrap(apperror.KindTooLarge, "File is too large", err)
	}
	return apperror.Wrap(apperror.KindValidation, errInvalidForm.Message, err)
}

func cleanup(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

var (
	errUserIDRequired = apperror.New(apperror.KindValidation, "User ID is required")
	errUserNotFound   = apperror.New(apperror.KindNotFound, "User not found")
)

// activeAccount loads the active account with the given ID.
func (h *Handler) activeAccount(r *http.Request, id string) (*models.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errUserIDRequired
	}
	acc, err := h.store.FindAccount(r.Context(), store.ActiveByID(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return acc, nil
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
