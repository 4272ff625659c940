// Package validation checks client input for each write path and turns it
// into typed values or field-scoped errors.
package validation

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"zawamis/apperror"
	"zawamis/files"
)

const (
	msgRequired  = "This field is required."
	msgBlank     = "This field may not be blank."
	msgEmail     = "Enter a valid email address."
	msgDate      = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgNoFile    = "No file was submitted."
	msgMismatch  = "Passwords do not match"
	dateLayout   = "2006-01-02"
	minPasswordN = 6
)

// form reads single values out of a parsed request and records problems.
type form struct {
	values  map[string][]string
	files   map[string][]*multipart.FileHeader
	maxSize int64
	errs    apperror.FieldErrors
}

func newForm(values map[string][]string, fileMap map[string][]*multipart.FileHeader, maxSize int64) *form {
	return &form{values: values, files: fileMap, maxSize: maxSize, errs: apperror.FieldErrors{}}
}

func (f *form) raw(field string) (string, bool) {
	v, ok := f.values[field]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// required returns the trimmed value of a mandatory, non-blank field.
func (f *form) required(field string, maxLen int) string {
	v, ok := f.raw(field)
	if !ok {
		f.errs.Add(field, msgRequired)
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "" {
		f.errs.Add(field, msgBlank)
		return ""
	}
	f.maxLen(field, v, maxLen)
	return v
}

// optional returns the trimmed value of a field that may be missing or blank.
func (f *form) optional(field string, maxLen int) string {
	v, _ := f.raw(field)
	v = strings.TrimSpace(v)
	f.maxLen(field, v, maxLen)
	return v
}

// secret returns a mandatory value untrimmed.
func (f *form) secret(field string) string {
	v, ok := f.raw(field)
	if !ok {
		f.errs.Add(field, msgRequired)
		return ""
	}
	if v == "" {
		f.errs.Add(field, msgBlank)
	}
	return v
}

func (f *form) maxLen(field, v string, maxLen int) {
	if maxLen > 0 && utf8.RuneCountInString(v) > maxLen {
		f.errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
}

func (f *form) email(field string) string {
	v := f.required(field, 254)
	if v != "" && !validEmail(v) {
		f.errs.Add(field, msgEmail)
	}
	return v
}

func (f *form) date(field string) time.Time {
	v := f.required(field, 0)
	if v == "" {
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		f.errs.Add(field, msgDate)
	}
	return d
}

func (f *form) choice(field string, valid func(string) bool) string {
	v := f.required(field, 0)
	if v != "" && !valid(v) {
		f.errs.Add(field, fmt.Sprintf("%q is not a valid choice.", v))
	}
	return v
}

func (f *form) file(field string, required bool) *multipart.FileHeader {
	fhs := f.files[field]
	if len(fhs) == 0 || fhs[0] == nil {
		if required {
			f.errs.Add(field, msgNoFile)
		}
		return nil
	}
	if err := files.Check(fhs[0], f.maxSize); err != nil {
		f.errs.Add(field, capitalize(err.Error())+".")
		return nil
	}
	return fhs[0]
}

func (f *form) result() apperror.FieldErrors {
	if len(f.errs) == 0 {
		return nil
	}
	return f.errs
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndex(v, "@")
	domain := v[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
