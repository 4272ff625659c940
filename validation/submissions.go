package validation

import (
	"mime/multipart"

	"zawamis/apperror"
)

// Login holds validated credentials.
type Login struct {
	Email    string
	Password string
}

// ValidateLogin checks that an email and a password were sent.
func ValidateLogin(values map[string][]string) (*Login, apperror.FieldErrors) {
	f := newForm(values, nil, 0)
	l := &Login{
		Email:    f.email("email"),
		Password: f.secret("password"),
	}
	if errs := f.result(); errs != nil {
		return nil, errs
	}
	return l, nil
}

// Application is a validated job application with both documents attached.
type Application struct {
	JobTitle    string
	CV          *multipart.FileHeader
	CoverLetter *multipart.FileHeader
}

// ValidateApplication requires a job title, a CV and a cover letter.
func ValidateApplication(values map[string][]string, fileMap map[string][]*multipart.FileHeader, maxSize int64) (*Application, apperror.FieldErrors) {
	f := newForm(values, fileMap, maxSize)
	a := &Application{
		JobTitle:    f.required("job_title", 200),
		CV:          f.file("cv", true),
		CoverLetter: f.file("cover_letter", true),
	}
	if errs := f.result(); errs != nil {
		return nil, errs
	}
	return a, nil
}

// Message is validated message input. The body may be empty but the field
// has to be sent.
type Message struct {
	Body string
	File *multipart.FileHeader
}

// ValidateMessage requires the message field and accepts an optional file.
func ValidateMessage(values map[string][]string, fileMap map[string][]*multipart.FileHeader, maxSize int64) (*Message, apperror.FieldErrors) {
	f := newForm(values, fileMap, maxSize)
	body, ok := f.raw("message")
	if !ok {
		f.errs.Add("message", msgRequired)
	}
	m := &Message{Body: body, File: f.file("file", false)}
	if errs := f.result(); errs != nil {
		return nil, errs
	}
	return m, nil
}
