package models

import "time"

const dateLayout = "2006-01-02"

// URLFunc turns a stored file reference into the URL exposed to clients.
type URLFunc func(ref string) string

type DocumentView struct {
	DocumentType DocumentType `json:"document_type"`
	File         string       `json:"file"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}

type MessageView struct {
	ID         string     `json:"id"`
	Message    string     `json:"message"`
	File       *string    `json:"file"`
	FileName   *string    `json:"file_name"`
	FileType   *string    `json:"file_type"`
	CreatedAt  time.Time  `json:"created_at"`
	AdminReply *string    `json:"admin_reply"`
	ReplyDate  *time.Time `json:"reply_date"`
}

type ApplicationView struct {
	ID              string            `json:"id"`
	JobTitle        string            `json:"job_title"`
	CV              string            `json:"cv"`
	CoverLetter     string            `json:"cover_letter"`
	Status          ApplicationStatus `json:"status"`
	ApplicationDate time.Time         `json:"application_date"`
}

// AccountView is the full account projection. The password digest is never
// part of it.
type AccountView struct {
	ID               string            `json:"id"`
	FirstName        string            `json:"first_name"`
	MiddleName       *string           `json:"middle_name"`
	LastName         string            `json:"last_name"`
	DateOfBirth      string            `json:"date_of_birth"`
	PhoneNumber      string            `json:"phone_number"`
	Email            string            `json:"email"`
	Gender           Gender            `json:"gender"`
	IDNumber         string            `json:"id_number"`
	MaritalStatus    MaritalStatus     `json:"marital_status"`
	FormFourNumber   string            `json:"form_four_number"`
	RegistrationDate time.Time         `json:"registration_date"`
	IsActive         bool              `json:"is_active"`
	Documents        []DocumentView    `json:"documents"`
	Messages         []MessageView     `json:"messages"`
	Applications     []ApplicationView `json:"applications"`
}

// Profile bundles an account with its dependents as loaded from the store.
type Profile struct {
	Account      Account
	Documents    []Document
	Messages     []Message
	Applications []JobApplication
}

func NewDocumentView(d Document, url URLFunc) DocumentView {
	return DocumentView{
		DocumentType: d.DocumentType,
		File:         url(d.File),
		UploadedAt:   d.UploadedAt,
	}
}

func NewMessageView(m Message, url URLFunc) MessageView {
	v := MessageView{
		ID:         m.ID,
		Message:    m.Body,
		FileName:   optional(m.FileName),
		FileType:   optional(m.FileType),
		CreatedAt:  m.CreatedAt,
		AdminReply: optional(m.AdminReply),
		ReplyDate:  m.ReplyDate,
	}
	if m.File != "" {
		link := url(m.File)
		v.File = &link
	}
	return v
}

func NewApplicationView(a JobApplication, url URLFunc) ApplicationView {
	return ApplicationView{
		ID:              a.ID,
		JobTitle:        a.JobTitle,
		CV:              url(a.CV),
		CoverLetter:     url(a.CoverLetter),
		Status:          a.Status,
		ApplicationDate: a.ApplicationDate,
	}
}

func NewAccountView(p Profile, url URLFunc) AccountView {
	a := p.Account
	v := AccountView{
		ID:               a.ID,
		FirstName:        a.FirstName,
		MiddleName:       optional(a.MiddleName),
		LastName:         a.LastName,
		DateOfBirth:      a.DateOfBirth.Format(dateLayout),
		PhoneNumber:      a.PhoneNumber,
		Email:            a.Email,
		Gender:           a.Gender,
		IDNumber:         a.IDNumber,
		MaritalStatus:    a.MaritalStatus,
		FormFourNumber:   a.FormFourNumber,
		RegistrationDate: a.RegistrationDate,
		IsActive:         a.IsActive,
		Documents:        make([]DocumentView, 0, len(p.Documents)),
		Messages:         NewMessageViews(p.Messages, url),
		Applications:     make([]ApplicationView, 0, len(p.Applications)),
	}
	for _, d := range p.Documents {
		v.Documents = append(v.Documents, NewDocumentView(d, url))
	}
	for _, app := range p.Applications {
		v.Applications = append(v.Applications, NewApplicationView(app, url))
	}
	return v
}

func NewMessageViews(msgs []Message, url URLFunc) []MessageView {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, NewMessageView(m, url))
	}
	return views
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
