package models

import "time"

type DocumentType string

const (
	DocumentPassportPhoto        DocumentType = "passport_photo"
	DocumentBirthCertificate     DocumentType = "birth_certificate"
	DocumentEducationCertificate DocumentType = "education_certificate"
)

// RegistrationDocuments lists the document types every registration carries,
// in the order they are persisted.
var RegistrationDocuments = []DocumentType{
	DocumentPassportPhoto,
	DocumentBirthCertificate,
	DocumentEducationCertificate,
}

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentPassportPhoto, DocumentBirthCertificate, DocumentEducationCertificate:
		return true
	}
	return false
}

// Document is an identity-verification file owned by an Account.
type Document struct {
	AccountID    string       `bson:"-"`
	DocumentType DocumentType `bson:"document_type"`
	File         string       `bson:"file"`
	UploadedAt   time.Time    `bson:"uploaded_at"`
}
