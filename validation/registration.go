package validation

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"zawamis/apperror"
	"zawamis/models"
	"zawamis/store"
)

const (
	MsgEmailTaken    = "Email already registered. Please login instead."
	MsgIDNumberTaken = "ID Number already registered."
)

// AccountExister is the part of the store the uniqueness checks need.
type AccountExister interface {
	AccountExists(ctx context.Context, key store.AccountKey, value string) (bool, error)
}

// Registration is validated registration input. Account has no ID, digest
// or timestamps yet.
type Registration struct {
	Account  models.Account
	Password string
	Files    map[models.DocumentType]*multipart.FileHeader
}

// CheckUnique runs the friendly duplicate checks that precede field
// validation. The store's unique constraints remain the authoritative guard.
func CheckUnique(ctx context.Context, s AccountExister, values map[string][]string) error {
	checks := []struct {
		key   store.AccountKey
		field string
		msg   string
	}{
		{store.KeyEmail, "email", MsgEmailTaken},
		{store.KeyIDNumber, "id_number", MsgIDNumberTaken},
	}
	for _, c := range checks {
		// Trimmed like the validated value, so padding cannot dodge the check.
		v := strings.TrimSpace(first(values, c.field))
		if v == "" {
			continue
		}
		exists, err := s.AccountExists(ctx, c.key, v)
		if err != nil {
			return fmt.Errorf("check %s: %w", c.field, err)
		}
		if exists {
			return apperror.New(apperror.KindDuplicate, c.msg)
		}
	}
	return nil
}

// ValidateRegistration checks a remapped registration form.
func ValidateRegistration(values map[string][]string, fileMap map[string][]*multipart.FileHeader, maxSize int64) (*Registration, apperror.FieldErrors) {
	f := newForm(values, fileMap, maxSize)
	acc := models.Account{
		FirstName:      f.required("first_name", 100),
		MiddleName:     f.optional("middle_name", 100),
		LastName:       f.required("last_name", 100),
		DateOfBirth:    f.date("date_of_birth"),
		PhoneNumber:    f.required("phone_number", 15),
		Email:          f.email("email"),
		Gender:         models.Gender(f.choice("gender", func(v string) bool { return models.Gender(v).Valid() })),
		IDNumber:       f.required("id_number", 20),
		MaritalStatus:  models.MaritalStatus(f.choice("marital_status", func(v string) bool { return models.MaritalStatus(v).Valid() })),
		FormFourNumber: f.required("form_four_number", 50),
		IsActive:       true,
	}

	password := f.secret("password")
	if password != "" && len([]rune(password)) < minPasswordN {
		f.errs.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordN))
	}
	confirm := f.secret("confirm_password")

	docs := make(map[models.DocumentType]*multipart.FileHeader, len(models.RegistrationDocuments))
	for _, dt := range models.RegistrationDocuments {
		if fh := f.file(string(dt), true); fh != nil {
			docs[dt] = fh
		}
	}

	// Reported even when other fields failed.
	if !f.errs.Has("confirm_password") && password != confirm {
		f.errs.Add("confirm_password", msgMismatch)
	}
	if errs := f.result(); errs != nil {
		return nil, errs
	}
	return &Registration{Account: acc, Password: password, Files: docs}, nil
}

func first(values map[string][]string, field string) string {
	if v := values[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}
