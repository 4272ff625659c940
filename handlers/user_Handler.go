package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"zawamis/apperror"
	"zawamis/files"
	"zawamis/forms"
	"zawamis/middleware"
	"zawamis/models"
	"zawamis/store"
	"zawamis/validation"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUserExists         = "Database error: User might already exist"
)

var errInvalidCredentials = apperror.New(apperror.KindUnauthorized, msgInvalidCredentials)

// Register creates an account and its three identity documents from a
// multipart form that uses the client's camelCase field names.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	defer cleanup(r)
	const failed = "Registration failed"

	form, err := parseForm(r)
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	values := forms.Remap(form.Values, forms.RegistrationFields)
	uploads := forms.Remap(form.Files, forms.RegistrationFields)

	if err := validation.CheckUnique(r.Context(), h.store, values); err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	reg, fieldErrs := validation.ValidateRegistration(values, uploads, h.opts.MaxUploadSize)
	if fieldErrs != nil {
		h.writeError(w, r, apperror.Validation("Validation failed", fieldErrs), failed)
		return
	}

	profile, err := h.createAccount(r, reg)
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	view := models.NewAccountView(*profile, h.files.URL)
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "Registration successful", User: &view})
}

func (h *Handler) createAccount(r *http.Request, reg *validation.Registration) (*models.Profile, error) {
	ctx := r.Context()
	now := h.now()

	digest, err := h.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := reg.Account
	acc.PasswordHash = digest
	acc.RegistrationDate = now

	dir := files.DocumentsDir(now)
	pending := make([]files.Upload, 0, len(models.RegistrationDocuments))
	for _, dt := range models.RegistrationDocuments {
		pending = append(pending, files.Upload{Dir: dir, Header: reg.Files[dt]})
	}
	stored, err := files.SaveAll(ctx, h.files, pending)
	if err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}

	docs := make([]models.Document, 0, len(stored))
	for i, dt := range models.RegistrationDocuments {
		docs = append(docs, models.Document{DocumentType: dt, File: stored[i].Ref, UploadedAt: now})
	}

	if err := h.store.CreateAccount(ctx, &acc, docs); err != nil {
		files.Discard(ctx, h.files, stored)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Wrap(apperror.KindDuplicate, msgUserExists, err)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	h.logger.InfoContext(ctx, "account registered",
		"request_id", middleware.RequestIDFromContext(ctx),
		"user_id", acc.ID,
	)
	return &models.Profile{Account: acc, Documents: docs}, nil
}

// Login checks credentials and returns the full profile. Unknown email,
// inactive account and wrong password all get the same 401.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	defer cleanup(r)
	const failed = "Login failed"

	values, err := parseLoginBody(r)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindValidation {
			err = apperror.Wrap(apperror.KindValidation, "Invalid data", err)
		}
		h.writeError(w, r, err, failed)
		return
	}

	if h.limiter != nil && h.opts.LoginLimit > 0 {
		key := "login:" + middleware.ClientIP(r, h.opts.TrustProxyHeaders) + ":" + strings.ToLower(formValue(values, "email"))
		if !h.limiter.Allow(key, h.opts.LoginLimit, h.opts.LoginWindow) {
			h.writeError(w, r, apperror.New(apperror.KindRateLimited, "Too many login attempts. Please try again later."), failed)
			return
		}
	}

	creds, fieldErrs := validation.ValidateLogin(values)
	if fieldErrs != nil {
		h.writeError(w, r, apperror.Validation("Invalid data", fieldErrs), failed)
		return
	}

	acc, err := h.store.FindAccount(r.Context(), store.ActiveByEmail(creds.Email))
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, r, errInvalidCredentials, failed)
		return
	}
	if err != nil {
		h.writeError(w, r, fmt.Errorf("load user by email: %w", err), failed)
		return
	}
	if !h.hasher.Verify(creds.Password, acc.PasswordHash) {
		h.writeError(w, r, errInvalidCredentials, failed)
		return
	}

	profile, err := store.LoadProfile(r.Context(), h.store, *acc)
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	view := models.NewAccountView(*profile, h.files.URL)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Login successful", User: &view})
}

// Profile returns the full projection of an active account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	const failed = "Error retrieving user"

	acc, err := h.activeAccount(r, r.PathValue("user_id"))
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	profile, err := store.LoadProfile(r.Context(), h.store, *acc)
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	view := models.NewAccountView(*profile, h.files.URL)
	writeJSON(w, http.StatusOK, response{Success: true, User: &view})
}
