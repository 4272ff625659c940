package handlers

import (
	"fmt"
	"net/http"

	"zawamis/apperror"
	"zawamis/files"
	"zawamis/models"
	"zawamis/validation"
)

// ApplyJob records a job application with its CV and cover letter.
func (h *Handler) ApplyJob(w http.ResponseWriter, r *http.Request) {
	defer cleanup(r)
	const failed = "Application failed"

	form, err := parseForm(r)
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	acc, err := h.activeAccount(r, formValue(form.Values, "user_id"))
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	in, fieldErrs := validation.ValidateApplication(form.Values, form.Files, h.opts.MaxUploadSize)
	if fieldErrs != nil {
		h.writeError(w, r, apperror.Validation("Invalid data", fieldErrs), failed)
		return
	}

	ctx := r.Context()
	stored, err := files.SaveAll(ctx, h.files, []files.Upload{
		{Dir: files.CVDir, Header: in.CV},
		{Dir: files.CoverLettersDir, Header: in.CoverLetter},
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("store application files: %w", err), failed)
		return
	}
	app := &models.JobApplication{
		AccountID:       acc.ID,
		JobTitle:        in.JobTitle,
		CV:              stored[0].Ref,
		CoverLetter:     stored[1].Ref,
		Status:          models.StatusPending,
		ApplicationDate: h.now(),
	}
	if err := h.store.CreateApplication(ctx, app); err != nil {
		files.Discard(ctx, h.files, stored)
		h.writeError(w, r, fmt.Errorf("create application: %w", err), failed)
		return
	}
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "Application submitted successfully"})
}
