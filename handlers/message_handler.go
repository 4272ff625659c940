package handlers

import (
	"fmt"
	"net/http"

	"zawamis/apperror"
	"zawamis/files"
	"zawamis/models"
	"zawamis/validation"
)

// SubmitMessage stores a message from an applicant, with at most one
// attachment.
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	defer cleanup(r)
	const failed = "Message sending failed"

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
	in, fieldErrs := validation.ValidateMessage(form.Values, form.Files, h.opts.MaxUploadSize)
	if fieldErrs != nil {
		h.writeError(w, r, apperror.Validation("Invalid data", fieldErrs), failed)
		return
	}

	ctx := r.Context()
	msg := &models.Message{AccountID: acc.ID, Body: in.Body, CreatedAt: h.now()}
	var stored []files.Stored
	if in.File != nil {
		saved, err := files.Save(ctx, h.files, files.MessagesDir, in.File)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("store message file: %w", err), failed)
			return
		}
		stored = append(stored, saved)
		msg.File = saved.Ref
		msg.FileName = saved.Name
		msg.FileType = saved.ContentType
	}
	if err := h.store.CreateMessage(ctx, msg); err != nil {
		files.Discard(ctx, h.files, stored)
		h.writeError(w, r, fmt.Errorf("create message: %w", err), failed)
		return
	}
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "Message sent successfully"})
}

// ListMessages returns an account's messages, newest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	const failed = "Error retrieving messages"

	acc, err := h.activeAccount(r, r.PathValue("user_id"))
	if err != nil {
		h.writeError(w, r, err, failed)
		return
	}
	msgs, err := h.store.ListMessages(r.Context(), acc.ID)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("list messages: %w", err), failed)
		return
	}
	views := models.NewMessageViews(msgs, h.files.URL)
	writeJSON(w, http.StatusOK, response{Success: true, Messages: &views})
}
