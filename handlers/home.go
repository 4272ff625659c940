package handlers

import "net/http"

type homeResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// Home describes the service and its endpoints.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, homeResponse{
		Message: "Welcome to Zawamis API",
		Endpoints: map[string]string{
			"register":  "/register/",
			"login":     "/login/",
			"profile":   "/profile/{id}/",
			"apply_job": "/apply-job/",
			"messages":  "/messages/",
		},
	})
}
