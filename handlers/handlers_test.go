package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zawamis/files"
	"zawamis/handlers"
	"zawamis/middleware"
	"zawamis/models"
	"zawamis/password"
	"zawamis/store"
)

type fixture struct {
	store   *store.MemoryStore
	handler http.Handler
	clock   time.Time
	// root is the media directory.
	root string
}

func newFixture(t *testing.T, opts handlers.Options, wrap func(store.Store) store.Store) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewMemoryStore(),
		clock: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		root:  t.TempDir(),
	}
	var st store.Store = f.store
	if wrap != nil {
		st = wrap(st)
	}
	media := files.NewLocalStorage(f.root, "/media/")
	h := handlers.New(handlers.Dependencies{
		Store:   st,
		Files:   media,
		Hasher:  password.Legacy{},
		Limiter: middleware.NewRateLimiter(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options: opts,
		Media:   media.Handler(),
		Now:     func() time.Time { return f.clock },
	})
	mux := http.NewServeMux()
	h.SetupRoutes(mux)
	f.handler = middleware.Chain(mux, middleware.BodyLimit(h.MaxBodySize()))
	return f
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, u := range uploads {
		fw, err := w.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, u.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func registrationFields(email, idNumber string) map[string]string {
	return map[string]string{
		"firstName":       "Asha",
		"lastName":        "Mushi",
		"dateOfBirth":     "1998-04-02",
		"phoneNumber":     "0712345678",
		"email":           email,
		"gender":          "female",
		"idNumber":        idNumber,
		"maritalStatus":   "single",
		"formFourNumber":  "S0101/0001/2014",
		"password":        "secret123",
		"confirmPassword": "secret123",
	}
}

var registrationUploads = []upload{
	{"passportPhoto", "passport.jpg", "jpeg bytes"},
	{"birthCertificate", "birth.pdf", "%PDF birth"},
	{"educationCertificate", "education.pdf", "%PDF education"},
}

func (f *fixture) register(t *testing.T, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(multipartRequest(t, http.MethodPost, "/register/", fields, registrationUploads...))
}

// registered registers an account and returns its ID.
func (f *fixture) registered(t *testing.T, email, idNumber string) string {
	t.Helper()
	rec := f.register(t, registrationFields(email, idNumber))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	return user["id"].(string)
}

func TestHome(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Welcome to Zawamis API", body["message"])
	assert.Len(t, body["endpoints"], 5)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRegister(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	rec := f.register(t, registrationFields("a@x.com", "ID1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Registration successful", body["message"])
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "password")
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "1998-04-02", user["date_of_birth"])
	assert.Nil(t, user["middle_name"])
	assert.Equal(t, true, user["is_active"])
	assert.Empty(t, user["messages"])
	assert.Empty(t, user["applications"])

	docs := user["documents"].([]any)
	require.Len(t, docs, 3)
	var types []string
	for _, d := range docs {
		doc := d.(map[string]any)
		types = append(types, doc["document_type"].(string))
		assert.True(t, strings.HasPrefix(doc["file"].(string), "/media/user_documents/2025/03/14/"), doc["file"])
	}
	assert.Equal(t, []string{"passport_photo", "birth_certificate", "education_certificate"}, types)

	accounts, err := f.store.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, user["id"], accounts[0].ID)
	assert.True(t, password.Legacy{}.Verify("secret123", accounts[0].PasswordHash))

	stored, err := f.store.ListDocuments(context.Background(), accounts[0].ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, d := range stored {
		assert.Equal(t, accounts[0].ID, d.AccountID)
	}

	// The stored file is served back under the media URL.
	served := f.do(httptest.NewRequest(http.MethodGet, docs[1].(map[string]any)["file"].(string), nil))
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "%PDF birth", served.Body.String())
}

func TestRegisterDuplicateEmailWinsOverFieldErrors(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")

	fields := registrationFields("a@x.com", "ID2")
	delete(fields, "firstName")
	fields["confirmPassword"] = "different"
	rec := f.do(multipartRequest(t, http.MethodPost, "/register/", fields))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email already registered. Please login instead.", body["message"])
	assert.NotContains(t, body, "errors")
}

func TestRegisterDuplicateIDNumber(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")

	rec := f.register(t, registrationFields("b@x.com", "ID1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID Number already registered.", decode(t, rec)["message"])

	accounts, err := f.store.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestRegisterDuplicateEmailIgnoresPadding(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")

	rec := f.register(t, registrationFields("  a@x.com ", "ID2"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered. Please login instead.", decode(t, rec)["message"])
}

// racingStore lets a second registration past the uniqueness pre-check, as
// when two requests for the same email run concurrently.
type racingStore struct {
	store.Store
}

func (racingStore) AccountExists(context.Context, store.AccountKey, string) (bool, error) {
	return false, nil
}

func mediaFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRegisterDuplicateAtStoreRemovesDocuments(t *testing.T) {
	f := newFixture(t, handlers.Options{}, func(s store.Store) store.Store { return racingStore{s} })
	f.registered(t, "a@x.com", "ID1")
	require.Len(t, mediaFiles(t, f.root), 3)

	rec := f.register(t, registrationFields("a@x.com", "ID2"))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Database error: User might already exist", body["message"])

	assert.Len(t, mediaFiles(t, f.root), 3)
	accounts, err := f.store.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestMediaDirectoriesAreNotListed(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")

	for _, target := range []string{"/media/", "/media/user_documents/", "/media/user_documents/2025/03/14/"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "passport", target)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	fields := registrationFields("a@x.com", "ID1")
	fields["confirmPassword"] = "secret124"

	rec := f.register(t, fields)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Contains(t, body["errors"], "confirm_password")

	accounts, err := f.store.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRegisterMissingDocuments(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	rec := f.do(multipartRequest(t, http.MethodPost, "/register", registrationFields("a@x.com", "ID1"),
		upload{"passportPhoto", "passport.exe", "MZ"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "passport_photo")
	assert.Contains(t, errs, "birth_certificate")
	assert.Contains(t, errs, "education_certificate")
}

func TestLogin(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(jsonRequest(t, "/login/", map[string]string{"email": "a@x.com", "password": "secret123"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, id, user["id"])
	assert.NotContains(t, user, "password")
	assert.Len(t, user["documents"], 3)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")
	inactive := f.registered(t, "b@x.com", "ID2")
	require.NoError(t, f.store.SetAccountActive(context.Background(), inactive, false))

	attempts := map[string]map[string]string{
		"wrong password": {"email": "a@x.com", "password": "nope"},
		"unknown email":  {"email": "c@x.com", "password": "secret123"},
		"inactive":       {"email": "b@x.com", "password": "secret123"},
	}
	var bodies []string
	for name, creds := range attempts {
		rec := f.do(jsonRequest(t, "/login", creds))
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])
	assert.JSONEq(t, `{"success":false,"message":"Invalid email or password"}`, bodies[0])
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	rec := f.do(jsonRequest(t, "/login/", map[string]string{"email": "not-an-email"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Invalid data", body["message"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestLoginAcceptsFormBody(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	f.registered(t, "a@x.com", "ID1")

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader("email=a%40x.com&password=secret123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, handlers.Options{LoginLimit: 2, LoginWindow: time.Minute}, nil)
	creds := map[string]string{"email": "a@x.com", "password": "nope"}
	for range 2 {
		assert.Equal(t, http.StatusUnauthorized, f.do(jsonRequest(t, "/login/", creds)).Code)
	}
	rec := f.do(jsonRequest(t, "/login/", creds))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many login attempts. Please try again later.", decode(t, rec)["message"])
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	f := newFixture(t, handlers.Options{LoginLimit: 2, LoginWindow: time.Minute}, nil)
	creds := map[string]string{"email": "a@x.com", "password": "nope"}
	attempt := func(forwarded string) int {
		req := jsonRequest(t, "/login/", creds)
		req.Header.Set("X-Forwarded-For", forwarded)
		return f.do(req).Code
	}
	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.1"))
	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("198.51.100.3"))
}

func TestLoginRateLimitBehindProxy(t *testing.T) {
	f := newFixture(t, handlers.Options{LoginLimit: 1, LoginWindow: time.Minute, TrustProxyHeaders: true}, nil)
	creds := map[string]string{"email": "a@x.com", "password": "nope"}
	attempt := func(forwarded string) int {
		req := jsonRequest(t, "/login/", creds)
		req.Header.Set("X-Forwarded-For", forwarded)
		return f.do(req).Code
	}
	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.1"))
	assert.Equal(t, http.StatusUnauthorized, attempt("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("198.51.100.1"))
}

func TestLoginBodyTooLarge(t *testing.T) {
	f := newFixture(t, handlers.Options{MaxUploadSize: 1}, nil)
	huge := strings.Repeat("x", 2<<20)
	rec := f.do(jsonRequest(t, "/login/", map[string]string{"email": "a@x.com", "password": huge}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/profile/"+id+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id, body["user"].(map[string]any)["id"])

	for _, target := range []string{"/profile/999/", "/profile/not-an-id"} {
		rec = f.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "User not found", decode(t, rec)["message"])
	}

	require.NoError(t, f.store.SetAccountActive(context.Background(), id, false))
	rec = f.do(httptest.NewRequest(http.MethodGet, "/profile/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyJob(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(multipartRequest(t, http.MethodPost, "/apply-job/",
		map[string]string{"user_id": id, "job_title": "Field Officer"},
		upload{"cv", "cv.pdf", "%PDF cv"},
		upload{"cover_letter", "letter.docx", "docx"},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Application submitted successfully", decode(t, rec)["message"])

	apps, err := f.store.ListApplications(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Field Officer", apps[0].JobTitle)
	assert.Equal(t, models.StatusPending, apps[0].Status)
	assert.True(t, strings.HasPrefix(apps[0].CV, files.CVDir+"/"))
	assert.True(t, strings.HasPrefix(apps[0].CoverLetter, files.CoverLettersDir+"/"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/profile/"+id+"/", nil))
	user := decode(t, rec)["user"].(map[string]any)
	view := user["applications"].([]any)[0].(map[string]any)
	assert.Equal(t, "pending", view["status"])
	assert.True(t, strings.HasPrefix(view["cv"].(string), "/media/applications/cv/"))
}

func TestApplyJobInvalid(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(multipartRequest(t, http.MethodPost, "/apply-job/", map[string]string{"user_id": id}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Invalid data", body["message"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "job_title")
	assert.Contains(t, errs, "cv")
	assert.Contains(t, errs, "cover_letter")
}

func TestSubmissionsRequireActiveUser(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	inactive := f.registered(t, "a@x.com", "ID1")
	require.NoError(t, f.store.SetAccountActive(context.Background(), inactive, false))

	submit := map[string]func(t *testing.T, userID string) *http.Request{
		"apply": func(t *testing.T, userID string) *http.Request {
			return multipartRequest(t, http.MethodPost, "/apply-job/",
				map[string]string{"user_id": userID, "job_title": "Clerk"},
				upload{"cv", "cv.pdf", "cv"}, upload{"cover_letter", "cl.pdf", "cl"})
		},
		"message": func(t *testing.T, userID string) *http.Request {
			return multipartRequest(t, http.MethodPost, "/messages/",
				map[string]string{"user_id": userID, "message": "hello"})
		},
	}
	for name, req := range submit {
		t.Run(name, func(t *testing.T) {
			for _, userID := range []string{"999", inactive} {
				rec := f.do(req(t, userID))
				assert.Equal(t, http.StatusNotFound, rec.Code)
				assert.Equal(t, "User not found", decode(t, rec)["message"])
			}
			rec := f.do(req(t, ""))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "User ID is required", decode(t, rec)["message"])
		})
	}

	apps, err := f.store.ListApplications(context.Background(), inactive)
	require.NoError(t, err)
	assert.Empty(t, apps)
	msgs, err := f.store.ListMessages(context.Background(), inactive)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMessagesNewestFirst(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	send := func(body string) {
		rec := f.do(multipartRequest(t, http.MethodPost, "/messages/", map[string]string{"user_id": id, "message": body}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	send("first")
	f.clock = f.clock.Add(time.Minute)
	send("second")
	send("third")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/messages/"+id+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	for _, m := range decode(t, rec)["messages"].([]any) {
		got = append(got, m.(map[string]any)["message"].(string))
	}
	assert.Equal(t, []string{"second", "third", "first"}, got)
}

func TestMessageWithFile(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(multipartRequest(t, http.MethodPost, "/messages/",
		map[string]string{"user_id": id, "message": ""},
		upload{"file", "notes.txt", "see attached"},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/messages/"+id, nil))
	msgs := decode(t, rec)["messages"].([]any)
	require.Len(t, msgs, 1)
	m := msgs[0].(map[string]any)
	assert.Equal(t, "", m["message"])
	assert.Equal(t, "notes.txt", m["file_name"])
	assert.Equal(t, "application/octet-stream", m["file_type"])
	assert.True(t, strings.HasPrefix(m["file"].(string), "/media/user_messages/"))
	assert.Nil(t, m["admin_reply"])
}

func TestMessageRequiresMessageField(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(multipartRequest(t, http.MethodPost, "/messages/", map[string]string{"user_id": id}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["errors"], "message")
}

func TestMessageFileNameTooLong(t *testing.T) {
	f := newFixture(t, handlers.Options{}, nil)
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(multipartRequest(t, http.MethodPost, "/messages/",
		map[string]string{"user_id": id, "message": "hi"},
		upload{"file", strings.Repeat("a", 300) + ".pdf", "%PDF"},
	))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Invalid data", body["message"])
	assert.Contains(t, body["errors"], "file")
	assert.Len(t, mediaFiles(t, f.root), 3)
}

type brokenMessages struct {
	store.Store
}

func (brokenMessages) ListMessages(context.Context, string) ([]models.Message, error) {
	return nil, errors.New("connection reset by peer")
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	f := newFixture(t, handlers.Options{}, func(s store.Store) store.Store { return brokenMessages{s} })
	id := f.registered(t, "a@x.com", "ID1")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/messages/"+id+"/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Error retrieving messages", body["message"])
	assert.NotEmpty(t, body["error_id"])
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t, handlers.Options{LoginLimit: 10, LoginWindow: time.Minute}, nil)

	rec := f.register(t, registrationFields("a@x.com", "ID1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	assert.Len(t, user["documents"], 3)
	id := user["id"].(string)

	rec = f.do(multipartRequest(t, http.MethodPost, "/messages/", map[string]string{"user_id": id, "message": "hello"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/messages/"+id+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode(t, rec)["messages"].([]any)
	require.Len(t, msgs, 1)
	m := msgs[0].(map[string]any)
	assert.Equal(t, "hello", m["message"])
	assert.Nil(t, m["file"])
	assert.Nil(t, m["file_name"])
	assert.Nil(t, m["file_type"])

	rec = f.do(jsonRequest(t, "/login/", map[string]string{"email": "a@x.com", "password": "wrong"}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["message"])
}
