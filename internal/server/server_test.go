package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/db"
	"github.com/jonathan/cover-letter/internal/rendering"
	"github.com/jonathan/cover-letter/internal/server/ratelimit"
	"github.com/jonathan/cover-letter/internal/types"
)

const (
	testLetterText = "June 1, 2026\nJane Doe\n\nDear Hiring Team,\n\nI build **reliable systems**.\n\nSincerely,\nJane Doe"
	testMetaJSON   = `{"candidateName":"Jane Doe","company":"Acme","position":"Staff Engineer"}`
)

type testEnv struct {
	server *Server
	store  *memStore
	llm    *fakeLLM
	h      http.Handler
}

func newTestEnv(t *testing.T, rl *ratelimit.Config) *testEnv {
	t.Helper()
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	store := newMemStore()
	client := &fakeLLM{letter: testLetterText, json: testMetaJSON}
	s := NewWithDeps(Deps{
		Store:     store,
		Client:    client,
		JWT:       &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 24},
		Password:  &config.PasswordConfig{BcryptCost: bcrypt.MinCost},
		RateLimit: rl,
	})
	t.Cleanup(s.rateLimiter.Stop)
	return &testEnv{server: s, store: store, llm: client, h: s.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Jane Doe", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func (e *testEnv) uploadResume(t *testing.T, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		part, err := mw.CreateFormFile(resumeFormField, "resume.pdf")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	msg, _ := body["error"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodOptions, "/generate", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	routes := []struct{ method, path string }{
		{http.MethodPut, "/auth/password"},
		{http.MethodPost, "/upload-resume"},
		{http.MethodGet, "/resume-status"},
		{http.MethodPost, "/generate"},
		{http.MethodPost, "/generate-pdf"},
		{http.MethodPost, "/generate-docx"},
		{http.MethodGet, "/letters"},
		{http.MethodGet, "/letters/" + uuid.NewString()},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := env.do(t, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = env.do(t, rt.method, rt.path, "not-a-token", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token, userID := env.register(t, "Jane@Example.com")
	assert.NotEmpty(t, token)

	w := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorBody(t, w), "already registered")

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", errorBody(t, w))

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, userID, login.User.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPut, "/auth/password", login.Token, map[string]string{
		"currentPassword": "wrong-password", "newPassword": "new-password-1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPut, "/auth/password", login.Token, map[string]string{
		"currentPassword": "password123", "newPassword": "new-password-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "new-password-1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "jane@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"register invalid JSON", http.MethodPost, "/auth/register", "", "invalid json"},
		{"register empty body", http.MethodPost, "/auth/register", "", nil},
		{"register missing name", http.MethodPost, "/auth/register", "", map[string]string{"email": "a@b.co", "password": "password123"}},
		{"register bad email", http.MethodPost, "/auth/register", "", map[string]string{"name": "A", "email": "nope", "password": "password123"}},
		{"register short password", http.MethodPost, "/auth/register", "", map[string]string{"name": "A", "email": "a@b.co", "password": "short"}},
		{"login missing password", http.MethodPost, "/auth/login", "", map[string]string{"email": "a@b.co"}},
		{"password unchanged", http.MethodPut, "/auth/password", token, map[string]string{"currentPassword": "password123", "newPassword": "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, errorBody(t, w), "validation error")
		})
	}
}

func TestAuth_StoreFailureIsHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.failAll = errors.New("connection refused to 10.0.0.5")

	w := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestTokenForDeletedUserStillNeedsUser(t *testing.T) {
	env := newTestEnv(t, nil)
	token, err := env.server.JWT().GenerateToken(uuid.New())
	require.NoError(t, err)

	w := env.do(t, http.MethodPut, "/auth/password", token, map[string]string{
		"currentPassword": "password123", "newPassword": "new-password-1",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResumeUploadAndStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	token, userID := env.register(t, "jane@example.com")

	w := env.do(t, http.MethodGet, "/resume-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"hasResume":false}`, w.Body.String())

	pdf, err := rendering.RenderToPageFormat("Jane Doe\n\nSenior engineer with ten years of Go.")
	require.NoError(t, err)

	w = env.uploadResume(t, token, pdf)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var upload types.UploadResumeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.True(t, upload.Success)
	assert.Equal(t, "resume.pdf", upload.Filename)
	assert.Positive(t, upload.Characters)

	stored, err := env.store.GetResume(t.Context(), userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.Text, "ten years of Go")

	w = env.do(t, http.MethodGet, "/resume-status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status types.ResumeStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.HasResume)
	assert.Equal(t, "resume.pdf", status.Filename)
	require.NotNil(t, status.UploadedAt)
}

func TestResumeUpload_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "jane@example.com")

	w := env.uploadResume(t, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.uploadResume(t, token, []byte("plain text, not a pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "not a PDF")
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t, nil)
	token, userID := env.register(t, "jane@example.com")

	w := env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": "Acme is hiring."})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "no resume uploaded")

	require.NoError(t, env.store.SaveResume(t.Context(), &db.Resume{UserID: userID, Filename: "r.pdf", Text: "Senior engineer."}))

	w = env.do(t, http.MethodPost, "/generate", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": " \n\t "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": "Acme", "templateType": "limerick"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	job := "Acme is hiring a Staff Engineer. " + strings.Repeat("x", types.MaxJobTextRunes)
	w = env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": job, "templateType": "concise"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, testLetterText, resp.CoverLetter)
	assert.Equal(t, "Acme", resp.Metadata.Company)
	assert.NotEqual(t, uuid.Nil, resp.ID)

	stored, err := env.store.GetCoverLetter(t.Context(), userID, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "concise", stored.TemplateType)
	assert.Len(t, []rune(stored.JobText), types.MaxJobTextRunes)
	assert.Len(t, stored.JobHash, 64)
}

func TestGenerate_ModelFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	token, userID := env.register(t, "jane@example.com")
	require.NoError(t, env.store.SaveResume(t.Context(), &db.Resume{UserID: userID, Text: "Senior engineer."}))
	env.llm.err = errors.New("quota exceeded for key AIza-secret")

	w := env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": "Acme is hiring."})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to generate cover letter", errorBody(t, w))
	assert.NotContains(t, w.Body.String(), "AIza")
}

func TestRenderEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "jane@example.com")

	tests := []struct {
		path        string
		contentType string
		magic       string
		filename    string
	}{
		{"/generate-pdf", "application/pdf", "%PDF-", "Jane Doe - Acme Staff Engineer.pdf"},
		{"/generate-docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "PK", "Jane Doe - Acme Staff Engineer.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, token, types.RenderRequest{
				CoverLetter: testLetterText,
				Metadata:    &types.LetterMetadata{CandidateName: "Jane Doe", Company: "Acme", Position: "Staff Engineer"},
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.filename+`"`, w.Header().Get("Content-Disposition"))
			assert.True(t, strings.HasPrefix(w.Body.String(), tt.magic))
		})
	}
}

func TestRenderEndpoints_DefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.register(t, "jane@example.com")

	w := env.do(t, http.MethodPost, "/generate-docx", token, types.RenderRequest{CoverLetter: testLetterText})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename=cover-letter.docx`, w.Header().Get("Content-Disposition"))

	w = env.do(t, http.MethodPost, "/generate-pdf", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLetters(t *testing.T) {
	env := newTestEnv(t, nil)
	token, userID := env.register(t, "jane@example.com")
	otherToken, _ := env.register(t, "john@example.com")
	require.NoError(t, env.store.SaveResume(t.Context(), &db.Resume{UserID: userID, Text: "Senior engineer."}))

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/generate", token, map[string]string{"jobText": "Acme is hiring."})
		require.Equal(t, http.StatusOK, w.Code)
		var resp types.GenerateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		ids = append(ids, resp.ID)
	}

	w := env.do(t, http.MethodGet, "/letters", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Letters []types.LetterSummary `json:"letters"`
		Count   int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 3, list.Count)
	assert.Equal(t, ids[2], list.Letters[0].ID, "newest first")
	assert.Equal(t, "default", list.Letters[0].TemplateType)
	assert.Equal(t, "Staff Engineer", list.Letters[0].Metadata.Position)

	w = env.do(t, http.MethodGet, "/letters?limit=2", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	w = env.do(t, http.MethodGet, "/letters?limit=zero", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/letters/"+ids[0].String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var letter types.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &letter))
	assert.Equal(t, testLetterText, letter.CoverLetter)

	w = env.do(t, http.MethodGet, "/letters/"+ids[0].String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/letters/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/letters", otherToken, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
}

func TestRateLimitApplied(t *testing.T) {
	env := newTestEnv(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/auth/login", Method: http.MethodPost, Limit: 2, Window: time.Minute, Burst: 2},
		},
	})

	body := map[string]string{"email": "jane@example.com", "password": "password123"}
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := env.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
