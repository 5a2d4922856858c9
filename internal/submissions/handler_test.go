package submissions_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"shadowpixel-backend/internal/bootstrap"
	"shadowpixel-backend/internal/shared/config"
)

func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/octocat":
			fmt.Fprint(w, `{"login":"octocat","name":"The Octocat","public_repos":8}`)
		case "/users/octocat/repos":
			fmt.Fprint(w, `[{"name":"hello-world","language":"Go","stargazers_count":42}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newOpenAIStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Experienced Go engineer with active OSS work."}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func buildTestApp(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	githubStub := newGitHubStub(t)
	openaiStub := newOpenAIStub(t)
	t.Setenv("OPENAI_BASE_URL", openaiStub.URL)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		LLMProvider:     "openai",
		LLMModel:        "gpt-3.5-turbo",
		GitHubBaseURL:   githubStub.URL,
		GitHubRepoLimit: 10,
		MaxUploadBytes:  5 << 20,
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func multipartUpload(t *testing.T, username, fileName, contents string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if username != "" {
		if err := writer.WriteField("github_username", username); err != nil {
			t.Fatalf("write username field: %v", err)
		}
	}
	fileWriter, err := writer.CreateFormFile("resume", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(contents)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestSubmissionLifecycle(t *testing.T) {
	router := buildTestApp(t)

	body, contentType := multipartUpload(t, "octocat", "resume.txt", "Experienced Go engineer, ships production services.")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		SubmissionID   string `json:"submissionId"`
		GitHubUsername string `json:"githubUsername"`
		Summary        string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.SubmissionID == "" {
		t.Fatalf("expected submissionId, got empty")
	}
	if created.Summary != "Experienced Go engineer with active OSS work." {
		t.Fatalf("unexpected summary %q", created.Summary)
	}

	// List shows the new submission.
	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respList.Code)
	}
	var listed []struct {
		SubmissionID string `json:"submissionId"`
		FileName     string `json:"fileName"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].SubmissionID != created.SubmissionID {
		t.Fatalf("unexpected list response: %+v", listed)
	}

	// Detail returns the stored summary and github data.
	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+created.SubmissionID, nil)
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respGet.Code)
	}
	var detail struct {
		GitHubData json.RawMessage `json:"githubData"`
	}
	if err := json.NewDecoder(respGet.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail response: %v", err)
	}
	if !bytes.Contains(detail.GitHubData, []byte("octocat")) {
		t.Fatalf("expected github data in detail: %s", detail.GitHubData)
	}

	// Extracted text is retrievable.
	reqText := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+created.SubmissionID+"/text", nil)
	respText := httptest.NewRecorder()
	router.ServeHTTP(respText, reqText)
	if respText.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respText.Code)
	}
	var textResp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(respText.Body).Decode(&textResp); err != nil {
		t.Fatalf("decode text response: %v", err)
	}
	if textResp.Text != "Experienced Go engineer, ships production services." {
		t.Fatalf("unexpected text %q", textResp.Text)
	}

	// Steps show the completed pipeline.
	reqSteps := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/"+created.SubmissionID+"/steps", nil)
	respSteps := httptest.NewRecorder()
	router.ServeHTTP(respSteps, reqSteps)
	if respSteps.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respSteps.Code)
	}
	var steps []struct {
		Step   string `json:"step"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(respSteps.Body).Decode(&steps); err != nil {
		t.Fatalf("decode steps response: %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	for _, step := range steps {
		if step.Status != "completed" {
			t.Fatalf("expected all steps completed, got %+v", step)
		}
	}
}

func TestSubmissionValidationErrors(t *testing.T) {
	router := buildTestApp(t)

	// Missing file.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("github_username", "octocat"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assertErrorCode(t, resp, http.StatusBadRequest, "validation_error")

	// Invalid username.
	uploadBody, contentType := multipartUpload(t, "-bad-", "resume.txt", "text")
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", uploadBody)
	req2.Header.Set("Content-Type", contentType)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)
	assertErrorCode(t, resp2, http.StatusBadRequest, "validation_error")
}

func TestSubmissionUnsupportedExtension(t *testing.T) {
	router := buildTestApp(t)

	// Disallowed extension.
	body, contentType := multipartUpload(t, "octocat", "resume.exe", "binary payload")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assertErrorCode(t, resp, http.StatusBadRequest, "unsupported_format")

	// Legacy .doc extension.
	body2, contentType2 := multipartUpload(t, "octocat", "resume.doc", "text")
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body2)
	req2.Header.Set("Content-Type", contentType2)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)
	assertErrorCode(t, resp2, http.StatusBadRequest, "unsupported_format")
}

func TestSubmissionGitHubUserNotFound(t *testing.T) {
	router := buildTestApp(t)

	body, contentType := multipartUpload(t, "ghost-user", "resume.txt", "resume text")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, "github_user_not_found")

	// Nothing was persisted.
	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/submissions", nil)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	var listed []json.RawMessage
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty list after failed pipeline, got %d", len(listed))
	}
}

func TestSubmissionDetailNotFound(t *testing.T) {
	router := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/does-not-exist", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assertErrorCode(t, resp, http.StatusNotFound, "not_found")
}

func assertErrorCode(t *testing.T, resp *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if resp.Code != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != wantCode {
		t.Fatalf("expected error code %q, got %q", wantCode, envelope.Error.Code)
	}
}
