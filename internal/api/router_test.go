package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"shahiengineers/internal/auth"
	"shahiengineers/internal/config"
	"shahiengineers/internal/storage"
	"shahiengineers/internal/store"
)

type fakeStorage struct {
	uploaded map[string][]byte
	types    map[string]string
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded: map[string][]byte{},
		types:    map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectKey string, reader io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.uploaded[objectKey] = b
	s.types[objectKey] = contentType
	return nil
}

func (s *fakeStorage) GetObject(_ context.Context, objectKey string) (io.ReadCloser, storage.ObjectInfo, error) {
	b, ok := s.uploaded[objectKey]
	if !ok {
		return nil, storage.ObjectInfo{}, errors.New("NoSuchKey: object does not exist")
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectInfo{
		Size:        int64(len(b)),
		ContentType: s.types[objectKey],
	}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	delete(s.types, objectKey)
	return nil
}

type testServer struct {
	router      *gin.Engine
	users       *store.MemoryUserStore
	submissions *store.MemorySubmissionStore
	storage     *fakeStorage
	authService *auth.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	authService, err := auth.NewAuthService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	cfg := &config.Config{
		API: config.APIConfig{Port: 8080},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			TokenTTL:              time.Hour,
			LoginRateLimitPerHour: 100,
			LoginLockThreshold:    5,
			LoginLockTTL:          15 * time.Minute,
		},
		Upload: config.UploadConfig{
			MaxBytes:          1024 * 1024,
			AllowedExtensions: ".pdf,.doc,.docx",
		},
	}

	users := store.NewMemoryUserStore()
	submissions := store.NewMemorySubmissionStore()
	objectStorage := newFakeStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(cfg, logger)
	RegisterRoutes(router, cfg, users, submissions, authService, redisClient, objectStorage, logger)

	return &testServer{
		router:      router,
		users:       users,
		submissions: submissions,
		storage:     objectStorage,
		authService: authService,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signup(t *testing.T, name, email, password string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/signup", "", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup: status = %d body=%s", w.Code, w.Body.String())
	}
}

func (ts *testServer) login(t *testing.T, email, password string) (token, role string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token, resp.Role
}

// adminToken 通过引导路径把账号提升为管理员后重新登录。
func (ts *testServer) adminToken(t *testing.T, email, password string) string {
	t.Helper()
	if _, err := ts.users.SetRole(context.Background(), email, auth.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	token, role := ts.login(t, email, password)
	if role != auth.RoleAdmin {
		t.Fatalf("role = %q, want admin", role)
	}
	return token
}

func (ts *testServer) uploadResume(t *testing.T, token, filename string, content []byte) (reference string, w *httptest.ResponseRecorder) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload-resume", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code == http.StatusCreated {
		var resp struct {
			Reference string `json:"reference"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode upload response: %v", err)
		}
		reference = resp.Reference
	}
	return reference, w
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/contact", "", gin.H{
		"name": "A", "email": "a@x.com", "message": "hi",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing credential") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/contact", "garbage-token", gin.H{
		"name": "A", "email": "a@x.com", "message": "hi",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid or expired credential") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"name":"A","email":"a@x.com","message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestRoleGate_UserForbiddenNotUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, role := ts.login(t, "a@x.com", "secret123")
	if role != auth.RoleUser {
		t.Fatalf("role = %q, want user", role)
	}

	for _, path := range []string{"/admin-dashboard", "/api/admin/contacts", "/api/admin/resumes"} {
		w := ts.do(t, http.MethodGet, path, token, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("GET %s: status = %d, want 403", path, w.Code)
		}
	}
}

func TestPromoteScenario_EndToEnd(t *testing.T) {
	ts := newTestServer(t)

	ts.signup(t, "A", "a@x.com", "secret123")
	userToken, _ := ts.login(t, "a@x.com", "secret123")

	// 普通用户访问管理端：403。
	if w := ts.do(t, http.MethodGet, "/admin-dashboard", userToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("pre-promotion status = %d, want 403", w.Code)
	}

	// 既有管理员对其提权。
	ts.signup(t, "Root", "root@x.com", "rootsecret")
	rootToken := ts.adminToken(t, "root@x.com", "rootsecret")

	if w := ts.do(t, http.MethodPost, "/api/admin/users/a@x.com/promote", rootToken, nil); w.Code != http.StatusOK {
		t.Fatalf("promote status = %d body=%s", w.Code, w.Body.String())
	}

	// 旧令牌仍是 user 角色，需要重新登录。
	newToken, role := ts.login(t, "a@x.com", "secret123")
	if role != auth.RoleAdmin {
		t.Fatalf("role after promotion = %q, want admin", role)
	}
	if w := ts.do(t, http.MethodGet, "/admin-dashboard", newToken, nil); w.Code != http.StatusOK {
		t.Fatalf("post-promotion status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestPromoteUser_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "Root", "root@x.com", "rootsecret")
	rootToken := ts.adminToken(t, "root@x.com", "rootsecret")

	w := ts.do(t, http.MethodPost, "/api/admin/users/ghost@x.com/promote", rootToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
