package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"newsposter/internal/orchestrator"
	"newsposter/internal/statuslog"
	"newsposter/internal/task"
)

type fakeRunner struct {
	running bool
	batchID string
	state   orchestrator.State
	starts  int
}

func (r *fakeRunner) TryStart() (string, bool) {
	r.starts++
	if r.running {
		return "", false
	}
	r.running = true
	return r.batchID, true
}

func (r *fakeRunner) State() orchestrator.State { return r.state }

func setupRouter(runner *fakeRunner, password string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	testRouter := gin.New()
	apiHandler := NewAPI(runner, statuslog.New(nil), password)
	apiHandler.RegisterRoutes(testRouter)
	apiHandler.RegisterUIRoutes(testRouter)
	return testRouter
}

func TestStartBatch(t *testing.T) {
	runner := &fakeRunner{batchID: "batch-1"}
	testRouter := setupRouter(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["batch_id"] != "batch-1" {
		t.Fatalf("expected batch id in response, got %v", resp)
	}
}

func TestStartBatchConflictWhileRunning(t *testing.T) {
	runner := &fakeRunner{running: true}
	testRouter := setupRouter(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestGetBatchSnapshot(t *testing.T) {
	runner := &fakeRunner{state: orchestrator.State{
		Running:   true,
		BatchID:   "batch-2",
		Completed: 1,
		Tasks: []task.Task{
			{ID: "sports", CategoryName: "Sports", Status: task.StatusDone},
			{ID: "national", CategoryName: "National", Status: task.StatusError, Error: "no new articles for category"},
		},
	}}
	testRouter := setupRouter(runner, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Running   bool        `json:"running"`
		BatchID   string      `json:"batch_id"`
		Completed int         `json:"completed"`
		Tasks     []task.Task `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Running || resp.BatchID != "batch-2" || resp.Completed != 1 || len(resp.Tasks) != 2 {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
}

func TestGetLog(t *testing.T) {
	statusLog := statuslog.New(nil)
	statusLog.Info("sports", "gathering articles", nil)
	statusLog.Error("national", "article fetch failed", nil)

	gin.SetMode(gin.TestMode)
	testRouter := gin.New()
	NewAPI(&fakeRunner{}, statusLog, "").RegisterRoutes(testRouter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/log", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Entries []statuslog.Entry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Message != "gathering articles" {
		t.Fatalf("entries not in append order: %+v", resp.Entries)
	}
}

func TestAPIRequiresAuthWhenPasswordSet(t *testing.T) {
	testRouter := setupRouter(&fakeRunner{batchID: "b"}, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/batch", nil)
	req.Header.Set("X-Auth-Key", "s3cret")
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with header auth, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/batch", nil)
	req.Header.Set("X-Auth-Key", "wrong")
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", w.Code)
	}
}

func TestUILoginFlow(t *testing.T) {
	testRouter := setupRouter(&fakeRunner{}, "s3cret")

	// unauthenticated dashboard access bounces to the login form
	req := httptest.NewRequest(http.MethodGet, "/ui", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}

	// wrong password re-renders the form
	form := url.Values{"password": {"nope"}}
	req = httptest.NewRequest(http.MethodPost, "/ui/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	// correct password sets the cookie and redirects to the dashboard
	form = url.Values{"password": {"s3cret"}}
	req = httptest.NewRequest(http.MethodPost, "/ui/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/ui" {
		t.Fatalf("expected redirect to /ui, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	var auth *http.Cookie
	for _, c := range cookies {
		if c.Name == authCookieName {
			auth = c
		}
	}
	if auth == nil {
		t.Fatalf("auth cookie not set")
	}

	// cookie grants access to the dashboard
	req = httptest.NewRequest(http.MethodGet, "/ui", nil)
	req.AddCookie(auth)
	w = httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Start batch") {
		t.Fatalf("expected dashboard, got %d", w.Code)
	}
}

func TestUIDashboardRendersTasksAndLog(t *testing.T) {
	runner := &fakeRunner{state: orchestrator.State{
		BatchID:   "batch-3",
		Completed: 1,
		Tasks: []task.Task{
			{ID: "sports", CategoryName: "Sports", Status: task.StatusDone, Result: &task.Result{
				Headline: "Tigers clinch the series",
				ImageURL: "https://cdn.example/1.png",
			}},
			{ID: "national", CategoryName: "National", Status: task.StatusError, Error: "no new articles for category"},
		},
	}}
	statusLog := statuslog.New(nil)
	statusLog.Success("sports", "post published", nil)

	gin.SetMode(gin.TestMode)
	testRouter := gin.New()
	apiHandler := NewAPI(runner, statusLog, "")
	apiHandler.RegisterUIRoutes(testRouter)

	req := httptest.NewRequest(http.MethodGet, "/ui", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Tigers clinch the series", "no new articles for category", "post published", "batch-3"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestUIStartBatchRedirects(t *testing.T) {
	runner := &fakeRunner{batchID: "b"}
	testRouter := setupRouter(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/ui/batch", nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/ui" {
		t.Fatalf("expected redirect to /ui, got %d", w.Code)
	}
	if runner.starts != 1 {
		t.Fatalf("runner not triggered")
	}
}
