package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/access"
	"github.com/playbook-access-api/internal/api"
	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/config"
	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/mocks"
	"github.com/playbook-access-api/internal/models"
	"github.com/rs/zerolog"
)

const testPromoJSON = `{
	"masterCodes": ["ALL2024"],
	"chapterCodes": {"chapter_1": ["C1X"], "chapter_5": ["C5Y"]}
}`

const testChaptersJSON = `[
	{"id": 1, "title": "One"},
	{"id": 2, "title": "Two"},
	{"id": 3, "title": "Three"},
	{"id": 4, "title": "Four"},
	{"id": 5, "title": "Five"}
]`

func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockIdentityProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Parse([]byte(testPromoJSON), []byte(testChaptersJSON))
	if err != nil {
		t.Fatalf("failed to build test catalog: %v", err)
	}

	provider := mocks.NewMockIdentityProvider()
	log := zerolog.Nop()

	accessSvc := access.New(cat, provider, log)
	if err := accessSvc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start access service: %v", err)
	}
	t.Cleanup(accessSvc.Stop)

	contentSvc := content.NewService(mocks.NewMockContentRepository(), log)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
	}

	router := api.NewRouter(api.Deps{
		Access:   accessSvc,
		Identity: provider,
		Content:  contentSvc,
		Catalog:  cat,
	}, cfg, log)

	return router, provider
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "playbook-access-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestSessionEndpoint_Anonymous(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "GET", "/v1/auth/session", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		User              *models.User `json:"user"`
		Chapters          []int        `json:"accessible_chapters"`
		HasExtendedAccess bool         `json:"has_extended_access"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response.User != nil {
		t.Errorf("Expected nil user, got %+v", response.User)
	}
	if len(response.Chapters) != 1 || response.Chapters[0] != 1 {
		t.Errorf("Expected accessible chapters [1], got %v", response.Chapters)
	}
	if response.HasExtendedAccess {
		t.Error("Anonymous session must not have extended access")
	}
}

func TestChapterList_LockFlags(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1", Promocode: "C5Y"})

	w := doJSON(router, "GET", "/v1/chapters", "tok", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Chapters []struct {
			ID     int  `json:"id"`
			Locked bool `json:"locked"`
		} `json:"chapters"`
		HasExtendedAccess bool `json:"has_extended_access"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	if len(response.Chapters) != 5 {
		t.Fatalf("Expected 5 chapters, got %d", len(response.Chapters))
	}
	if !response.HasExtendedAccess {
		t.Error("Expected extended access with a chapter code")
	}
	for _, ch := range response.Chapters {
		wantLocked := ch.ID != 1 && ch.ID != 5
		if ch.Locked != wantLocked {
			t.Errorf("Chapter %d: expected locked=%v, got %v", ch.ID, wantLocked, ch.Locked)
		}
	}
}

func TestRouteGuard_AnonymousRedirectsToSignIn(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "GET", "/v1/chapters/2", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["redirect"] != "signin" {
		t.Errorf("Expected signin redirect, got %v", response["redirect"])
	}
}

func TestRouteGuard_LockedChapterRedirectsToFreeChapter(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1"})

	// Free chapter passes.
	w := doJSON(router, "GET", "/v1/chapters/1", "tok", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for chapter 1, got %d", w.Code)
	}

	// Locked chapter is redirected with a promocode notice.
	w = doJSON(router, "GET", "/v1/chapters/2", "tok", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["redirect_chapter"].(float64) != 1 {
		t.Errorf("Expected redirect to chapter 1, got %v", response["redirect_chapter"])
	}
}

func TestRouteGuard_InvalidChapterIDRedirectsToGallery(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1"})

	w := doJSON(router, "GET", "/v1/chapters/abc", "tok", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["redirect"] != "gallery" {
		t.Errorf("Expected gallery redirect, got %v", response["redirect"])
	}
}

func TestUnlockFlow(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1"})

	// Unauthenticated unlock prompts sign-in.
	w := doJSON(router, "POST", "/v1/access/unlock", "", map[string]string{"code": "C5Y"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", w.Code)
	}

	// Invalid code.
	w = doJSON(router, "POST", "/v1/access/unlock", "tok", map[string]string{"code": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	// Valid chapter code unlocks chapter 5.
	w = doJSON(router, "POST", "/v1/access/unlock", "tok", map[string]string{"code": " c5y "})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.UnlockResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if !result.Success || result.ChapterID != 5 || result.Title != "Five" {
		t.Errorf("Unexpected unlock result: %+v", result)
	}

	// Resubmitting the same code is a soft rejection.
	w = doJSON(router, "POST", "/v1/access/unlock", "tok", map[string]string{"code": "C5Y"})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}

	// The previously locked chapter is now readable.
	w = doJSON(router, "GET", "/v1/chapters/5", "tok", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 after unlock, got %d", w.Code)
	}
}

func TestCanvasRoundTripOverHTTP(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1", Promocode: "ALL2024"})

	w := doJSON(router, "PUT", "/v1/chapters/5/canvas/segments", "tok", map[string]string{"value": "SMB founders"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/v1/chapters/5/canvas/segments", "tok", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response struct {
		Value  string `json:"value"`
		Exists bool   `json:"exists"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Value != "SMB founders" || !response.Exists {
		t.Errorf("Unexpected canvas field response: %+v", response)
	}

	// Unknown canvas fields are rejected.
	w = doJSON(router, "PUT", "/v1/chapters/5/canvas/budget", "tok", map[string]string{"value": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown field, got %d", w.Code)
	}
}

func TestProgressEndpoint(t *testing.T) {
	router, provider := setupTestRouter(t)
	provider.AddSession("tok", &models.User{ID: "u1", Promocode: "ALL2024"})

	// Opening chapters records visit and last-opened markers.
	doJSON(router, "GET", "/v1/chapters/2", "tok", nil)
	doJSON(router, "GET", "/v1/chapters/3", "tok", nil)

	w := doJSON(router, "GET", "/v1/progress", "tok", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		VisitedCount  int `json:"visited_count"`
		TotalChapters int `json:"total_chapters"`
		LastOpened    int `json:"last_opened"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response.VisitedCount != 2 {
		t.Errorf("Expected 2 visited chapters, got %d", response.VisitedCount)
	}
	if response.TotalChapters != 5 {
		t.Errorf("Expected 5 total chapters, got %d", response.TotalChapters)
	}
	if response.LastOpened != 3 {
		t.Errorf("Expected last opened chapter 3, got %d", response.LastOpened)
	}
}

func TestLoadingStateBlocksWithoutRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Parse([]byte(testPromoJSON), []byte(testChaptersJSON))
	if err != nil {
		t.Fatalf("failed to build test catalog: %v", err)
	}

	provider := mocks.NewMockIdentityProvider()
	log := zerolog.Nop()

	// Not started: consumers must treat access as unknown, not denied.
	accessSvc := access.New(cat, provider, log)
	contentSvc := content.NewService(mocks.NewMockContentRepository(), log)

	router := api.NewRouter(api.Deps{
		Access:   accessSvc,
		Identity: provider,
		Content:  contentSvc,
		Catalog:  cat,
	}, &config.Config{}, log)

	w := doJSON(router, "GET", "/v1/chapters/2", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503 while loading, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if _, hasRedirect := response["redirect"]; hasRedirect {
		t.Error("Loading state must not produce a redirect")
	}
}
