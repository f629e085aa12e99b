package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zacpr/api-explorer/internal/events"
	"github.com/zacpr/api-explorer/internal/executor"
	"github.com/zacpr/api-explorer/internal/history"
	"github.com/zacpr/api-explorer/internal/models"
	"github.com/zacpr/api-explorer/internal/schema"
	"github.com/zacpr/api-explorer/internal/state"
	"github.com/zacpr/api-explorer/internal/storage"
	"github.com/zacpr/api-explorer/internal/vault"
)

const handlerTestSpec = `
openapi: 3.0.0
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: https://petstore.example.com/v1
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      tags: [pets]
      responses:
        '200':
          description: OK
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: OK
`

func setupTestHandler(t *testing.T) (*Handler, storage.Storage, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	schemaSvc := schema.NewService()
	engine := executor.NewEngine()
	credVault := vault.New(store)
	historySvc := history.NewService(store)
	eventSvc := events.NewService(100)
	appState := state.NewStore()

	handler := NewHandler(store, schemaSvc, engine, credVault, historySvc, eventSvc, appState, executor.Options{})

	r := gin.New()
	return handler, store, r
}

func loadTestSchema(t *testing.T, handler *Handler, r *gin.Engine) {
	t.Helper()

	r.POST("/schema", handler.LoadSchema)

	body, _ := json.Marshal(map[string]string{"content": handlerTestSpec})
	req := httptest.NewRequest("POST", "/schema", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Schema load failed with status %d: %s", w.Code, w.Body.String())
	}
}

func TestLoadSchema_Valid(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/schema", handler.LoadSchema)

	body, _ := json.Marshal(map[string]string{"content": handlerTestSpec})
	req := httptest.NewRequest("POST", "/schema", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)

	if result["title"] != "Petstore" {
		t.Errorf("Expected title 'Petstore', got %v", result["title"])
	}
	if result["operationCount"] != float64(2) {
		t.Errorf("Expected 2 operations, got %v", result["operationCount"])
	}
}

func TestLoadSchema_Malformed(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/schema", handler.LoadSchema)

	body, _ := json.Marshal(map[string]string{"content": "not: [valid"})
	req := httptest.NewRequest("POST", "/schema", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetSchema_NoneLoaded(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.GET("/schema", handler.GetSchema)

	req := httptest.NewRequest("GET", "/schema", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestListOperations(t *testing.T) {
	handler, _, r := setupTestHandler(t)
	loadTestSchema(t, handler, r)

	r.GET("/operations", handler.ListOperations)

	req := httptest.NewRequest("GET", "/operations", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)

	if len(result) != 2 {
		t.Errorf("Expected 2 operations, got %d", len(result))
	}
}

func TestListOperations_Filtered(t *testing.T) {
	handler, _, r := setupTestHandler(t)
	loadTestSchema(t, handler, r)

	r.GET("/operations", handler.ListOperations)

	req := httptest.NewRequest("GET", "/operations?tag=pets", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)

	if len(result) != 1 {
		t.Fatalf("Expected 1 tagged operation, got %d", len(result))
	}
	if result[0]["operationId"] != "listPets" {
		t.Errorf("Expected listPets, got %v", result[0]["operationId"])
	}
}

func TestGetOperation_UpdatesSelection(t *testing.T) {
	handler, _, r := setupTestHandler(t)
	loadTestSchema(t, handler, r)

	r.GET("/operations/:id", handler.GetOperation)
	r.GET("/state", handler.GetState)

	req := httptest.NewRequest("GET", "/operations/getPet", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	stateReq := httptest.NewRequest("GET", "/state", nil)
	stateW := httptest.NewRecorder()

	r.ServeHTTP(stateW, stateReq)

	var snap map[string]interface{}
	json.Unmarshal(stateW.Body.Bytes(), &snap)

	if snap["selectedOperation"] != "getPet" {
		t.Errorf("Expected selection recorded, got %v", snap["selectedOperation"])
	}
}

func TestGetOperation_NotFound(t *testing.T) {
	handler, _, r := setupTestHandler(t)
	loadTestSchema(t, handler, r)

	r.GET("/operations/:id", handler.GetOperation)

	req := httptest.NewRequest("GET", "/operations/nonexistent", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestExecuteOperation_RecordsHistory(t *testing.T) {
	handler, store, r := setupTestHandler(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	loadTestSchema(t, handler, r)
	r.POST("/operations/:id/execute", handler.ExecuteOperation)

	body, _ := json.Marshal(map[string]interface{}{
		"baseUrl":    upstream.URL,
		"instanceId": "petstore",
	})
	req := httptest.NewRequest("POST", "/operations/listPets/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.ExecutionResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if !result.Success {
		t.Errorf("Expected successful execution, got %+v", result)
	}

	history, err := store.QueryUsage(models.UsageQuery{})
	if err != nil {
		t.Fatalf("QueryUsage failed: %v", err)
	}
	if history.Total != 1 || history.Records[0].OperationID != "listPets" {
		t.Errorf("Expected usage recorded, got %+v", history)
	}
}

func TestExecuteOperation_TransportFailureIs200(t *testing.T) {
	handler, _, r := setupTestHandler(t)
	loadTestSchema(t, handler, r)

	r.POST("/operations/:id/execute", handler.ExecuteOperation)

	body, _ := json.Marshal(map[string]interface{}{
		"baseUrl": "http://127.0.0.1:1",
		"options": map[string]interface{}{"timeoutMs": 2000},
	})
	req := httptest.NewRequest("POST", "/operations/listPets/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// Execution failures are values in the body, never HTTP errors
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var result models.ExecutionResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Success || result.Error == "" {
		t.Errorf("Expected failure result with error, got %+v", result)
	}
}

func TestExecuteOperation_WrongMasterPassword(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	// Store through a separate vault over the same backing store, so the
	// handler's vault has no primed cache
	backing := storage.NewMemoryStorage()
	seeded := vault.New(backing)
	cred, err := seeded.StoreCredential(vault.StoreInput{
		Name: "key", AuthType: models.AuthAPIKey, APIKey: "k",
	}, "correct")
	if err != nil {
		t.Fatalf("StoreCredential failed: %v", err)
	}
	handler.vault = vault.New(backing)

	loadTestSchema(t, handler, r)
	r.POST("/operations/:id/execute", handler.ExecuteOperation)

	body, _ := json.Marshal(map[string]interface{}{
		"credentialId":   cred.ID,
		"masterPassword": "wrong",
	})
	req := httptest.NewRequest("POST", "/operations/listPets/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestStoreCredential_ResponseOmitsSecrets(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/credentials", handler.StoreCredential)

	body, _ := json.Marshal(map[string]interface{}{
		"name":           "prod key",
		"schemaTitle":    "Petstore",
		"authType":       "apiKey",
		"apiKey":         "sk-secret",
		"masterPassword": "master",
	})
	req := httptest.NewRequest("POST", "/credentials", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "sk-secret") {
		t.Error("Response exposes the stored secret")
	}

	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	if result["id"] == nil || result["id"] == "" {
		t.Error("Expected id to be set")
	}
	if result["name"] != "prod key" {
		t.Errorf("Expected name 'prod key', got %v", result["name"])
	}
}

func TestStoreCredential_RequiresMasterPassword(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/credentials", handler.StoreCredential)

	body, _ := json.Marshal(map[string]interface{}{
		"name":     "key",
		"authType": "apiKey",
		"apiKey":   "k",
	})
	req := httptest.NewRequest("POST", "/credentials", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetCredential_NotFound(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/credentials/:id/decrypt", handler.GetCredential)

	body, _ := json.Marshal(map[string]string{"masterPassword": "m"})
	req := httptest.NewRequest("POST", "/credentials/nonexistent/decrypt", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteCredential(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/credentials", handler.StoreCredential)
	r.DELETE("/credentials/:id", handler.DeleteCredential)
	r.GET("/credentials", handler.ListCredentials)

	body, _ := json.Marshal(map[string]interface{}{
		"name":           "key",
		"authType":       "apiKey",
		"apiKey":         "k",
		"masterPassword": "m",
	})
	req := httptest.NewRequest("POST", "/credentials", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	id, _ := created["id"].(string)

	delReq := httptest.NewRequest("DELETE", "/credentials/"+id, nil)
	delW := httptest.NewRecorder()
	r.ServeHTTP(delW, delReq)

	if delW.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", delW.Code)
	}

	listReq := httptest.NewRequest("GET", "/credentials", nil)
	listW := httptest.NewRecorder()
	r.ServeHTTP(listW, listReq)

	var infos []interface{}
	json.Unmarshal(listW.Body.Bytes(), &infos)
	if len(infos) != 0 {
		t.Errorf("Expected credential gone, got %v", infos)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	handler, store, r := setupTestHandler(t)

	r.POST("/bookmarks", handler.CreateBookmark)
	r.PUT("/bookmarks/:id", handler.UpdateBookmark)
	r.POST("/bookmarks/:id/use", handler.UseBookmark)
	r.DELETE("/bookmarks/:id", handler.DeleteBookmark)

	body, _ := json.Marshal(models.BookmarkInput{
		Name:        "list pets",
		InstanceID:  "petstore",
		OperationID: "listPets",
		Method:      "GET",
		Path:        "/pets",
	})
	req := httptest.NewRequest("POST", "/bookmarks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Bookmark
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("Expected id to be set")
	}

	// Record a use, then update; the counter must survive the update
	useReq := httptest.NewRequest("POST", "/bookmarks/"+created.ID+"/use", nil)
	useW := httptest.NewRecorder()
	r.ServeHTTP(useW, useReq)

	if useW.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", useW.Code)
	}

	update, _ := json.Marshal(models.BookmarkInput{
		Name:        "renamed",
		InstanceID:  "petstore",
		OperationID: "listPets",
		Method:      "GET",
		Path:        "/pets",
	})
	updReq := httptest.NewRequest("PUT", "/bookmarks/"+created.ID, bytes.NewReader(update))
	updReq.Header.Set("Content-Type", "application/json")
	updW := httptest.NewRecorder()
	r.ServeHTTP(updW, updReq)

	if updW.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", updW.Code, updW.Body.String())
	}

	stored, _ := store.GetBookmark(created.ID)
	if stored.Name != "renamed" {
		t.Errorf("Expected updated name, got %q", stored.Name)
	}
	if stored.UseCount != 1 || stored.LastUsedAt == nil {
		t.Errorf("Expected usage counters preserved, got count %d", stored.UseCount)
	}

	delReq := httptest.NewRequest("DELETE", "/bookmarks/"+created.ID, nil)
	delW := httptest.NewRecorder()
	r.ServeHTTP(delW, delReq)

	if delW.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", delW.Code)
	}
}

func TestUseBookmark_NotFound(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/bookmarks/:id/use", handler.UseBookmark)

	req := httptest.NewRequest("POST", "/bookmarks/nonexistent/use", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetUsageHistory_Pagination(t *testing.T) {
	handler, store, r := setupTestHandler(t)

	for i := 0; i < 3; i++ {
		store.AppendUsage(&models.UsageRecord{
			ID:          string(rune('a' + i)),
			InstanceID:  "petstore",
			OperationID: "listPets",
		})
	}

	r.GET("/history", handler.GetUsageHistory)

	req := httptest.NewRequest("GET", "/history?limit=2", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var page models.UsageHistory
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 3 || len(page.Records) != 2 {
		t.Errorf("Expected total 3 with 2 records, got total %d, %d records", page.Total, len(page.Records))
	}
}

func TestParseRegistry(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.POST("/registry", handler.ParseRegistry)

	content := `
schemas:
  - title: Petstore
    downloads_to_file: petstore.yaml
    can_download_from: https://example.com/petstore.yaml
  - title: Sample
    example: true
`
	req := httptest.NewRequest("POST", "/registry", strings.NewReader(content))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Candidates []map[string]interface{} `json:"candidates"`
	}
	json.Unmarshal(w.Body.Bytes(), &result)
	if len(result.Candidates) != 1 || result.Candidates[0]["title"] != "Petstore" {
		t.Errorf("Expected single candidate Petstore, got %v", result.Candidates)
	}
}

func TestMergeOptions(t *testing.T) {
	handler, _, _ := setupTestHandler(t)
	handler.execDefaults = executor.Options{TimeoutMs: 5000, UseProxy: true, ProxyBase: "http://127.0.0.1:5173/_proxy"}

	merged := handler.mergeOptions(executor.Options{})
	if merged.TimeoutMs != 5000 || !merged.UseProxy || merged.ProxyBase != "http://127.0.0.1:5173/_proxy" {
		t.Errorf("Expected defaults applied, got %+v", merged)
	}

	merged = handler.mergeOptions(executor.Options{TimeoutMs: 100, ProxyBase: "http://other/_proxy"})
	if merged.TimeoutMs != 100 || merged.ProxyBase != "http://other/_proxy" {
		t.Errorf("Expected per-request values to win, got %+v", merged)
	}
}

func TestHealthCheck(t *testing.T) {
	handler, _, r := setupTestHandler(t)

	r.GET("/health", handler.HealthCheck)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)

	if result["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", result["status"])
	}
}
