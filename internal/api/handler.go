package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zacpr/api-explorer/internal/events"
	"github.com/zacpr/api-explorer/internal/executor"
	"github.com/zacpr/api-explorer/internal/history"
	"github.com/zacpr/api-explorer/internal/models"
	"github.com/zacpr/api-explorer/internal/parser"
	"github.com/zacpr/api-explorer/internal/registry"
	"github.com/zacpr/api-explorer/internal/schema"
	"github.com/zacpr/api-explorer/internal/state"
	"github.com/zacpr/api-explorer/internal/storage"
	"github.com/zacpr/api-explorer/internal/vault"
)

// Handler handles API requests
type Handler struct {
	store        storage.Storage
	schemaSvc    *schema.Service
	engine       *executor.Engine
	vault        *vault.Vault
	history      *history.Service
	events       *events.Service
	appState     *state.Store
	execDefaults executor.Options
}

// NewHandler creates a new API handler. execDefaults are the configured
// execution options; per-request options override them field by field.
func NewHandler(store storage.Storage, schemaSvc *schema.Service, engine *executor.Engine, credVault *vault.Vault, historySvc *history.Service, eventSvc *events.Service, appState *state.Store, execDefaults executor.Options) *Handler {
	return &Handler{
		store:        store,
		schemaSvc:    schemaSvc,
		engine:       engine,
		vault:        credVault,
		history:      historySvc,
		events:       eventSvc,
		appState:     appState,
		execDefaults: execDefaults,
	}
}

// mergeOptions fills unset per-request option fields from the configured
// defaults
func (h *Handler) mergeOptions(opts executor.Options) executor.Options {
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = h.execDefaults.TimeoutMs
	}
	if !opts.UseProxy && h.execDefaults.UseProxy {
		opts.UseProxy = true
	}
	if opts.ProxyBase == "" {
		opts.ProxyBase = h.execDefaults.ProxyBase
	}
	return opts
}

// LoadSchema loads a new OpenAPI schema, replacing the current one.
// A failed load leaves the previously loaded schema intact.
func (h *Handler) LoadSchema(c *gin.Context) {
	var input models.SchemaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := h.schemaSvc.Load(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, schema.ErrSuperseded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, parser.ErrParse), errors.Is(err, parser.ErrDereference):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.appState.SetSchemaTitle(parsed.Title)

	c.JSON(http.StatusOK, gin.H{
		"title":          parsed.Title,
		"version":        parsed.Version,
		"baseUrl":        parsed.BaseURL,
		"operationCount": len(parsed.Operations),
		"tags":           parsed.Tags,
	})
}

// GetSchema returns the currently loaded schema
func (h *Handler) GetSchema(c *gin.Context) {
	current := h.schemaSvc.Current()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schema loaded"})
		return
	}
	c.JSON(http.StatusOK, current)
}

// GetTags returns the tag list of the current schema
func (h *Handler) GetTags(c *gin.Context) {
	current := h.schemaSvc.Current()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schema loaded"})
		return
	}
	c.JSON(http.StatusOK, current.Tags)
}

// ListOperations lists the current schema's operations, narrowed by the
// search, tag, and method query parameters
func (h *Handler) ListOperations(c *gin.Context) {
	ops := h.schemaSvc.Operations(c.Query("search"), c.Query("tag"), c.Query("method"))

	summaries := make([]models.OperationSummary, 0, len(ops))
	for _, op := range ops {
		summaries = append(summaries, op.Summarize())
	}
	c.JSON(http.StatusOK, summaries)
}

// GetOperation returns one operation by its ID
func (h *Handler) GetOperation(c *gin.Context) {
	op := h.schemaSvc.FindOperation(c.Param("id"))
	if op == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
		return
	}

	h.appState.SetSelectedOperation(op.OperationID)
	c.JSON(http.StatusOK, op)
}

// executeOperationInput is the request body for operation execution
type executeOperationInput struct {
	BaseURL        string                 `json:"baseUrl,omitempty"`
	Params         models.OperationParams `json:"params"`
	Options        executor.Options       `json:"options"`
	CredentialID   string                 `json:"credentialId,omitempty"`
	MasterPassword string                 `json:"masterPassword,omitempty"`
	BookmarkID     string                 `json:"bookmarkId,omitempty"`
	InstanceID     string                 `json:"instanceId,omitempty"`
}

// ExecuteOperation resolves and executes one operation of the current
// schema. Execution failures are values in the result, never HTTP errors;
// only malformed input or vault failures surface as error statuses.
func (h *Handler) ExecuteOperation(c *gin.Context) {
	op := h.schemaSvc.FindOperation(c.Param("id"))
	if op == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
		return
	}

	var input executeOperationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	baseURL := input.BaseURL
	if baseURL == "" {
		if current := h.schemaSvc.Current(); current != nil {
			baseURL = current.BaseURL
		}
	}

	if input.CredentialID != "" {
		cred, err := h.vault.GetCredential(input.CredentialID, input.MasterPassword)
		if err != nil {
			if errors.Is(err, vault.ErrInvalidPassword) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if cred == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
			return
		}
		if baseURL == "" {
			baseURL = cred.BaseURL
		}
		// Auth headers never override user-supplied ones
		for key, value := range executor.AuthHeaders(cred) {
			if input.Params.Header == nil {
				input.Params.Header = make(map[string]string)
			}
			if _, exists := input.Params.Header[key]; !exists {
				input.Params.Header[key] = value
			}
		}
	}

	result := h.engine.ExecuteOperation(c.Request.Context(), baseURL, op, input.Params, h.mergeOptions(input.Options))

	h.events.RecordResult(op.OperationID, op.Method, baseURL+op.Path, result)

	// Usage recording is best effort; a persistence failure must not
	// mask the execution result
	if _, err := h.history.RecordExecution(input.InstanceID, op, input.BookmarkID, result); err != nil {
		log.Printf("Failed to record usage: %v", err)
	}
	if input.BookmarkID != "" {
		if err := h.store.RecordBookmarkUsage(input.BookmarkID); err != nil {
			log.Printf("Failed to record bookmark usage: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// executeRequestInput is the request body for raw request execution
type executeRequestInput struct {
	Config  models.RequestConfig `json:"config"`
	Options executor.Options     `json:"options"`
}

// ExecuteRequest executes a fully resolved request without operation
// resolution
func (h *Handler) ExecuteRequest(c *gin.Context) {
	var input executeRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.engine.ExecuteRequest(c.Request.Context(), input.Config, h.mergeOptions(input.Options))
	h.events.RecordResult("", input.Config.Method, input.Config.URL, result)

	c.JSON(http.StatusOK, result)
}

// storeCredentialInput is the request body for storing a credential
type storeCredentialInput struct {
	vault.StoreInput
	Type           models.CredentialType `json:"type,omitempty"`
	MasterPassword string                `json:"masterPassword"`
}

// StoreCredential encrypts and stores a credential. The response carries
// only non-sensitive fields.
func (h *Handler) StoreCredential(c *gin.Context) {
	var input storeCredentialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.MasterPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "masterPassword is required"})
		return
	}

	cred, err := h.vault.StoreCredential(input.StoreInput, input.MasterPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if input.Type != "" {
		meta := &models.CredentialMetadata{ID: cred.ID, Name: cred.Name, Type: input.Type}
		if err := h.store.PutCredentialMetadata(meta); err != nil {
			log.Printf("Failed to store credential metadata: %v", err)
		}
	}

	c.JSON(http.StatusCreated, cred.CredentialInfo)
}

// ListCredentials lists stored credentials without sensitive fields,
// optionally filtered by schema title
func (h *Handler) ListCredentials(c *gin.Context) {
	infos, err := h.vault.ListCredentials(c.Query("schemaTitle"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

// GetCredential decrypts one credential with the supplied master password
func (h *Handler) GetCredential(c *gin.Context) {
	var input struct {
		MasterPassword string `json:"masterPassword"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.vault.GetCredential(c.Param("id"), input.MasterPassword)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cred == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
		return
	}

	h.appState.SetActiveCredential(cred.ID)
	c.JSON(http.StatusOK, cred)
}

// DeleteCredential removes a credential from the vault and its metadata
// record. Deleting a non-existent id is not an error.
func (h *Handler) DeleteCredential(c *gin.Context) {
	id := c.Param("id")

	if err := h.vault.DeleteCredential(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.DeleteCredentialMetadata(id); err != nil {
		log.Printf("Failed to delete credential metadata: %v", err)
	}

	c.Status(http.StatusNoContent)
}

// CreateBookmark saves a new bookmark
func (h *Handler) CreateBookmark(c *gin.Context) {
	var input models.BookmarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	bookmark := &models.Bookmark{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		InstanceID:  input.InstanceID,
		OperationID: input.OperationID,
		Path:        input.Path,
		Method:      input.Method,
		Parameters:  input.Parameters,
		Tags:        input.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateBookmark(bookmark); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, bookmark)
}

// ListBookmarks lists bookmarks ordered by last use, newest first
func (h *Handler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.store.ListBookmarks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

// GetBookmark returns one bookmark by ID
func (h *Handler) GetBookmark(c *gin.Context) {
	bookmark, err := h.store.GetBookmark(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bookmark == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

// UpdateBookmark updates a bookmark's editable fields, preserving its
// usage counters
func (h *Handler) UpdateBookmark(c *gin.Context) {
	bookmark, err := h.store.GetBookmark(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bookmark == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}

	var input models.BookmarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmark.Name = input.Name
	bookmark.Description = input.Description
	bookmark.InstanceID = input.InstanceID
	bookmark.OperationID = input.OperationID
	bookmark.Path = input.Path
	bookmark.Method = input.Method
	bookmark.Parameters = input.Parameters
	bookmark.Tags = input.Tags
	bookmark.UpdatedAt = time.Now()

	if err := h.store.UpdateBookmark(bookmark); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bookmark)
}

// DeleteBookmark removes a bookmark; idempotent
func (h *Handler) DeleteBookmark(c *gin.Context) {
	if err := h.store.DeleteBookmark(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// UseBookmark records one use of a bookmark
func (h *Handler) UseBookmark(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.RecordBookmarkUsage(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	bookmark, err := h.store.GetBookmark(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bookmark == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

// GetUsageHistory returns one filtered, paginated page of usage records
func (h *Handler) GetUsageHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	page, err := h.history.GetUsageHistory(models.UsageQuery{
		Limit:       limit,
		Offset:      offset,
		InstanceID:  c.Query("instanceId"),
		OperationID: c.Query("operationId"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetOperationStats returns per-operation aggregates of successful uses
func (h *Handler) GetOperationStats(c *gin.Context) {
	stats, err := h.history.GetOperationStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentExecutions returns the most recent execution events
func (h *Handler) RecentExecutions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	c.JSON(http.StatusOK, h.events.Recent(limit))
}

// ParseRegistry parses a schema registry document and returns its
// downloadable candidates
func (h *Handler) ParseRegistry(c *gin.Context) {
	content, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := registry.Parse(content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": reg.Candidates()})
}

// GetState returns the current application state snapshot
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.appState.Get())
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
