// Package api is the claim submission producer: it validates submissions,
// persists a pending claim, and enqueues the verification job. Everything
// downstream of the queue belongs to the worker.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claimcheck/internal/model"
	"claimcheck/internal/queue"
	"claimcheck/internal/store"
)

// Server handles claim ingestion and reads
type Server struct {
	store             store.ClaimStore
	queue             queue.Queue
	claimExtractorURL string
	httpClient        *http.Client
}

// NewServer creates the API server
func NewServer(st store.ClaimStore, q queue.Queue, claimExtractorURL string) *Server {
	return &Server{
		store:             st,
		queue:             q,
		claimExtractorURL: claimExtractorURL,
		httpClient:        &http.Client{Timeout: 5 * time.Second},
	}
}

// Router constructs the Gin engine with registered routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	apiGroup.POST("/claims", s.handleIngest)
	apiGroup.GET("/claims/:id", s.handleGetClaim)
	apiGroup.GET("/claims", s.handleListClaims)

	return r
}

// ingestRequest is the claim submission payload
type ingestRequest struct {
	Text           string               `json:"text"`
	Media          []string             `json:"media"`
	OriginalSource model.OriginalSource `json:"original_source"`
}

// handleIngest validates a submission, stores it pending, and enqueues the
// verification job
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if n := utf8.RuneCountInString(req.Text); n < model.MinClaimTextLen || n > model.MaxClaimTextLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be 10-5000 characters"})
		return
	}
	if len(req.Media) > model.MaxMediaURLs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 10 media URLs allowed"})
		return
	}

	claim := &model.Claim{
		ID:             uuid.NewString(),
		Text:           req.Text,
		Media:          req.Media,
		OriginalSource: req.OriginalSource,
		Status:         model.StatusPending,
		Extracted:      s.extractClaim(c.Request.Context(), req.Text, req.Media),
	}

	if err := s.store.Create(c.Request.Context(), claim); err != nil {
		log.Printf("api: save claim: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save claim"})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), model.VerificationJob{ClaimID: claim.ID}); err != nil {
		log.Printf("api: enqueue claim %s: %v", claim.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue verification"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"claim": claim})
}

func (s *Server) handleGetClaim(c *gin.Context) {
	claim, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

func (s *Server) handleListClaims(c *gin.Context) {
	claims, err := s.store.List(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// extractClaim calls the optional claim-extractor service. It is
// best-effort passthrough: failures return an empty Extracted.
func (s *Server) extractClaim(ctx context.Context, text string, media []string) model.Extracted {
	if s.claimExtractorURL == "" {
		return model.Extracted{}
	}

	payload, err := json.Marshal(map[string]any{"text": text, "media": media})
	if err != nil {
		return model.Extracted{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.claimExtractorURL, bytes.NewReader(payload))
	if err != nil {
		return model.Extracted{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("api: claim-extractor failed: %v", err)
		return model.Extracted{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Extracted{}
	}

	var parsed struct {
		Claims []struct {
			Entities []string `json:"entities"`
			Location string   `json:"location"`
			Numbers  []string `json:"numbers"`
		} `json:"claims"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Claims) == 0 {
		return model.Extracted{}
	}

	first := parsed.Claims[0]
	return model.Extracted{
		Entities: first.Entities,
		Location: first.Location,
		Numbers:  first.Numbers,
	}
}
