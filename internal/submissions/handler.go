package submissions

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shadowpixel-backend/internal/extract"
	"shadowpixel-backend/internal/github"
	"shadowpixel-backend/internal/llm"
	"shadowpixel-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: svc.MaxUploadBytes}
}

// RegisterRoutes attaches submission routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.submit)
	rg.GET("/submissions", h.list)
	rg.GET("/submissions/:id", h.get)
	rg.GET("/submissions/:id/text", h.text)
	rg.GET("/submissions/:id/steps", h.steps)
}

func (h *Handler) submit(c *gin.Context) {
	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	// Extra headroom for the multipart framing around the file part.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(64<<10))

	username := strings.TrimSpace(c.PostForm("github_username"))

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume file", nil)
		return
	}
	defer file.Close()

	sub, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		GitHubUsername: username,
		FileName:       fileHeader.Filename,
		File:           file,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.Set("submissionId", sub.ID)
	respond.JSON(c, http.StatusCreated, toResponse(sub))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}

	resp := make([]submissionListItem, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toListItem(sub))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch submission", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(sub))
}

func (h *Handler) text(c *gin.Context) {
	text, err := h.Svc.Text(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch extracted text", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"submissionId": c.Param("id"),
		"text":         text,
	})
}

func (h *Handler) steps(c *gin.Context) {
	steps, err := h.Svc.StepsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch steps", nil)
		}
		return
	}

	resp := make([]stepResponse, 0, len(steps))
	for _, step := range steps {
		resp = append(resp, toStepResponse(step))
	}
	respond.JSON(c, http.StatusOK, resp)
}

// respondPipelineError maps pipeline failures onto the HTTP error envelope.
func respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "unsupported_format", err.Error(), nil)
	case errors.Is(err, extract.ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", err.Error(), nil)
	case errors.Is(err, github.ErrUserNotFound):
		respond.Error(c, http.StatusUnprocessableEntity, "github_user_not_found", "GitHub user does not exist", nil)
	case errors.Is(err, github.ErrRateLimited):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "GitHub rate limit exceeded, try again later", nil)
	case failedInStep(err, StepGitHub):
		respond.Error(c, http.StatusBadGateway, "github_unavailable", "GitHub could not be reached", nil)
	case errors.Is(err, llm.ErrGenerationFailed), errors.Is(err, llm.ErrNotImplemented), failedInStep(err, StepSummarize):
		respond.Error(c, http.StatusBadGateway, "generation_failed", "summary generation failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process submission", nil)
	}
}

func failedInStep(err error, step string) bool {
	var pipeErr *PipelineError
	return errors.As(err, &pipeErr) && pipeErr.Step == step
}
