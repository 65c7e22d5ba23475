package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"dixon3d-backend/models"
	"dixon3d-backend/repository"
	"dixon3d-backend/service"
	"dixon3d-backend/storage"

	"github.com/gin-gonic/gin"
)

// traceHeader carries the generated reference on every intake response,
// including failures, so operators can correlate logs to an attempt that
// never produced a ticket row.
const traceHeader = "X-Trace-Ref"

const downloadLinkTTL = 10 * time.Minute

// TicketReader serves the lookup path.
type TicketReader interface {
	GetByRef(ctx context.Context, ref string) (*models.Ticket, error)
}

// Notifier is invoked after a successful intake, independently of the
// response; failures never surface to the caller.
type Notifier interface {
	NotifyNewTicket(ticket *models.Ticket)
}

// IntakeHandler handles HTTP requests for design-request intake and lookup
type IntakeHandler struct {
	svc      *service.IntakeService
	tickets  TicketReader
	store    storage.Storage
	notifier Notifier
	logger   *slog.Logger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(svc *service.IntakeService, tickets TicketReader, store storage.Storage, notifier Notifier, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		svc:      svc,
		tickets:  tickets,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Intake handles POST /intake
func (h *IntakeHandler) Intake(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		// No submission reached the pipeline; mint a ref anyway so the
		// failure is traceable in logs.
		c.Header(traceHeader, service.MakeRef(time.Now()))
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":      false,
			"error":   "validation",
			"message": "invalid multipart form",
		})
		return
	}

	req := service.IntakeRequest{
		Name:        c.PostForm("name"),
		Email:       c.PostForm("email"),
		Phone:       c.PostForm("phone"),
		Qty:         c.PostForm("qty"),
		Description: c.PostForm("description"),
		Token:       c.PostForm("cf-turnstile-response"),
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Files:       uploadsFromForm(form.File["files"]),
	}

	ref, ticket, err := h.svc.Submit(c.Request.Context(), req)
	c.Header(traceHeader, ref)

	if err != nil {
		var ierr *service.IntakeError
		if !errors.As(err, &ierr) {
			ierr = &service.IntakeError{Kind: service.FailServer}
		}
		switch ierr.Kind {
		case service.FailValidation:
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":      false,
				"error":   "validation",
				"message": ierr.Message,
			})
		case service.FailTurnstile:
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":      false,
				"error":   "turnstile_failed",
				"details": ierr.Details,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"ok":    false,
				"error": "server_error",
			})
		}
		return
	}

	if h.notifier != nil {
		go h.notifier.NotifyNewTicket(ticket)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "ref": ref})
}

// GetTicket handles GET /ticket/:ref
func (h *IntakeHandler) GetTicket(c *gin.Context) {
	ref := c.Param("ref")

	ticket, err := h.tickets.GetByRef(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not-found"})
			return
		}
		h.logger.Error("ticket lookup failed", "ref", ref, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "ticket": ticket})
}

// Download handles GET /download/:ref/:filename
func (h *IntakeHandler) Download(c *gin.Context) {
	ref := c.Param("ref")
	filename := c.Param("filename")
	key := storage.Key(ref, filename)

	info, err := h.store.Head(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not-found"})
			return
		}
		h.logger.Error("download head failed", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server_error"})
		return
	}

	url, err := h.store.PresignGet(c.Request.Context(), key, downloadLinkTTL)
	if err == nil {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}
	if !errors.Is(err, storage.ErrPresignUnsupported) {
		h.logger.Error("download presign failed", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server_error"})
		return
	}

	// Backend cannot pre-sign; stream the object directly.
	reader, _, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not-found"})
			return
		}
		h.logger.Error("download failed", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "server_error"})
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, reader, nil)
}

// Health handles GET /health
func (h *IntakeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":  true,
		"now": time.Now().UTC().Format(time.RFC3339),
	})
}

func uploadsFromForm(headers []*multipart.FileHeader) []service.Upload {
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		uploads = append(uploads, service.Upload{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}
