package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dixon3d-backend/models"
	"dixon3d-backend/storage"
	"dixon3d-backend/turnstile"

	"github.com/google/uuid"
)

// Failure kinds surfaced to the HTTP layer.
const (
	FailValidation = "validation"
	FailTurnstile  = "turnstile_failed"
	FailServer     = "server_error"
)

const refMintAttempts = 5

// IntakeError is a structured intake failure. Kind selects the response
// class; Details carries challenge-verifier error codes when present.
type IntakeError struct {
	Kind    string
	Message string
	Details []string
}

func (e *IntakeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind
}

// TicketRepository is the persistence surface the orchestrator needs.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	RefExists(ctx context.Context, ref string) (bool, error)
}

// ChallengeVerifier gates intake acceptance.
type ChallengeVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) turnstile.Result
}

// IntakeService sequences one design-request submission: validate, verify
// the challenge, upload files, persist the ticket.
type IntakeService struct {
	repo     TicketRepository
	store    storage.Storage
	verifier ChallengeVerifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewIntakeService creates a new intake service
func NewIntakeService(repo TicketRepository, store storage.Storage, verifier ChallengeVerifier, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		repo:     repo,
		store:    store,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// IntakeRequest carries the raw submission as received from the form.
type IntakeRequest struct {
	Name        string
	Email       string
	Phone       string
	Qty         string
	Description string
	Token       string
	IP          string
	UserAgent   string
	Files       []Upload
}

// Submit runs the full intake pipeline. The returned ref is always set, even
// on failure, so callers can echo it as a trace identifier. Validation and
// challenge verification happen before any side effect; uploads already
// written when a later step fails are best-effort deleted.
func (s *IntakeService) Submit(ctx context.Context, req IntakeRequest) (string, *models.Ticket, error) {
	ref := s.mintRef(ctx)
	log := s.logger.With("ref", ref)

	if err := ValidateFiles(req.Files); err != nil {
		log.Info("intake rejected", "reason", err.Error())
		return ref, nil, &IntakeError{Kind: FailValidation, Message: err.Error()}
	}
	files := NormalizeUploads(req.Files)

	if result := s.verifier.Verify(ctx, req.Token, req.IP); !result.OK {
		log.Info("intake challenge failed", "codes", result.Errors)
		return ref, nil, &IntakeError{Kind: FailTurnstile, Details: result.Errors}
	}

	// Files are uploaded one at a time to bound peak memory. Keys already
	// written are deleted if anything later fails.
	var uploadedKeys []string
	stored := make([]models.StoredFile, 0, len(files))
	for _, f := range files {
		key := storage.Key(ref, f.Name)
		if err := s.uploadOne(ctx, key, f); err != nil {
			log.Error("intake upload failed", "key", key, "error", err)
			s.cleanup(uploadedKeys)
			return ref, nil, &IntakeError{Kind: FailServer}
		}
		uploadedKeys = append(uploadedKeys, key)
		stored = append(stored, models.StoredFile{
			Name:        f.Name,
			Size:        f.Size,
			ContentType: f.ContentType,
		})
		log.Info("intake uploaded", "key", key, "size", f.Size)
	}

	ticket := &models.Ticket{
		ID:          uuid.New(),
		Ref:         ref,
		Name:        normalizeField(req.Name),
		Email:       normalizeField(req.Email),
		Phone:       normalizeField(req.Phone),
		Qty:         parseQty(req.Qty),
		Description: normalizeField(req.Description),
		Files:       stored,
		IP:          req.IP,
		UserAgent:   req.UserAgent,
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		log.Error("intake persist failed", "error", err)
		s.cleanup(uploadedKeys)
		return ref, nil, &IntakeError{Kind: FailServer}
	}

	log.Info("intake completed", "files", len(stored))
	return ref, ticket, nil
}

// mintRef generates a reference and retries on collision. When the
// existence check itself fails the last candidate is used as-is; the unique
// index on tickets.ref is the backstop.
func (s *IntakeService) mintRef(ctx context.Context) string {
	ref := MakeRef(s.now())
	for i := 0; i < refMintAttempts; i++ {
		exists, err := s.repo.RefExists(ctx, ref)
		if err != nil || !exists {
			return ref
		}
		ref = MakeRef(s.now())
	}
	return ref
}

func (s *IntakeService) uploadOne(ctx context.Context, key string, f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()
	return s.store.Put(ctx, key, f.ContentType, rc)
}

// cleanup best-effort deletes previously uploaded keys so a failed intake
// leaves no orphan objects behind. Uses a fresh context: the request context
// may already be canceled.
func (s *IntakeService) cleanup(keys []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete orphan object", "key", key, "error", err)
		}
	}
}
