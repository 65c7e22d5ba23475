package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dixon3d-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no ticket exists for the given ref.
var ErrNotFound = errors.New("ticket not found")

// ErrDuplicateRef is returned when an insert hits the unique ref index.
var ErrDuplicateRef = errors.New("duplicate ticket ref")

// TicketRepository handles database operations for tickets
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create inserts one immutable ticket row. Tickets are never updated.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	filesJSON, err := json.Marshal(ticket.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	query := `
		INSERT INTO tickets (
			id, ref, name, email, phone, qty, description, files_json, ip, ua
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err = r.db.QueryRow(
		ctx, query,
		ticket.ID,
		ticket.Ref,
		ticket.Name,
		ticket.Email,
		ticket.Phone,
		ticket.Qty,
		ticket.Description,
		filesJSON,
		ticket.IP,
		ticket.UserAgent,
	).Scan(&ticket.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRef
	}
	return err
}

// GetByRef retrieves a ticket by its tracking reference. Provenance columns
// are not selected; read paths never see them.
func (r *TicketRepository) GetByRef(ctx context.Context, ref string) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var filesJSON []byte

	query := `
		SELECT id, ref, name, email, phone, qty, description, files_json, created_at
		FROM tickets
		WHERE ref = $1`

	err := r.db.QueryRow(ctx, query, ref).Scan(
		&ticket.ID,
		&ticket.Ref,
		&ticket.Name,
		&ticket.Email,
		&ticket.Phone,
		&ticket.Qty,
		&ticket.Description,
		&filesJSON,
		&ticket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ticket.Files = []models.StoredFile{}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &ticket.Files); err != nil {
			return nil, fmt.Errorf("failed to unmarshal files: %w", err)
		}
	}

	return ticket, nil
}

// RefExists reports whether a ticket already uses the given ref.
func (r *TicketRepository) RefExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ref = $1)`, ref).Scan(&exists)
	return exists, err
}
