package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/database"
	"github.com/campusworks/registrar-engine/pkg/models"
)

// AttributeRepository is the per-domain registry of attribute definitions.
// Definitions are append-only: Define never mutates an existing row, and a
// re-registration with a different kind is refused, not applied.
type AttributeRepository interface {
	// Define registers (domain, name, kind). It is idempotent: if an
	// identical definition exists its id is returned with created=false.
	// A definition with the same name but a different kind yields
	// apperrors.ErrKindConflict and leaves the existing row untouched.
	Define(ctx context.Context, domain, name string, kind models.ValueKind) (id models.AttributeID, created bool, err error)
	Resolve(ctx context.Context, domain, name string) (models.AttributeID, error)
	KindOf(ctx context.Context, id models.AttributeID) (models.ValueKind, error)
	Get(ctx context.Context, domain, name string) (*models.AttributeDefinition, error)
	ListByDomain(ctx context.Context, domain string) ([]*models.AttributeDefinition, error)
	ListByDomains(ctx context.Context, domains []string) ([]*models.AttributeDefinition, error)
}

type attributeRepository struct{}

// NewAttributeRepository creates a new AttributeRepository.
func NewAttributeRepository() AttributeRepository {
	return &attributeRepository{}
}

var _ AttributeRepository = (*attributeRepository)(nil)

func (r *attributeRepository) Define(ctx context.Context, domain, name string, kind models.ValueKind) (models.AttributeID, bool, error) {
	if !kind.Valid() {
		return 0, false, fmt.Errorf("kind %q: %w", kind, apperrors.ErrInvalidKind)
	}
	if domain == "" {
		return 0, false, apperrors.ErrInvalidDomain
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, false, fmt.Errorf("no database scope in context")
	}

	// ON CONFLICT DO NOTHING keeps concurrent Define calls race-free: at
	// most one insert wins, everyone else falls through to the re-read.
	insert := `
		INSERT INTO eav_attributes (domain, name, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain, name) DO NOTHING
		RETURNING attribute_id`

	var id models.AttributeID
	err := scope.Conn.QueryRow(ctx, insert, domain, name, kind).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, fmt.Errorf("failed to define attribute: %w", err)
	}

	var existingKind models.ValueKind
	err = scope.Conn.QueryRow(ctx,
		`SELECT attribute_id, kind FROM eav_attributes WHERE domain = $1 AND name = $2`,
		domain, name).Scan(&id, &existingKind)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read existing attribute: %w", err)
	}

	if existingKind != kind {
		return 0, false, fmt.Errorf("attribute %s.%s is %s, requested %s: %w",
			domain, name, existingKind, kind, apperrors.ErrKindConflict)
	}

	return id, false, nil
}

func (r *attributeRepository) Resolve(ctx context.Context, domain, name string) (models.AttributeID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var id models.AttributeID
	err := scope.Conn.QueryRow(ctx,
		`SELECT attribute_id FROM eav_attributes WHERE domain = $1 AND name = $2`,
		domain, name).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, fmt.Errorf("attribute %s.%s: %w", domain, name, apperrors.ErrUnknownAttribute)
		}
		return 0, fmt.Errorf("failed to resolve attribute: %w", err)
	}

	return id, nil
}

func (r *attributeRepository) KindOf(ctx context.Context, id models.AttributeID) (models.ValueKind, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return "", fmt.Errorf("no database scope in context")
	}

	var kind models.ValueKind
	err := scope.Conn.QueryRow(ctx,
		`SELECT kind FROM eav_attributes WHERE attribute_id = $1`, id).Scan(&kind)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("attribute %d: %w", id, apperrors.ErrUnknownAttribute)
		}
		return "", fmt.Errorf("failed to read attribute kind: %w", err)
	}

	return kind, nil
}

func (r *attributeRepository) Get(ctx context.Context, domain, name string) (*models.AttributeDefinition, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT attribute_id, domain, name, kind, created_at
		FROM eav_attributes
		WHERE domain = $1 AND name = $2`

	def, err := scanAttributeDefinition(scope.Conn.QueryRow(ctx, query, domain, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("attribute %s.%s: %w", domain, name, apperrors.ErrUnknownAttribute)
		}
		return nil, err
	}

	return def, nil
}

func (r *attributeRepository) ListByDomain(ctx context.Context, domain string) ([]*models.AttributeDefinition, error) {
	return r.ListByDomains(ctx, []string{domain})
}

func (r *attributeRepository) ListByDomains(ctx context.Context, domains []string) ([]*models.AttributeDefinition, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}
	if len(domains) == 0 {
		return nil, nil
	}

	query := `
		SELECT attribute_id, domain, name, kind, created_at
		FROM eav_attributes
		WHERE domain = ANY($1)
		ORDER BY attribute_id`

	rows, err := scope.Conn.Query(ctx, query, domains)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	var defs []*models.AttributeDefinition
	for rows.Next() {
		def, err := scanAttributeDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return defs, nil
}

func scanAttributeDefinition(row pgx.Row) (*models.AttributeDefinition, error) {
	var d models.AttributeDefinition

	err := row.Scan(&d.ID, &d.Domain, &d.Name, &d.Kind, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan attribute definition: %w", err)
	}

	return &d, nil
}
