package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/database"
	"github.com/campusworks/registrar-engine/pkg/models"
)

// EntityRepository owns entity identity: creation, renaming, deletion, and
// domain listings. Deleting an entity cascades into the value table in the
// same statement, so a successful delete never leaves orphaned value rows.
type EntityRepository interface {
	Create(ctx context.Context, domain, displayName string) (*models.Entity, error)
	Rename(ctx context.Context, id models.EntityID, displayName string) error
	Delete(ctx context.Context, id models.EntityID) error
	Exists(ctx context.Context, id models.EntityID) (bool, error)
	GetByID(ctx context.Context, id models.EntityID) (*models.Entity, error)
	GetByIDs(ctx context.Context, ids []models.EntityID) ([]*models.Entity, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Entity, error)
	ListByDomain(ctx context.Context, domain string) ([]models.EntityID, error)
}

type entityRepository struct{}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository() EntityRepository {
	return &entityRepository{}
}

var _ EntityRepository = (*entityRepository)(nil)

func (r *entityRepository) Create(ctx context.Context, domain, displayName string) (*models.Entity, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, apperrors.ErrInvalidDomain
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	entity := &models.Entity{
		PublicID:    uuid.New(),
		Domain:      domain,
		DisplayName: displayName,
	}

	query := `
		INSERT INTO eav_entities (public_id, domain, display_name)
		VALUES ($1, $2, $3)
		RETURNING entity_id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query, entity.PublicID, entity.Domain, entity.DisplayName).
		Scan(&entity.ID, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return entity, nil
}

func (r *entityRepository) Rename(ctx context.Context, id models.EntityID, displayName string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE eav_entities
		SET display_name = $2, updated_at = now()
		WHERE entity_id = $1`

	tag, err := scope.Conn.Exec(ctx, query, id, displayName)
	if err != nil {
		return fmt.Errorf("failed to rename entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entity %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes the entity. The ON DELETE CASCADE constraint on eav_values
// removes every value row in the same atomic statement, which is what
// resolves the delete-versus-concurrent-set race: a set either lands before
// the delete (and is cascaded away) or its foreign key check fails.
func (r *entityRepository) Delete(ctx context.Context, id models.EntityID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM eav_entities WHERE entity_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entity %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *entityRepository) Exists(ctx context.Context, id models.EntityID) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	var exists bool
	err := scope.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM eav_entities WHERE entity_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}

	return exists, nil
}

func (r *entityRepository) GetByID(ctx context.Context, id models.EntityID) (*models.Entity, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT entity_id, public_id, domain, display_name, created_at, updated_at
		FROM eav_entities
		WHERE entity_id = $1`

	entity, err := scanEntity(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("entity %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return entity, nil
}

func (r *entityRepository) GetByIDs(ctx context.Context, ids []models.EntityID) ([]*models.Entity, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT entity_id, public_id, domain, display_name, created_at, updated_at
		FROM eav_entities
		WHERE entity_id = ANY($1)
		ORDER BY entity_id`

	rows, err := scope.Conn.Query(ctx, query, entityIDsToInt64(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}

	return entities, nil
}

func (r *entityRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Entity, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT entity_id, public_id, domain, display_name, created_at, updated_at
		FROM eav_entities
		WHERE public_id = $1`

	entity, err := scanEntity(scope.Conn.QueryRow(ctx, query, publicID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("entity %s: %w", publicID, apperrors.ErrNotFound)
		}
		return nil, err
	}

	return entity, nil
}

func (r *entityRepository) ListByDomain(ctx context.Context, domain string) ([]models.EntityID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT entity_id
		FROM eav_entities
		WHERE domain = $1
		ORDER BY entity_id`

	rows, err := scope.Conn.Query(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities by domain: %w", err)
	}
	defer rows.Close()

	var ids []models.EntityID
	for rows.Next() {
		var id models.EntityID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entity id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity ids: %w", err)
	}

	return ids, nil
}

func scanEntity(row pgx.Row) (*models.Entity, error) {
	var e models.Entity

	err := row.Scan(&e.ID, &e.PublicID, &e.Domain, &e.DisplayName, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	return &e, nil
}

func entityIDsToInt64(ids []models.EntityID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
