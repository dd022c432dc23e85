package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/database"
	"github.com/campusworks/registrar-engine/pkg/models"
)

// scalarIndex is the array_index sentinel for scalar attributes. Together
// with the primary key it enforces at-most-one value per (entity, attribute)
// pair.
const scalarIndex = -1

// ValueWrite is one element of a transactional batch write.
type ValueWrite struct {
	AttributeID models.AttributeID
	Value       models.Value
	ArrayIndex  *int
}

// ValueRow is a raw stored value as read back for projection: the key plus
// the typed payload. ArrayIndex is scalarIndex for scalar attributes.
type ValueRow struct {
	EntityID    models.EntityID
	AttributeID models.AttributeID
	ArrayIndex  int
	Value       models.Value
}

// ValueRepository is the typed key-value table behind every domain. Writes
// are upserts (last writer wins); kind validation happens here so a
// mismatched value never reaches the table, and the database CHECK
// constraint backs that up structurally.
type ValueRepository interface {
	Set(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID, value models.Value, arrayIndex *int) error
	// SetMany applies a batch of writes to one entity in a single
	// transaction; either all writes land or none do.
	SetMany(ctx context.Context, entityID models.EntityID, writes []ValueWrite) error
	// Get returns the stored value(s): one element for a set scalar, the
	// index-ordered sequence for an array, an empty slice if unset.
	Get(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID) ([]models.Value, error)
	// Clear deletes matching rows. A nil arrayIndex on an array attribute
	// clears the whole sequence. Clearing an unset attribute is a no-op.
	Clear(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID, arrayIndex *int) error
	// GetAllForEntities reads every value row for the given entities in one
	// query, ordered by (entity_id, attribute_id, array_index).
	GetAllForEntities(ctx context.Context, entityIDs []models.EntityID) ([]ValueRow, error)
}

type valueRepository struct{}

// NewValueRepository creates a new ValueRepository.
func NewValueRepository() ValueRepository {
	return &valueRepository{}
}

var _ ValueRepository = (*valueRepository)(nil)

// rowExecer is satisfied by both *pgxpool.Conn and pgx.Tx, so the single-row
// upsert can run standalone or inside a batch transaction.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *valueRepository) Set(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID, value models.Value, arrayIndex *int) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	kind, err := lookupKind(ctx, scope, attributeID)
	if err != nil {
		return err
	}

	if err := validateWrite(kind, value, arrayIndex); err != nil {
		return err
	}

	return upsertValue(ctx, scope.Conn, entityID, attributeID, value, arrayIndex)
}

func (r *valueRepository) SetMany(ctx context.Context, entityID models.EntityID, writes []ValueWrite) error {
	if len(writes) == 0 {
		return nil
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	kinds, err := lookupKinds(ctx, scope, writes)
	if err != nil {
		return err
	}

	// Validate the whole batch before touching the table.
	for _, w := range writes {
		kind, ok := kinds[w.AttributeID]
		if !ok {
			return fmt.Errorf("attribute %d: %w", w.AttributeID, apperrors.ErrUnknownAttribute)
		}
		if err := validateWrite(kind, w.Value, w.ArrayIndex); err != nil {
			return err
		}
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, w := range writes {
		if err = upsertValue(ctx, tx, entityID, w.AttributeID, w.Value, w.ArrayIndex); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit value batch: %w", err)
	}

	return nil
}

func (r *valueRepository) Get(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID) ([]models.Value, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT string_value, number_value, reference_value
		FROM eav_values
		WHERE entity_id = $1 AND attribute_id = $2
		ORDER BY array_index`

	rows, err := scope.Conn.Query(ctx, query, entityID, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	values := []models.Value{}
	for rows.Next() {
		var (
			s   *string
			n   *float64
			ref *int64
		)
		if err := rows.Scan(&s, &n, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}
		values = append(values, payloadToValue(s, n, ref))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating values: %w", err)
	}

	return values, nil
}

func (r *valueRepository) Clear(ctx context.Context, entityID models.EntityID, attributeID models.AttributeID, arrayIndex *int) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	var err error
	if arrayIndex == nil {
		_, err = scope.Conn.Exec(ctx,
			`DELETE FROM eav_values WHERE entity_id = $1 AND attribute_id = $2`,
			entityID, attributeID)
	} else {
		_, err = scope.Conn.Exec(ctx,
			`DELETE FROM eav_values WHERE entity_id = $1 AND attribute_id = $2 AND array_index = $3`,
			entityID, attributeID, *arrayIndex)
	}
	if err != nil {
		return fmt.Errorf("failed to clear values: %w", err)
	}

	return nil
}

func (r *valueRepository) GetAllForEntities(ctx context.Context, entityIDs []models.EntityID) ([]ValueRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}
	if len(entityIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT entity_id, attribute_id, array_index,
		       string_value, number_value, reference_value
		FROM eav_values
		WHERE entity_id = ANY($1)
		ORDER BY entity_id, attribute_id, array_index`

	rows, err := scope.Conn.Query(ctx, query, entityIDsToInt64(entityIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query value rows: %w", err)
	}
	defer rows.Close()

	var out []ValueRow
	for rows.Next() {
		var (
			vr  ValueRow
			s   *string
			n   *float64
			ref *int64
		)
		if err := rows.Scan(&vr.EntityID, &vr.AttributeID, &vr.ArrayIndex, &s, &n, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}
		vr.Value = payloadToValue(s, n, ref)
		out = append(out, vr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value rows: %w", err)
	}

	return out, nil
}

// validateWrite checks the value's runtime kind against the attribute's
// declared kind and the index presence against arrayness. Nothing is written
// when any check fails.
func validateWrite(kind models.ValueKind, value models.Value, arrayIndex *int) error {
	if kind.IsArray() {
		if arrayIndex == nil {
			return fmt.Errorf("attribute kind %s: %w", kind, apperrors.ErrArrayIndexRequired)
		}
		if *arrayIndex < 0 {
			return fmt.Errorf("attribute kind %s: negative index: %w", kind, apperrors.ErrArrayIndexRequired)
		}
	} else if arrayIndex != nil {
		return fmt.Errorf("attribute kind %s: %w", kind, apperrors.ErrArrayIndexNotAllowed)
	}

	if value.IsZero() || value.Kind() != kind.Elem() {
		return fmt.Errorf("attribute kind %s, value kind %s: %w",
			kind, value.Kind(), apperrors.ErrKindMismatch)
	}

	return nil
}

func upsertValue(ctx context.Context, q rowExecer, entityID models.EntityID, attributeID models.AttributeID, value models.Value, arrayIndex *int) error {
	idx := scalarIndex
	if arrayIndex != nil {
		idx = *arrayIndex
	}

	var (
		s   *string
		n   *float64
		ref *int64
	)
	switch value.Kind() {
	case models.KindString:
		v, _ := value.AsString()
		s = &v
	case models.KindNumber:
		v, _ := value.AsNumber()
		n = &v
	case models.KindReference:
		v, _ := value.AsReference()
		i := int64(v)
		ref = &i
	}

	query := `
		INSERT INTO eav_values (entity_id, attribute_id, array_index,
		                        string_value, number_value, reference_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, attribute_id, array_index) DO UPDATE
		SET string_value    = EXCLUDED.string_value,
		    number_value    = EXCLUDED.number_value,
		    reference_value = EXCLUDED.reference_value,
		    updated_at      = now()`

	_, err := q.Exec(ctx, query, entityID, attributeID, idx, s, n, ref)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			if pgConstraint(err) == "eav_values_attribute_id_fkey" {
				return fmt.Errorf("attribute %d: %w", attributeID, apperrors.ErrUnknownAttribute)
			}
			return fmt.Errorf("entity %d: %w", entityID, apperrors.ErrEntityNotFound)
		}
		return fmt.Errorf("failed to upsert value: %w", err)
	}

	return nil
}

func lookupKind(ctx context.Context, scope *database.Scope, attributeID models.AttributeID) (models.ValueKind, error) {
	var kind models.ValueKind
	err := scope.Conn.QueryRow(ctx,
		`SELECT kind FROM eav_attributes WHERE attribute_id = $1`, attributeID).Scan(&kind)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("attribute %d: %w", attributeID, apperrors.ErrUnknownAttribute)
		}
		return "", fmt.Errorf("failed to read attribute kind: %w", err)
	}
	return kind, nil
}

func lookupKinds(ctx context.Context, scope *database.Scope, writes []ValueWrite) (map[models.AttributeID]models.ValueKind, error) {
	ids := make([]int64, 0, len(writes))
	for _, w := range writes {
		ids = append(ids, int64(w.AttributeID))
	}

	rows, err := scope.Conn.Query(ctx,
		`SELECT attribute_id, kind FROM eav_attributes WHERE attribute_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute kinds: %w", err)
	}
	defer rows.Close()

	kinds := make(map[models.AttributeID]models.ValueKind, len(writes))
	for rows.Next() {
		var (
			id   models.AttributeID
			kind models.ValueKind
		)
		if err := rows.Scan(&id, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan attribute kind: %w", err)
		}
		kinds[id] = kind
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribute kinds: %w", err)
	}

	return kinds, nil
}

// payloadToValue rebuilds the tagged union from the one populated typed
// column. The CHECK constraint guarantees exactly one is non-null.
func payloadToValue(s *string, n *float64, ref *int64) models.Value {
	switch {
	case s != nil:
		return models.StringValue(*s)
	case n != nil:
		return models.NumberValue(*n)
	case ref != nil:
		return models.ReferenceValue(models.EntityID(*ref))
	default:
		return models.Value{}
	}
}
