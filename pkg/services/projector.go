package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/models"
	"github.com/campusworks/registrar-engine/pkg/repositories"
)

// Projector reconstructs typed domain records from EAV rows: the read-side
// pivot joining entity identity, attribute definitions, and stored values.
type Projector interface {
	// Materialize assembles one entity's record. Attributes with no stored
	// value are omitted from the record, never defaulted.
	Materialize(ctx context.Context, entityID models.EntityID) (*models.Record, error)
	// MaterializeMany assembles records for many entities in a bounded
	// number of queries (three), not one per entity per attribute. Result
	// order follows input order; any unknown id fails the call with
	// apperrors.ErrNotFound naming the id.
	MaterializeMany(ctx context.Context, entityIDs []models.EntityID) ([]*models.Record, error)
	// ResolveReferences returns a copy of record in which the reference
	// fields named in follow carry nested records of their targets. A
	// dangling target yields apperrors.ErrDanglingReference unless
	// omitDangling is set, in which case the dangling value is dropped.
	ResolveReferences(ctx context.Context, record *models.Record, follow []string, omitDangling bool) (*models.Record, error)
}

type projector struct {
	entityRepo repositories.EntityRepository
	attrRepo   repositories.AttributeRepository
	valueRepo  repositories.ValueRepository
	logger     *zap.Logger
}

// NewProjector creates a Projector over the three registries.
func NewProjector(
	entityRepo repositories.EntityRepository,
	attrRepo repositories.AttributeRepository,
	valueRepo repositories.ValueRepository,
	logger *zap.Logger,
) Projector {
	return &projector{
		entityRepo: entityRepo,
		attrRepo:   attrRepo,
		valueRepo:  valueRepo,
		logger:     logger,
	}
}

var _ Projector = (*projector)(nil)

func (p *projector) Materialize(ctx context.Context, entityID models.EntityID) (*models.Record, error) {
	records, err := p.MaterializeMany(ctx, []models.EntityID{entityID})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

func (p *projector) MaterializeMany(ctx context.Context, entityIDs []models.EntityID) ([]*models.Record, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	// Query 1: entity identities.
	entities, err := p.entityRepo.GetByIDs(ctx, entityIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[models.EntityID]*models.Entity, len(entities))
	domains := make([]string, 0, len(entities))
	seenDomains := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
		if _, ok := seenDomains[e.Domain]; !ok {
			seenDomains[e.Domain] = struct{}{}
			domains = append(domains, e.Domain)
		}
	}
	for _, id := range entityIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("entity %d: %w", id, apperrors.ErrNotFound)
		}
	}

	// Query 2: attribute definitions for every involved domain.
	defs, err := p.attrRepo.ListByDomains(ctx, domains)
	if err != nil {
		return nil, err
	}
	defByID := make(map[models.AttributeID]*models.AttributeDefinition, len(defs))
	for _, d := range defs {
		defByID[d.ID] = d
	}

	// Query 3: every value row, pivoted into records below. Rows arrive
	// ordered by (entity, attribute, index), so array values append in
	// index order.
	valueRows, err := p.valueRepo.GetAllForEntities(ctx, entityIDs)
	if err != nil {
		return nil, err
	}

	recordByID := make(map[models.EntityID]*models.Record, len(entities))
	for _, e := range entities {
		recordByID[e.ID] = &models.Record{
			Entity: *e,
			Fields: make(map[string]models.Field),
		}
	}

	for _, row := range valueRows {
		def, ok := defByID[row.AttributeID]
		if !ok {
			// A value row for an attribute of another domain: stored before
			// the entity's domain conventions settled. Surface and skip.
			p.logger.Warn("value row references attribute outside entity domain",
				zap.Int64("entity_id", int64(row.EntityID)),
				zap.Int64("attribute_id", int64(row.AttributeID)))
			continue
		}
		rec := recordByID[row.EntityID]
		field := rec.Fields[def.Name]
		field.Kind = def.Kind
		field.Values = append(field.Values, row.Value)
		rec.Fields[def.Name] = field
	}

	out := make([]*models.Record, len(entityIDs))
	for i, id := range entityIDs {
		out[i] = recordByID[id]
	}
	return out, nil
}

func (p *projector) ResolveReferences(ctx context.Context, record *models.Record, follow []string, omitDangling bool) (*models.Record, error) {
	if record == nil || len(follow) == 0 {
		return record, nil
	}

	followSet := make(map[string]struct{}, len(follow))
	for _, name := range follow {
		followSet[name] = struct{}{}
	}

	// Collect every target id across the followed fields so the nested
	// materialization is one batch, not one call per reference.
	targetSet := make(map[models.EntityID]struct{})
	for name := range followSet {
		field, ok := record.Fields[name]
		if !ok || field.Kind.Elem() != models.KindReference {
			continue
		}
		for _, v := range field.Values {
			if id, ok := v.AsReference(); ok {
				targetSet[id] = struct{}{}
			}
		}
	}
	if len(targetSet) == 0 {
		return record, nil
	}

	targets := make([]models.EntityID, 0, len(targetSet))
	for id := range targetSet {
		targets = append(targets, id)
	}

	// Dangling targets must not fail the batch lookup, so existence is
	// resolved per target from the entity query alone.
	existing, err := p.entityRepo.GetByIDs(ctx, targets)
	if err != nil {
		return nil, err
	}
	live := make([]models.EntityID, 0, len(existing))
	for _, e := range existing {
		live = append(live, e.ID)
	}
	nested, err := p.MaterializeMany(ctx, live)
	if err != nil {
		return nil, err
	}
	nestedByID := make(map[models.EntityID]*models.Record, len(nested))
	for _, n := range nested {
		nestedByID[n.Entity.ID] = n
	}

	resolved := &models.Record{
		Entity: record.Entity,
		Fields: make(map[string]models.Field, len(record.Fields)),
	}
	for name, field := range record.Fields {
		if _, followed := followSet[name]; !followed || field.Kind.Elem() != models.KindReference {
			resolved.Fields[name] = field
			continue
		}

		out := models.Field{Kind: field.Kind}
		for _, v := range field.Values {
			id, _ := v.AsReference()
			target, ok := nestedByID[id]
			if !ok {
				if omitDangling {
					p.logger.Warn("omitting dangling reference",
						zap.String("attribute", name),
						zap.Int64("target_entity_id", int64(id)))
					continue
				}
				return nil, fmt.Errorf("attribute %q -> entity %d: %w",
					name, id, apperrors.ErrDanglingReference)
			}
			out.Values = append(out.Values, v)
			out.Resolved = append(out.Resolved, target)
		}
		if len(out.Values) > 0 {
			resolved.Fields[name] = out
		}
	}

	return resolved, nil
}
