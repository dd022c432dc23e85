//go:build integration

package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/models"
	"github.com/campusworks/registrar-engine/pkg/repositories"
	"github.com/campusworks/registrar-engine/pkg/testhelpers"
)

type projectorTestContext struct {
	entities  repositories.EntityRepository
	attrs     repositories.AttributeRepository
	values    repositories.ValueRepository
	projector Projector
	domain    string
}

func setupProjectorTest(t *testing.T) *projectorTestContext {
	t.Helper()
	entities := repositories.NewEntityRepository()
	attrs := repositories.NewAttributeRepository()
	values := repositories.NewValueRepository()
	return &projectorTestContext{
		entities:  entities,
		attrs:     attrs,
		values:    values,
		projector: NewProjector(entities, attrs, values, zap.NewNop()),
		domain:    fmt.Sprintf("course_%s", uuid.NewString()[:8]),
	}
}

func (tc *projectorTestContext) defineAttr(t *testing.T, ctx context.Context, name string, kind models.ValueKind) models.AttributeID {
	t.Helper()
	id, _, err := tc.attrs.Define(ctx, tc.domain, name, kind)
	require.NoError(t, err)
	return id
}

func TestProjector_Materialize(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	titleID := tc.defineAttr(t, ctx, "title", models.KindString)
	creditsID := tc.defineAttr(t, ctx, "credits", models.KindNumber)
	tc.defineAttr(t, ctx, "department", models.KindString) // defined but never set

	entity, err := tc.entities.Create(ctx, tc.domain, "CS-101")
	require.NoError(t, err)
	require.NoError(t, tc.values.Set(ctx, entity.ID, titleID, models.StringValue("Intro to Systems"), nil))
	require.NoError(t, tc.values.Set(ctx, entity.ID, creditsID, models.NumberValue(3), nil))

	rec, err := tc.projector.Materialize(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ID, rec.Entity.ID)
	assert.Equal(t, tc.domain, rec.Entity.Domain)

	title, ok := rec.GetString("title")
	require.True(t, ok)
	assert.Equal(t, "Intro to Systems", title)

	credits, ok := rec.GetNumber("credits")
	require.True(t, ok)
	assert.Equal(t, float64(3), credits)

	// Unset attributes are omitted from the record, not defaulted.
	_, ok = rec.Get("department")
	assert.False(t, ok)

	// Clearing an attribute removes it from subsequent projections.
	require.NoError(t, tc.values.Clear(ctx, entity.ID, creditsID, nil))
	rec, err = tc.projector.Materialize(ctx, entity.ID)
	require.NoError(t, err)
	_, ok = rec.Get("credits")
	assert.False(t, ok)
	_, ok = rec.GetString("title")
	assert.True(t, ok)
}

func TestProjector_Materialize_NotFound(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	_, err := tc.projector.Materialize(ctx, models.EntityID(999999999))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjector_Materialize_ArrayField(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	slotID := tc.defineAttr(t, ctx, "slot", models.KindStringArray)

	entity, err := tc.entities.Create(ctx, tc.domain, "Section A")
	require.NoError(t, err)
	require.NoError(t, tc.values.Set(ctx, entity.ID, slotID, models.StringValue("Wed 09:00"), intPtr(1)))
	require.NoError(t, tc.values.Set(ctx, entity.ID, slotID, models.StringValue("Mon 09:00"), intPtr(0)))

	rec, err := tc.projector.Materialize(ctx, entity.ID)
	require.NoError(t, err)

	field, ok := rec.Get("slot")
	require.True(t, ok)
	require.Len(t, field.Values, 2)
	first, _ := field.Values[0].AsString()
	second, _ := field.Values[1].AsString()
	assert.Equal(t, "Mon 09:00", first)
	assert.Equal(t, "Wed 09:00", second)
}

func TestProjector_MaterializeMany_MatchesIndividual(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	titleID := tc.defineAttr(t, ctx, "title", models.KindString)
	creditsID := tc.defineAttr(t, ctx, "credits", models.KindNumber)

	var ids []models.EntityID
	for i := 0; i < 3; i++ {
		entity, err := tc.entities.Create(ctx, tc.domain, fmt.Sprintf("Course %d", i))
		require.NoError(t, err)
		require.NoError(t, tc.values.Set(ctx, entity.ID, titleID, models.StringValue(fmt.Sprintf("Title %d", i)), nil))
		if i != 1 {
			require.NoError(t, tc.values.Set(ctx, entity.ID, creditsID, models.NumberValue(float64(i)), nil))
		}
		ids = append(ids, entity.ID)
	}

	batch, err := tc.projector.MaterializeMany(ctx, ids)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	// Batching must not change results: compare against independent calls.
	for i, id := range ids {
		single, err := tc.projector.Materialize(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, single.Entity, batch[i].Entity)
		assert.Equal(t, single.Fields, batch[i].Fields)
	}

	_, err = tc.projector.MaterializeMany(ctx, append(ids, 999999999))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	empty, err := tc.projector.MaterializeMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProjector_ResolveReferences(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	titleID := tc.defineAttr(t, ctx, "title", models.KindString)
	locationID := tc.defineAttr(t, ctx, "location_ref", models.KindReference)

	room, err := tc.entities.Create(ctx, tc.domain, "Science Hall 101")
	require.NoError(t, err)
	require.NoError(t, tc.values.Set(ctx, room.ID, titleID, models.StringValue("Science Hall 101"), nil))

	course, err := tc.entities.Create(ctx, tc.domain, "CS-101")
	require.NoError(t, err)
	require.NoError(t, tc.values.Set(ctx, course.ID, locationID, models.ReferenceValue(room.ID), nil))

	rec, err := tc.projector.Materialize(ctx, course.ID)
	require.NoError(t, err)

	resolved, err := tc.projector.ResolveReferences(ctx, rec, []string{"location_ref"}, false)
	require.NoError(t, err)

	field, ok := resolved.Get("location_ref")
	require.True(t, ok)
	require.Len(t, field.Resolved, 1)
	assert.Equal(t, room.ID, field.Resolved[0].Entity.ID)
	name, _ := field.Resolved[0].GetString("title")
	assert.Equal(t, "Science Hall 101", name)

	// The input record is not mutated.
	assert.Empty(t, rec.Fields["location_ref"].Resolved)
}

func TestProjector_ResolveReferences_Dangling(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	ctx, release := testhelpers.WithScope(t, engineDB)
	defer release()
	tc := setupProjectorTest(t)

	locationID := tc.defineAttr(t, ctx, "location_ref", models.KindReference)

	room, err := tc.entities.Create(ctx, tc.domain, "Doomed Room")
	require.NoError(t, err)
	course, err := tc.entities.Create(ctx, tc.domain, "CS-101")
	require.NoError(t, err)
	require.NoError(t, tc.values.Set(ctx, course.ID, locationID, models.ReferenceValue(room.ID), nil))

	require.NoError(t, tc.entities.Delete(ctx, room.ID))

	rec, err := tc.projector.Materialize(ctx, course.ID)
	require.NoError(t, err)

	// Caller decides: error by default...
	_, err = tc.projector.ResolveReferences(ctx, rec, []string{"location_ref"}, false)
	assert.ErrorIs(t, err, apperrors.ErrDanglingReference)

	// ...or omission on request.
	resolved, err := tc.projector.ResolveReferences(ctx, rec, []string{"location_ref"}, true)
	require.NoError(t, err)
	_, ok := resolved.Get("location_ref")
	assert.False(t, ok, "fully dangling field should be omitted")
}

func intPtr(i int) *int { return &i }
