package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusworks/registrar-engine/pkg/apperrors"
	"github.com/campusworks/registrar-engine/pkg/models"
	"github.com/campusworks/registrar-engine/pkg/repositories"
)

// Bootstrapper idempotently registers the canonical attribute set for each
// domain. It never deletes or mutates existing definitions; a definition
// whose kind disagrees with the spec is surfaced as a kind-conflict report
// entry for an operator to resolve, not applied.
type Bootstrapper interface {
	Ensure(ctx context.Context, specs []models.DomainSpec) (*models.BootstrapReport, error)
}

type bootstrapper struct {
	attrRepo repositories.AttributeRepository
	logger   *zap.Logger
}

// NewBootstrapper creates a Bootstrapper over the attribute registry.
func NewBootstrapper(attrRepo repositories.AttributeRepository, logger *zap.Logger) Bootstrapper {
	return &bootstrapper{
		attrRepo: attrRepo,
		logger:   logger,
	}
}

var _ Bootstrapper = (*bootstrapper)(nil)

func (b *bootstrapper) Ensure(ctx context.Context, specs []models.DomainSpec) (*models.BootstrapReport, error) {
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid domain spec: %w", err)
		}
	}

	report := &models.BootstrapReport{}
	for _, spec := range specs {
		for _, attr := range spec.Attributes {
			entry, err := b.ensureAttribute(ctx, spec.Domain, attr)
			if err != nil {
				return nil, err
			}
			report.Entries = append(report.Entries, entry)
		}
	}

	b.logger.Info("Bootstrap ensure complete",
		zap.Int("created", report.Created()),
		zap.Int("present", report.Present()),
		zap.Int("conflicts", len(report.Conflicts())))

	return report, nil
}

func (b *bootstrapper) ensureAttribute(ctx context.Context, domain string, attr models.AttributeSpec) (models.BootstrapEntry, error) {
	entry := models.BootstrapEntry{
		Domain:    domain,
		Attribute: attr.Name,
		Kind:      attr.Kind,
	}

	_, created, err := b.attrRepo.Define(ctx, domain, attr.Name, attr.Kind)
	switch {
	case err == nil && created:
		entry.Status = models.BootstrapCreated
	case err == nil:
		entry.Status = models.BootstrapPresent
	case errors.Is(err, apperrors.ErrKindConflict):
		existing, getErr := b.attrRepo.Get(ctx, domain, attr.Name)
		if getErr != nil {
			return entry, fmt.Errorf("failed to read conflicting definition: %w", getErr)
		}
		entry.Status = models.BootstrapKindConflict
		entry.ExistingKind = existing.Kind
		b.logger.Warn("Attribute kind conflict; existing definition left untouched",
			zap.String("domain", domain),
			zap.String("attribute", attr.Name),
			zap.String("existing_kind", string(existing.Kind)),
			zap.String("requested_kind", string(attr.Kind)))
	default:
		return entry, fmt.Errorf("failed to ensure attribute %s.%s: %w", domain, attr.Name, err)
	}

	return entry, nil
}
