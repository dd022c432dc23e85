package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityID is the internal handle for an entity, assigned from the backend
// sequence on creation. It is opaque to callers; ordering by EntityID is
// insertion order.
type EntityID int64

// AttributeID is the internal handle for an attribute definition.
type AttributeID int64

// Entity is an identity record. The domain tag is fixed at creation;
// everything domain-specific about the entity lives in attribute values.
// Stored in eav_entities.
type Entity struct {
	ID          EntityID  `json:"id"`
	PublicID    uuid.UUID `json:"public_id"` // handle exposed to web callers
	Domain      string    `json:"domain"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttributeDefinition declares a named, typed attribute within a domain.
// Names are unique per domain; the kind is fixed once defined.
// Stored in eav_attributes.
type AttributeDefinition struct {
	ID        AttributeID `json:"id"`
	Domain    string      `json:"domain"`
	Name      string      `json:"name"`
	Kind      ValueKind   `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}
