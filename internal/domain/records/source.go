package records

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"sentra/internal/domain/policy"
)

// Entity is one governed record found by an eligibility scan.
// CreatedAt carries the data-type-specific governing timestamp
// (creation, completion, issuance) the retention clock runs from.
type Entity struct {
	ResourceTable  string
	ResourceID     string
	OrganisationID string
	UserID         string
	CreatedAt      time.Time
}

// Source is the per-data-type hook surface the executors run against.
// ListEligible and Count are pure reads; the remaining operations mutate
// the underlying collection.
type Source interface {
	DataType() policy.DataType
	ResourceTable() string

	// ListEligible returns entities whose governing timestamp is older
	// than cutoff, applying the data type's own eligibility predicate
	// (inactive users only, expired certificates only, ...).
	ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error)
	Count(ctx context.Context, organisationID string) (int, error)

	// SoftDelete reversibly de-identifies the entity.
	SoftDelete(ctx context.Context, e Entity) error
	// Restore reverses a soft delete while the grace period is open.
	Restore(ctx context.Context, e Entity) error
	// Overwrite writes one pass of randomized content over identifying fields.
	Overwrite(ctx context.Context, e Entity, pass int) error
	// Delete removes the entity from the underlying store.
	Delete(ctx context.Context, e Entity) error
}

// Sources is the closed dispatch table from data type to source.
type Sources map[policy.DataType]Source

func (s Sources) For(dataType policy.DataType) (Source, error) {
	src, ok := s[dataType]
	if !ok {
		return nil, fmt.Errorf("no record source registered for data type %q", dataType)
	}
	return src, nil
}

// NewSources builds the table and rejects duplicate or missing registrations,
// so an unwired data type is a construction error rather than a runtime skip.
func NewSources(sources ...Source) (Sources, error) {
	table := make(Sources, len(sources))
	for _, src := range sources {
		if _, dup := table[src.DataType()]; dup {
			return nil, fmt.Errorf("duplicate record source for data type %q", src.DataType())
		}
		table[src.DataType()] = src
	}
	for _, dt := range policy.AllDataTypes() {
		if _, ok := table[dt]; !ok {
			return nil, fmt.Errorf("no record source registered for data type %q", dt)
		}
	}
	return table, nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for overwrite semantics.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
