package certificate

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by unit tests.
type MemoryStore struct {
	mu    sync.Mutex
	certs map[string]*SecureDeletionCertificate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{certs: make(map[string]*SecureDeletionCertificate)}
}

func (s *MemoryStore) Create(ctx context.Context, cert *SecureDeletionCertificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cert
	s.certs[cert.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, organisationID, id string) (*SecureDeletionCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.certs[id]
	if !ok || cert.OrganisationID != organisationID {
		return nil, ErrCertificateNotFound
	}
	clone := *cert
	return &clone, nil
}

func (s *MemoryStore) GetByNumber(ctx context.Context, certificateNumber string) (*SecureDeletionCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cert := range s.certs {
		if cert.CertificateNumber == certificateNumber {
			clone := *cert
			return &clone, nil
		}
	}
	return nil, ErrCertificateNotFound
}

func (s *MemoryStore) List(ctx context.Context, organisationID string, limit int) ([]SecureDeletionCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SecureDeletionCertificate
	for _, cert := range s.certs {
		if cert.OrganisationID == organisationID {
			out = append(out, *cert)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].CertificateNumber < out[j].CertificateNumber
		}
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
