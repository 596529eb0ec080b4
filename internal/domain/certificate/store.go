package certificate

import (
	"context"
	"errors"
)

var ErrCertificateNotFound = errors.New("certificate not found")

type Store interface {
	Create(ctx context.Context, cert *SecureDeletionCertificate) error
	Get(ctx context.Context, organisationID, id string) (*SecureDeletionCertificate, error)
	GetByNumber(ctx context.Context, certificateNumber string) (*SecureDeletionCertificate, error)
	List(ctx context.Context, organisationID string, limit int) ([]SecureDeletionCertificate, error)
}
