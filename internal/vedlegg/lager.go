package vedlegg

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Lager stores attachment bytes keyed by an opaque reference. The
// metadata row in the database carries the reference.
type Lager interface {
	Lagre(ctx context.Context, innhold []byte) (string, error)
	Hent(ctx context.Context, ref string) ([]byte, error)
	Slett(ctx context.Context, ref string) error
}

// ErrIkkeFunnet is returned when a reference has no stored bytes
var ErrIkkeFunnet = fmt.Errorf("vedlegg not found in store")

// MinneLager keeps attachment bytes in memory. Suitable for local runs
// and tests; production deployments mount an object store behind the
// same interface.
type MinneLager struct {
	mu    sync.RWMutex
	filer map[string][]byte
}

// NewMinneLager creates an empty in-memory store
func NewMinneLager() *MinneLager {
	return &MinneLager{filer: make(map[string][]byte)}
}

// Lagre stores a copy of the bytes and returns the new reference
func (l *MinneLager) Lagre(ctx context.Context, innhold []byte) (string, error) {
	ref := uuid.New().String()

	kopi := make([]byte, len(innhold))
	copy(kopi, innhold)

	l.mu.Lock()
	l.filer[ref] = kopi
	l.mu.Unlock()

	return ref, nil
}

// Hent returns the stored bytes for the reference
func (l *MinneLager) Hent(ctx context.Context, ref string) ([]byte, error) {
	l.mu.RLock()
	innhold, ok := l.filer[ref]
	l.mu.RUnlock()

	if !ok {
		return nil, ErrIkkeFunnet
	}

	kopi := make([]byte, len(innhold))
	copy(kopi, innhold)
	return kopi, nil
}

// Slett removes the stored bytes. Deleting an unknown reference is a no-op.
func (l *MinneLager) Slett(ctx context.Context, ref string) error {
	l.mu.Lock()
	delete(l.filer, ref)
	l.mu.Unlock()
	return nil
}
