// Package profiles stores named detector presets.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/soltixdb/sst/internal/config"
	"github.com/soltixdb/sst/internal/models"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrInvalidName = errors.New("invalid profile name")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,63}$`)

// Store persists profiles by name
type Store interface {
	// Put creates or replaces a profile. CreatedAt is preserved on replace.
	Put(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, name string) (*models.Profile, error)
	// List returns all profiles ordered by name
	List(ctx context.Context) ([]*models.Profile, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// NewStore creates the store selected by cfg.Backend
func NewStore(cfg config.ProfilesConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "etcd":
		return NewEtcdStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported profile backend: %s", cfg.Backend)
	}
}

// ValidateName checks that name can be used as a key in every backend
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
