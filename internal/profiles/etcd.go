package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/soltixdb/sst/internal/config"
	"github.com/soltixdb/sst/internal/models"
)

const defaultPrefix = "/sst/profiles/"

// EtcdStore keeps profiles as JSON documents under prefix+name
type EtcdStore struct {
	client    *clientv3.Client
	prefix    string
	cache     *ttlCache
	ownClient bool
}

// NewEtcdStore connects to the configured etcd cluster
func NewEtcdStore(cfg config.ProfilesConfig) (*EtcdStore, error) {
	dialTimeout := cfg.Etcd.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Etcd.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Etcd.Username,
		Password:    cfg.Etcd.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	s := NewEtcdStoreWithClient(client, cfg.Prefix, cfg.CacheTTL)
	s.ownClient = true
	return s, nil
}

// NewEtcdStoreWithClient wraps an existing client. The caller keeps ownership of client.
func NewEtcdStoreWithClient(client *clientv3.Client, prefix string, cacheTTL time.Duration) *EtcdStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &EtcdStore{
		client: client,
		prefix: prefix,
		cache:  newTTLCache(cacheTTL),
	}
}

func (s *EtcdStore) key(name string) string {
	return s.prefix + name
}

func (s *EtcdStore) Put(ctx context.Context, p *models.Profile) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}

	now := time.Now().UTC()
	existing, err := s.Get(ctx, p.Name)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
	case p.CreatedAt.IsZero():
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	key := s.key(p.Name)
	if _, err := s.client.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to store profile in etcd: %w", err)
	}
	s.cache.set(key, data)
	return nil
}

func (s *EtcdStore) Get(ctx context.Context, name string) (*models.Profile, error) {
	key := s.key(name)

	data, ok := s.cache.get(key)
	if !ok {
		resp, err := s.client.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile from etcd: %w", err)
		}
		if len(resp.Kvs) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		data = resp.Kvs[0].Value
		s.cache.set(key, data)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

func (s *EtcdStore) List(ctx context.Context) ([]*models.Profile, error) {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles from etcd: %w", err)
	}

	list := make([]*models.Profile, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var p models.Profile
		if err := json.Unmarshal(kv.Value, &p); err != nil {
			continue
		}
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *EtcdStore) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	resp, err := s.client.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete profile from etcd: %w", err)
	}
	s.cache.delete(key)
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close stops the cache and closes the client if the store created it
func (s *EtcdStore) Close() error {
	s.cache.stop()
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}
