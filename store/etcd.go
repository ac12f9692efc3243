package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOptions configures the etcd-backed store.
type EtcdOptions struct {
	// Endpoints is the list of etcd cluster endpoints.
	Endpoints []string

	// Namespace is the key prefix. Defaults to "plugbot".
	Namespace string

	// DialTimeout is the maximum time to wait for the initial connection.
	DialTimeout time.Duration
}

// EtcdStore implements Store on top of an etcd cluster.
//
// Records are JSON values at "<ns>/instance/<id>"; plugin namespaces are
// keys under "<ns>/plugin/<id>/".
type EtcdStore struct {
	client    *clientv3.Client
	namespace string
}

// NewEtcdStore connects to etcd and verifies connectivity.
func NewEtcdStore(opts EtcdOptions) (*EtcdStore, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	if opts.Namespace == "" {
		opts.Namespace = "plugbot"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if _, err := cli.Get(ctx, opts.Namespace+"/health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &EtcdStore{client: cli, namespace: opts.Namespace}, nil
}

func (s *EtcdStore) recordKey(id string) string {
	return fmt.Sprintf("%s/instance/%s", s.namespace, id)
}

func (s *EtcdStore) recordPrefix() string {
	return fmt.Sprintf("%s/instance/", s.namespace)
}

func (s *EtcdStore) namespacePrefix(id string) string {
	return fmt.Sprintf("%s/plugin/%s/", s.namespace, id)
}

// Get returns the record with the given ID.
func (s *EtcdStore) Get(ctx context.Context, id string) (*Record, error) {
	resp, err := s.client.Get(ctx, s.recordKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(resp.Kvs[0].Value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &rec, nil
}

// Put inserts or replaces a record.
func (s *EtcdStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	if _, err := s.client.Put(ctx, s.recordKey(rec.ID), string(data)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the record with the given ID.
func (s *EtcdStore) Delete(ctx context.Context, id string) error {
	resp, err := s.client.Delete(ctx, s.recordKey(id))
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// All returns every persisted record.
func (s *EtcdStore) All(ctx context.Context) ([]*Record, error) {
	resp, err := s.client.Get(ctx, s.recordPrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]*Record, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var rec Record
		if err := json.Unmarshal(kv.Value, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", string(kv.Key), err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

// Namespace returns the private data bucket for the given instance ID.
func (s *EtcdStore) Namespace(id string) Namespace {
	return &etcdNamespace{client: s.client, prefix: s.namespacePrefix(id)}
}

// Close closes the etcd connection.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}

type etcdNamespace struct {
	client *clientv3.Client
	prefix string
}

func (n *etcdNamespace) Get(ctx context.Context, key string) (string, error) {
	resp, err := n.client.Get(ctx, n.prefix+key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s%s: %w", n.prefix, key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", ErrNotFound
	}
	return string(resp.Kvs[0].Value), nil
}

func (n *etcdNamespace) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if _, err := n.client.Put(ctx, n.prefix+key, value); err != nil {
		return fmt.Errorf("failed to write %s%s: %w", n.prefix, key, err)
	}
	return nil
}

func (n *etcdNamespace) Delete(ctx context.Context, key string) error {
	resp, err := n.client.Delete(ctx, n.prefix+key)
	if err != nil {
		return fmt.Errorf("failed to delete %s%s: %w", n.prefix, key, err)
	}
	if resp.Deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (n *etcdNamespace) Keys(ctx context.Context) ([]string, error) {
	resp, err := n.client.Get(ctx, n.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list keys under %s: %w", n.prefix, err)
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), n.prefix))
	}
	return keys, nil
}

func (n *etcdNamespace) Clear(ctx context.Context) error {
	if _, err := n.client.Delete(ctx, n.prefix, clientv3.WithPrefix()); err != nil {
		return fmt.Errorf("failed to clear %s: %w", n.prefix, err)
	}
	return nil
}
