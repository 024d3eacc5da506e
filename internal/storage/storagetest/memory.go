// Package storagetest provides an in-memory storage.Service for tests.
package storagetest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"liggs/internal/storage"
)

// Object is a stored blob together with the metadata it was uploaded with.
type Object struct {
	Body               []byte
	ContentType        string
	ContentDisposition string
	LastModified       time.Time
}

// Memory keeps objects per bucket in maps. SetErr makes every call fail.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]map[string]Object
	err     error
}

func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]map[string]Object)}
}

// SetErr makes subsequent calls return err; nil restores normal behaviour.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.buckets[opts.Bucket] == nil {
		m.buckets[opts.Bucket] = make(map[string]Object)
	}
	m.buckets[opts.Bucket][opts.Key] = Object{
		Body:               data,
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
		LastModified:       time.Now().UTC(),
	}
	return fmt.Sprintf("s3://%s/%s", opts.Bucket, opts.Key), nil
}

func (m *Memory) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var objects []storage.ObjectInfo
	for key, obj := range m.buckets[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		modified := obj.LastModified
		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.Body)),
			LastModified: &modified,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *Memory) DeletePrefix(_ context.Context, bucket, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for key := range m.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			delete(m.buckets[bucket], key)
		}
	}
	return nil
}

func (m *Memory) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("https://%s.example.test/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}

// Get returns a stored object.
func (m *Memory) Get(bucket, key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucket][key]
	return obj, ok
}

// Keys lists every key stored in the bucket, sorted.
func (m *Memory) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for key := range m.buckets[bucket] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ storage.Service = (*Memory)(nil)
