// Package filestoretest provides an in-memory filestore.ObjectStore for tests.
package filestoretest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/filestore"
	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps objects in a map. Set Err to make every call fail.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	clock   clockwork.Clock

	Err   error
	Calls map[string]int
}

type memObject struct {
	body        []byte
	contentType string
	obj         filestore.Object
}

// NewMemoryStore returns an empty store stamped by the given clock.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		objects: make(map[string]memObject),
		clock:   clock,
		Calls:   make(map[string]int),
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["put"]++
	if m.Err != nil {
		return m.Err
	}
	m.objects[key] = memObject{
		body:        append([]byte(nil), body...),
		contentType: contentType,
		obj:         filestore.Object{Key: key, Size: int64(len(body)), LastModified: m.clock.Now()},
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["get"]++
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), o.body...), nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]filestore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["list"]++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []filestore.Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["delete"]++
	if m.Err != nil {
		return m.Err
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) DeleteMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["delete_many"]++
	if m.Err != nil {
		return m.Err
	}
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

// CheckReadiness reports the configured error, if any.
func (m *MemoryStore) CheckReadiness(_ context.Context) error {
	return m.Err
}

// Keys returns every stored key in order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key].contentType
}
