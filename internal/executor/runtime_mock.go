package executor

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MockResolver resolves a single field instance in tests.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// NewMockValueResolver returns a resolver that always yields val.
func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

// NewMockErrorResolver returns a resolver that always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// Call records one ResolveField invocation.
type Call struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	Path       string
}

// MockRuntime is a Runtime for tests. Resolvers are keyed "Type.field";
// unbound fields read the same-named key of a map[string]any source.
// Abstract types resolve through the source's "__typename" entry and leaf
// values pass through unchanged unless hooks are installed.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	typeOf    func(value any) (string, error)
	serialize func(value any, typeName string) (any, error)
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver, len(resolvers))}
	for key, r := range resolvers {
		m.resolvers[key] = r
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, r MockResolver) {
	m.mu.Lock()
	m.resolvers[objectType+"."+field] = r
	m.mu.Unlock()
}

func (m *MockRuntime) SetTypeResolver(f func(value any) (string, error)) {
	m.mu.Lock()
	m.typeOf = f
	m.mu.Unlock()
}

func (m *MockRuntime) SetSerializer(f func(value any, typeName string) (any, error)) {
	m.mu.Lock()
	m.serialize = f
	m.mu.Unlock()
}

func (m *MockRuntime) ResolveField(ctx context.Context, info ResolveInfo, source any, args map[string]any) (any, error) {
	m.mu.Lock()
	r := m.resolvers[info.Key()]
	m.calls = append(m.calls, Call{
		ObjectType: info.ObjectType,
		Field:      info.FieldName,
		Source:     source,
		Args:       args,
		Path:       info.Path.String(),
	})
	m.mu.Unlock()

	if r != nil {
		return r(ctx, source, args)
	}
	src, _ := source.(map[string]any)
	return src[info.FieldName], nil
}

func (m *MockRuntime) ResolveType(_ context.Context, _ string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeOf
	m.mu.Unlock()
	if f != nil {
		return f(value)
	}
	if src, ok := value.(map[string]any); ok {
		if name, ok := src["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", errors.New("cannot resolve type")
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serialize
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(value, typeName)
}

// GetCalls returns the recorded calls in invocation order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
