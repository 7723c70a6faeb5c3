package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wexample/go-api/pkg/entity"
	"go.uber.org/zap"
)

// Descriptor registers one entity kind with a Manager.
//
// Factory wraps the shared *Base into the concrete repository for the kind.
// A nil Factory registers the *Base itself.
type Descriptor struct {
	Type    entity.Type
	Factory func(*Base) Repository
}

// entry is the lazily-populated registry cell for one entity kind.
type entry struct {
	desc Descriptor
	name string
	once sync.Once
	repo Repository
}

// Manager resolves entity names to their repositories. Each repository is
// built at most once per Manager, on first lookup.
type Manager struct {
	requester Requester
	logger    *zap.Logger
	entries   map[string]*entry
	names     []string
	eager     bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager and its repositories.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEagerInit builds every repository inside NewManager instead of on first use.
func WithEagerInit() ManagerOption {
	return func(m *Manager) {
		m.eager = true
	}
}

// NewManager validates descriptors and builds the registry. Registration
// problems are startup errors: a missing requester, a type that cannot build
// entities, or two descriptors sharing a canonical entity name.
func NewManager(requester Requester, descriptors []Descriptor, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		requester: requester,
		logger:    zap.NewNop(),
		entries:   make(map[string]*entry, len(descriptors)),
	}
	for _, o := range opts {
		o(m)
	}

	if requester == nil {
		return nil, &InvalidRepositoryConfigError{Index: -1, Reason: "no requester configured"}
	}

	for i, d := range descriptors {
		if err := d.Type.Validate(); err != nil {
			return nil, &InvalidRepositoryConfigError{Index: i, Name: d.Type.Name, Reason: err.Error()}
		}
		name := d.Type.CanonicalName()
		if prev, ok := m.entries[name]; ok {
			return nil, &InvalidRepositoryConfigError{
				Index:  i,
				Name:   d.Type.Name,
				Reason: fmt.Sprintf("entity name %q already registered by %q", name, prev.desc.Type.Name),
			}
		}
		m.entries[name] = &entry{desc: d, name: name}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)

	if m.eager {
		for _, name := range m.names {
			m.instance(m.entries[name])
		}
	}
	return m, nil
}

// MustNewManager is like NewManager but panics on error.
func MustNewManager(requester Requester, descriptors []Descriptor, opts ...ManagerOption) *Manager {
	m, err := NewManager(requester, descriptors, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Get resolves nameOrType to its repository. Accepted forms are an entity name
// string, an entity.Type, a *entity.Type, or an entity.Entity (resolved by the
// name of the type that built it).
func (m *Manager) Get(nameOrType any) (Repository, error) {
	switch v := nameOrType.(type) {
	case string:
		return m.GetByName(v)
	case entity.Type:
		return m.GetByType(v)
	case *entity.Type:
		if v == nil {
			return nil, fmt.Errorf("resolve repository: nil entity type")
		}
		return m.GetByType(*v)
	case entity.Entity:
		return m.GetByName(v.EntityName())
	default:
		return nil, fmt.Errorf("resolve repository: cannot derive an entity name from %T", nameOrType)
	}
}

// GetByName returns the repository registered for name. Any casing of a
// registered name resolves ("WidgetOwner" finds "widget_owner").
func (m *Manager) GetByName(name string) (Repository, error) {
	e, ok := m.entries[entity.CanonicalName(name)]
	if !ok {
		return nil, &UnregisteredEntityError{Name: name, Available: m.Names()}
	}
	return m.instance(e), nil
}

// GetByType returns the repository registered for t's name.
func (m *Manager) GetByType(t entity.Type) (Repository, error) {
	return m.GetByName(t.Name)
}

// MustGet is like Get but panics when the entity is not registered.
func (m *Manager) MustGet(nameOrType any) Repository {
	r, err := m.Get(nameOrType)
	if err != nil {
		panic(err)
	}
	return r
}

// All builds every registered repository and returns them keyed by entity
// name. Intended for warm-up and introspection.
func (m *Manager) All() map[string]Repository {
	out := make(map[string]Repository, len(m.entries))
	for name, e := range m.entries {
		out[name] = m.instance(e)
	}
	return out
}

// Names returns the registered entity names in sorted order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Has reports whether name resolves to a registered entity.
func (m *Manager) Has(name string) bool {
	_, ok := m.entries[entity.CanonicalName(name)]
	return ok
}

// Requester returns the requester shared by every repository.
func (m *Manager) Requester() Requester {
	return m.requester
}

func (m *Manager) instance(e *entry) Repository {
	e.once.Do(func() {
		base := newBase(m, e.desc.Type, e.name)
		var repo Repository = base
		if e.desc.Factory != nil {
			r, err := callFactory(e.desc.Factory, base)
			switch {
			case err != nil:
				m.logger.Error("repository factory failed, using base repository",
					zap.String("entity", e.name), zap.Error(err))
			case r == nil:
				m.logger.Warn("repository factory returned nil, using base repository",
					zap.String("entity", e.name))
			default:
				repo = r
			}
		}
		e.repo = repo
		m.logger.Debug("repository instantiated",
			zap.String("entity", e.name),
			zap.String("repository", fmt.Sprintf("%T", repo)),
		)
	})
	return e.repo
}

// callFactory turns a factory panic into an error so the entry still gets a
// usable repository.
func callFactory(f func(*Base) Repository, base *Base) (repo Repository, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panicked: %v", r)
		}
	}()
	return f(base), nil
}
