// Package repository turns raw API payloads into hydrated entities.
//
// A Manager holds one Repository per registered entity kind. Repositories
// fetch through a Requester, split each item into its data, metadata and
// relationships, and resolve relationship types back through the Manager, so
// an entity can embed any other kind registered with the same Manager.
//
//	m, err := repository.NewManager(requester, []repository.Descriptor{
//	    {Type: widgets.WidgetType, Factory: widgets.NewWidgetRepository},
//	    {Type: widgets.OwnerType},
//	})
//	repo, _ := m.Get("widget")
//	items, err := repo.FetchList(ctx, repository.ListOptions{Page: 2, Length: 10})
package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wexample/go-api/pkg/entity"
	"go.uber.org/zap"
)

const (
	// DefaultListEndpoint is the path suffix used by FetchList.
	DefaultListEndpoint = "list"
	// DefaultShowEndpoint is the path suffix used by Fetch.
	DefaultShowEndpoint = "show"
)

// Repository fetches and hydrates the entities of one kind.
type Repository interface {
	EntityType() entity.Type
	EntityName() string
	FetchList(ctx context.Context, opts ListOptions) ([]entity.Entity, error)
	Fetch(ctx context.Context, id string, endpoint ...string) (entity.Entity, error)
}

// ListOptions selects a page of a list endpoint.
type ListOptions struct {
	// Page is the zero-based page number.
	Page int
	// Length is the page size; 0 leaves it to the API.
	Length int
	// Query holds extra query parameters. page and length take precedence.
	Query map[string]string
	// Endpoint overrides DefaultListEndpoint.
	Endpoint string
}

// Base is the repository shared by every entity kind. Concrete repositories
// embed *Base and add typed helpers on top of it.
type Base struct {
	manager *Manager
	typ     entity.Type
	name    string
	logger  *zap.Logger
}

var _ Repository = (*Base)(nil)

func newBase(m *Manager, t entity.Type, name string) *Base {
	return &Base{
		manager: m,
		typ:     t,
		name:    name,
		logger:  m.logger.With(zap.String("entity", name)),
	}
}

// EntityType returns the descriptor of the entities this repository builds.
func (b *Base) EntityType() entity.Type { return b.typ }

// EntityName returns the canonical entity name, used as wire path prefix.
func (b *Base) EntityName() string { return b.name }

// Manager returns the manager the repository is registered with.
func (b *Base) Manager() *Manager { return b.manager }

// BuildPath joins the entity name and suffix: "widget" + "/list" -> "widget/list".
func (b *Base) BuildPath(suffix string) string {
	return b.name + "/" + strings.TrimLeft(suffix, "/")
}

// FetchList requests one page of entities. The response may be
// {"data":{"items":[...]}}, {"items":[...]} or a bare array; anything else
// yields an empty slice. A list item that is not a valid entity fails the call.
func (b *Base) FetchList(ctx context.Context, opts ListOptions) ([]entity.Entity, error) {
	if opts.Page < 0 {
		return nil, fmt.Errorf("fetch %s list: %w", b.name, ErrInvalidPage)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultListEndpoint
	}

	query := url.Values{}
	for k, v := range opts.Query {
		query.Set(k, v)
	}
	query.Set("page", strconv.Itoa(opts.Page))
	if opts.Length > 0 {
		query.Set("length", strconv.Itoa(opts.Length))
	}

	resp, err := get(ctx, b.manager.requester, b.BuildPath(endpoint), query)
	if err != nil {
		return nil, err
	}

	items := listItems(resp)
	b.logger.Debug("list fetched", zap.Int("page", opts.Page), zap.Int("items", len(items)))
	return b.HydrateCollection(items)
}

// Fetch requests a single entity by identifier. The identifier is
// path-escaped: Fetch(ctx, "abc 123") requests "<entity>/show/abc%20123".
func (b *Base) Fetch(ctx context.Context, id string, endpoint ...string) (entity.Entity, error) {
	suffix := DefaultShowEndpoint
	if len(endpoint) > 0 && endpoint[0] != "" {
		suffix = endpoint[0]
	}
	path := b.BuildPath(strings.TrimRight(suffix, "/") + "/" + url.PathEscape(id))

	resp, err := get(ctx, b.manager.requester, path, nil)
	if err != nil {
		return nil, err
	}

	obj, ok := resp.(map[string]any)
	if !ok {
		return nil, &entity.MalformedPayloadError{
			Entity: b.name,
			Err:    fmt.Errorf("expected a JSON object, got %T", resp),
		}
	}
	return b.Hydrate(unwrapData(obj))
}

// Hydrate builds one entity from a raw item, attaching its metadata and
// relationships.
func (b *Base) Hydrate(raw any) (entity.Entity, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &entity.MalformedPayloadError{
			Entity: b.name,
			Err:    fmt.Errorf("expected a JSON object, got %T", raw),
		}
	}
	return b.hydrateAs(b.typ, SplitItem(obj))
}

// HydrateCollection hydrates items in order. The first failure aborts with an
// *entity.CollectionError naming the item index.
func (b *Base) HydrateCollection(items []any) ([]entity.Entity, error) {
	out := make([]entity.Entity, 0, len(items))
	for i, raw := range items {
		e, err := b.Hydrate(raw)
		if err != nil {
			return nil, &entity.CollectionError{Entity: b.name, Index: i, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateRelationships hydrates raw relationship entries. Entries that are
// not objects, lack a string "type", name an unregistered entity, or fail to
// build are skipped; the rest keep their input order.
func (b *Base) CreateRelationships(raw []any) []entity.Entity {
	out := make([]entity.Entity, 0, len(raw))
	for i, r := range raw {
		rel, ok := r.(map[string]any)
		if !ok {
			b.logger.Debug("skipping relationship: not an object", zap.Int("index", i))
			continue
		}
		typeName, _ := rel["type"].(string)
		if typeName == "" {
			b.logger.Debug("skipping relationship: missing type", zap.Int("index", i))
			continue
		}

		target, err := b.manager.GetByName(typeName)
		if err != nil {
			b.logger.Debug("skipping relationship: unresolved type",
				zap.Int("index", i), zap.String("type", typeName), zap.Error(err))
			continue
		}

		e, err := b.hydrateAs(target.EntityType(), splitRelationship(rel))
		if err != nil {
			b.logger.Debug("skipping relationship: malformed payload",
				zap.Int("index", i), zap.String("type", typeName), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

func (b *Base) hydrateAs(t entity.Type, item Item) (entity.Entity, error) {
	e, err := t.Build(item.Data)
	if err != nil {
		return nil, err
	}

	h, ok := e.(entity.Hydrator)
	if !ok {
		if len(item.Metadata) > 0 || len(item.Relationships) > 0 {
			b.logger.Warn("entity does not implement entity.Hydrator, dropping metadata and relationships",
				zap.String("type", t.Name))
		}
		return e, nil
	}
	h.SetMetadata(item.Metadata)
	h.SetRelationships(b.CreateRelationships(item.Relationships))
	return e, nil
}
