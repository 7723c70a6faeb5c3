package repository_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wexample/go-api/examples/widgets"
	"github.com/wexample/go-api/pkg/entity"
	"github.com/wexample/go-api/pkg/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func widgetItem(id string) map[string]any {
	return map[string]any{"secureId": id, "name": "Widget " + id, "color": "red"}
}

func widgetRepo(t *testing.T, resp any) (repository.Repository, *stubRequester) {
	t.Helper()
	req := &stubRequester{resp: resp}
	m := newManager(t, req)
	return m.MustGet("widget"), req
}

func TestFetchList_PathAndQuery(t *testing.T) {
	repo, req := widgetRepo(t, []any{})

	_, err := repo.FetchList(context.Background(), repository.ListOptions{Page: 2, Length: 10})
	require.NoError(t, err)

	call := req.last(t)
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "widget/list", call.path)
	assert.Equal(t, url.Values{"page": {"2"}, "length": {"10"}}, call.query)
}

func TestFetchList_DefaultsAndExtraQuery(t *testing.T) {
	repo, req := widgetRepo(t, []any{})

	_, err := repo.FetchList(context.Background(), repository.ListOptions{
		Query:    map[string]string{"color": "red", "page": "9"},
		Endpoint: "/search",
	})
	require.NoError(t, err)

	call := req.last(t)
	assert.Equal(t, "widget/search", call.path)
	assert.Equal(t, url.Values{"page": {"0"}, "color": {"red"}}, call.query)
}

func TestFetchList_NegativePage(t *testing.T) {
	repo, req := widgetRepo(t, []any{})

	_, err := repo.FetchList(context.Background(), repository.ListOptions{Page: -1})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)
	assert.Empty(t, req.calls)
}

func TestFetchList_EnvelopeShapes(t *testing.T) {
	shapes := map[string]any{
		"data.items": map[string]any{"data": map[string]any{"items": []any{widgetItem("w1")}}},
		"items":      map[string]any{"items": []any{widgetItem("w1")}},
		"bare array": []any{widgetItem("w1")},
	}

	var results [][]entity.Entity
	for name, resp := range shapes {
		repo, _ := widgetRepo(t, resp)
		items, err := repo.FetchList(context.Background(), repository.ListOptions{})
		require.NoError(t, err, name)
		require.Len(t, items, 1, name)
		results = append(results, items)
	}

	for _, items := range results {
		w := items[0].(*widgets.Widget)
		assert.Equal(t, "w1", w.SecureID())
		assert.Equal(t, "Widget w1", w.Name)
		assert.Equal(t, results[0][0], items[0])
	}
}

func TestFetchList_PrefersNestedItems(t *testing.T) {
	repo, _ := widgetRepo(t, map[string]any{
		"data":  map[string]any{"items": []any{widgetItem("nested")}},
		"items": []any{widgetItem("top")},
	})

	items, err := repo.FetchList(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "nested", items[0].SecureID())
}

func TestFetchList_MissingItemsYieldsEmpty(t *testing.T) {
	for _, resp := range []any{
		map[string]any{},
		map[string]any{"data": map[string]any{"total": 0}},
		map[string]any{"items": "nope"},
		map[string]any{"data": []any{widgetItem("w1")}},
		nil,
	} {
		repo, _ := widgetRepo(t, resp)
		items, err := repo.FetchList(context.Background(), repository.ListOptions{})
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestFetchList_MalformedItemFailsCall(t *testing.T) {
	repo, _ := widgetRepo(t, []any{widgetItem("w1"), map[string]any{"secureId": "w2"}})

	items, err := repo.FetchList(context.Background(), repository.ListOptions{})
	assert.Nil(t, items)
	assert.ErrorIs(t, err, entity.ErrMalformedPayload)

	var ce *entity.CollectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)

	var mp *entity.MalformedPayloadError
	require.ErrorAs(t, err, &mp)
	assert.Equal(t, "w2", mp.Payload["secureId"])

	repo, _ = widgetRepo(t, []any{"not an object"})
	_, err = repo.FetchList(context.Background(), repository.ListOptions{})
	assert.ErrorIs(t, err, entity.ErrMalformedPayload)
}

func TestFetchList_TransportErrorPropagates(t *testing.T) {
	transport := errors.New("API responded with HTTP 503: no response body")
	req := &stubRequester{err: transport}
	repo := newManager(t, req).MustGet("widget")

	_, err := repo.FetchList(context.Background(), repository.ListOptions{})
	assert.Same(t, transport, err)

	_, err = repo.Fetch(context.Background(), "w1")
	assert.Same(t, transport, err)
}

func TestFetch_EscapesIdentifier(t *testing.T) {
	repo, req := widgetRepo(t, widgetItem("abc 123"))

	w, err := repo.Fetch(context.Background(), "abc 123")
	require.NoError(t, err)
	assert.Equal(t, "abc 123", w.SecureID())

	call := req.last(t)
	assert.Equal(t, "widget/show/abc%20123", call.path)
	assert.Empty(t, call.query)

	_, err = repo.Fetch(context.Background(), "a/b", "details/")
	require.NoError(t, err)
	assert.Equal(t, "widget/details/a%2Fb", req.last(t).path)
}

func TestFetch_UnwrapsData(t *testing.T) {
	repo, _ := widgetRepo(t, map[string]any{
		"data": map[string]any{
			"entity":   widgetItem("w1"),
			"metadata": map[string]any{"etag": "v3"},
		},
	})

	w, err := repo.Fetch(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", w.SecureID())
	assert.Equal(t, map[string]any{"etag": "v3"}, w.Metadata())
}

func TestFetch_NonObjectResponse(t *testing.T) {
	repo, _ := widgetRepo(t, []any{widgetItem("w1")})

	_, err := repo.Fetch(context.Background(), "w1")
	assert.ErrorIs(t, err, entity.ErrMalformedPayload)

	repo, _ = widgetRepo(t, map[string]any{"data": map[string]any{"name": "no id"}})
	_, err = repo.Fetch(context.Background(), "w1")
	assert.ErrorIs(t, err, entity.ErrMalformedPayload)
}

func TestHydrate_EnvelopeRoundTrip(t *testing.T) {
	meta := map[string]any{"score": 0.5, "tags": []any{"a", "b"}}
	rels := []any{
		map[string]any{"type": "owner", "data": map[string]any{"secureId": "u1"}},
		map[string]any{"type": "owner", "entity": map[string]any{"secureId": "u2"}},
		map[string]any{"type": "owner", "secureId": "u3"},
		map[string]any{"type": "widget", "data": widgetItem("w9")},
		map[string]any{"data": map[string]any{"secureId": "u4"}},
		"garbage",
	}
	repo, _ := widgetRepo(t, []any{map[string]any{
		"entity":        widgetItem("w1"),
		"metadata":      meta,
		"relationships": rels,
	}})

	items, err := repo.FetchList(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	w := items[0]
	assert.Equal(t, meta, w.Metadata())

	got := w.Relationships()
	require.Len(t, got, 4)
	assert.Equal(t, "u1", got[0].SecureID())
	assert.Equal(t, "u2", got[1].SecureID())
	assert.Equal(t, "u3", got[2].SecureID())
	assert.IsType(t, &widgets.Widget{}, got[3])
	assert.Equal(t, "w9", got[3].SecureID())
}

func TestCreateRelationships_SkipsMalformedEntries(t *testing.T) {
	m := newManager(t, &stubRequester{})
	base := m.MustGet("owner").(*repository.Base)

	got := base.CreateRelationships([]any{
		map[string]any{"type": "owner", "data": map[string]any{"secureId": "u1"}},
		map[string]any{"data": map[string]any{"secureId": "u2"}},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].SecureID())

	got = base.CreateRelationships([]any{
		map[string]any{"type": 7, "secureId": "u1"},
		map[string]any{"type": "", "secureId": "u1"},
		map[string]any{"type": "gizmo", "secureId": "u1"},
		map[string]any{"type": "owner", "data": map[string]any{"email": "no id"}},
		[]any{"owner"},
		nil,
	})
	assert.Empty(t, got)
}

func TestCreateRelationships_OwnerFromData(t *testing.T) {
	m := newManager(t, &stubRequester{})
	repo := m.MustGet("widget").(*widgets.WidgetRepository)

	got := repo.CreateRelationships([]any{
		map[string]any{"type": "owner", "data": map[string]any{"secureId": "u1"}},
	})
	require.Len(t, got, 1)
	owner, ok := got[0].(*widgets.Owner)
	require.True(t, ok)
	assert.Equal(t, "u1", owner.SecureID())
	assert.Equal(t, "owner", owner.EntityName())
}

func TestCreateRelationships_KeepsDuplicatesAndSelfReferences(t *testing.T) {
	m := newManager(t, &stubRequester{})
	repo := m.MustGet("widget").(*widgets.WidgetRepository)

	got := repo.CreateRelationships([]any{
		map[string]any{"type": "Widget", "data": widgetItem("w1")},
		map[string]any{"type": "widget", "data": widgetItem("w1")},
	})
	require.Len(t, got, 2)
	assert.Equal(t, got[0].SecureID(), got[1].SecureID())
	assert.NotSame(t, got[0], got[1])
}

func TestHydrate_NestedRelationships(t *testing.T) {
	repo, _ := widgetRepo(t, map[string]any{
		"secureId": "w1",
		"name":     "parent",
		"relationships": []any{
			map[string]any{
				"type":     "owner",
				"entity":   map[string]any{"secureId": "u1"},
				"metadata": map[string]any{"role": "primary"},
				"relationships": []any{
					map[string]any{"type": "widget", "data": widgetItem("w2")},
				},
			},
		},
	})

	e, err := repo.Fetch(context.Background(), "w1")
	require.NoError(t, err)

	w := e.(*widgets.Widget)
	owner, ok := w.Owner()
	require.True(t, ok)
	assert.Equal(t, "u1", owner.SecureID())
	assert.Equal(t, map[string]any{"role": "primary"}, owner.Metadata())

	back, ok := entity.Relationship(owner, "widget")
	require.True(t, ok)
	assert.Equal(t, "w2", back.SecureID())
}

func TestSplitItem(t *testing.T) {
	flat := map[string]any{"secureId": "w1", "metadata": "not an object", "relationships": map[string]any{}}
	item := repository.SplitItem(flat)
	assert.Equal(t, flat, item.Data)
	assert.Empty(t, item.Metadata)
	assert.NotNil(t, item.Metadata)
	assert.Empty(t, item.Relationships)

	wrapped := map[string]any{
		"entity":        map[string]any{"secureId": "w1"},
		"metadata":      map[string]any{"k": "v"},
		"relationships": []any{map[string]any{"type": "owner"}},
	}
	item = repository.SplitItem(wrapped)
	assert.Equal(t, map[string]any{"secureId": "w1"}, item.Data)
	assert.Equal(t, map[string]any{"k": "v"}, item.Metadata)
	assert.Len(t, item.Relationships, 1)

	notObject := map[string]any{"entity": "w1", "secureId": "w1"}
	assert.Equal(t, notObject, repository.SplitItem(notObject).Data)
}

func TestBuildPath(t *testing.T) {
	m, err := repository.NewManager(&stubRequester{}, []repository.Descriptor{{Type: entity.RecordType("WidgetOwner")}})
	require.NoError(t, err)

	base := m.MustGet("widget_owner").(*repository.Base)
	assert.Equal(t, "widget_owner/list", base.BuildPath("list"))
	assert.Equal(t, "widget_owner/list", base.BuildPath("//list"))
	assert.Equal(t, "WidgetOwner", base.EntityType().Name)
	assert.Same(t, m, base.Manager())
}

// plainEntity implements entity.Entity but not entity.Hydrator.
type plainEntity struct{ id string }

func (p plainEntity) EntityName() string             { return "plain" }
func (p plainEntity) SecureID() string               { return p.id }
func (p plainEntity) Metadata() map[string]any       { return map[string]any{} }
func (p plainEntity) Relationships() []entity.Entity { return nil }

func TestHydrate_NonHydratorWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	plainType := entity.Type{Name: "plain", FromPayload: func(p entity.Payload) (entity.Entity, error) {
		return plainEntity{id: entity.SecureIDOf(p)}, nil
	}}
	req := &stubRequester{resp: map[string]any{"data": map[string]any{
		"entity":   map[string]any{"secureId": "p1"},
		"metadata": map[string]any{"etag": "x"},
	}}}
	m, err := repository.NewManager(req, []repository.Descriptor{{Type: plainType}}, repository.WithLogger(zap.New(core)))
	require.NoError(t, err)

	e, err := m.MustGet("plain").Fetch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", e.SecureID())
	assert.Empty(t, e.Metadata())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}
