package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wexample/go-api/pkg/entity"
)

func recordWith(t *testing.T, name, id string) entity.Entity {
	t.Helper()
	e, err := entity.RecordType(name).Build(entity.Payload{"secureId": id})
	require.NoError(t, err)
	return e
}

func TestRelationship_NormalisesNames(t *testing.T) {
	parent := recordWith(t, "widget", "w1")
	owner := recordWith(t, "widget_owner", "o1")
	second := recordWith(t, "widget_owner", "o2")
	tag := recordWith(t, "Tag", "t1")
	parent.(entity.Hydrator).SetRelationships([]entity.Entity{tag, owner, second})

	for _, name := range []string{"widget_owner", "WidgetOwner", "widget-owner", "WIDGET_OWNER"} {
		rel, ok := entity.Relationship(parent, name)
		require.True(t, ok, name)
		assert.Equal(t, "o1", rel.SecureID(), name)
	}

	rel, ok := entity.Relationship(parent, "tag")
	require.True(t, ok)
	assert.Equal(t, "t1", rel.SecureID())

	all := entity.RelationshipsNamed(parent, "widgetOwner")
	require.Len(t, all, 2)
	assert.Equal(t, "o2", all[1].SecureID())
}

func TestRelationship_NotFound(t *testing.T) {
	parent := recordWith(t, "widget", "w1")

	_, ok := entity.Relationship(parent, "owner")
	assert.False(t, ok)
	_, ok = entity.Relationship(parent, "")
	assert.False(t, ok)
	_, ok = entity.Relationship(nil, "owner")
	assert.False(t, ok)
	assert.Empty(t, entity.RelationshipsNamed(parent, "owner"))
}

func TestRecordType(t *testing.T) {
	payload := entity.Payload{"secureId": "r1", "name": "thing"}
	e, err := entity.RecordType("thing").Build(payload)
	require.NoError(t, err)

	rec := e.(*entity.Record)
	assert.Equal(t, "r1", rec.SecureID())
	assert.Equal(t, "thing", rec.EntityName())

	v, ok := rec.Field("name")
	require.True(t, ok)
	assert.Equal(t, "thing", v)

	payload["name"] = "changed"
	assert.Equal(t, "thing", rec.Data()["name"])

	_, err = entity.RecordType("thing").Build(nil)
	assert.ErrorIs(t, err, entity.ErrMalformedPayload)
}
