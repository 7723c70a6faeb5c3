package entity

// Relationship returns the first relationship of e whose entity name matches
// name after canonicalisation, so "WidgetOwner", "widget-owner" and
// "widget_owner" all find an entity built by the "widget_owner" type.
func Relationship(e Entity, name string) (Entity, bool) {
	want := CanonicalName(name)
	if e == nil || want == "" {
		return nil, false
	}
	for _, rel := range e.Relationships() {
		if CanonicalName(rel.EntityName()) == want {
			return rel, true
		}
	}
	return nil, false
}

// RelationshipsNamed returns every relationship of e matching name, in order.
func RelationshipsNamed(e Entity, name string) []Entity {
	want := CanonicalName(name)
	if e == nil || want == "" {
		return nil
	}
	var out []Entity
	for _, rel := range e.Relationships() {
		if CanonicalName(rel.EntityName()) == want {
			out = append(out, rel)
		}
	}
	return out
}
