package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/wexample/go-api/pkg/entity"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var heading = color.New(color.FgCyan, color.Bold)

// entityView is the serialisable form of an entity.
func entityView(e entity.Entity) map[string]any {
	view := map[string]any{}
	if rec, ok := e.(*entity.Record); ok {
		for k, v := range rec.Data() {
			view[k] = v
		}
	}
	view[entity.SecureIDKey] = e.SecureID()
	delete(view, "relationships")
	delete(view, "metadata")

	if md := e.Metadata(); len(md) > 0 {
		view["metadata"] = md
	}
	if rels := e.Relationships(); len(rels) > 0 {
		out := make([]map[string]any, len(rels))
		for i, r := range rels {
			out[i] = map[string]any{"type": r.EntityName(), "entity": entityView(r)}
		}
		view["relationships"] = out
	}
	return view
}

func (a *app) encode(v any) error {
	switch a.format {
	case formatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}

func (a *app) printList(name string, items []entity.Entity) error {
	if a.format != formatText {
		views := make([]map[string]any, len(items))
		for i, e := range items {
			views[i] = entityView(e)
		}
		return a.encode(views)
	}

	heading.Fprintf(a.out, "%s (%d)\n", name, len(items))
	if len(items) == 0 {
		return nil
	}

	views := make([]map[string]any, len(items))
	var columns []string
	for i, e := range items {
		views[i] = entityView(e)
		for k := range views[i] {
			if k != entity.SecureIDKey && k != "metadata" && k != "relationships" && !slices.Contains(columns, k) {
				columns = append(columns, k)
			}
		}
	}
	slices.Sort(columns)
	columns = append([]string{entity.SecureIDKey}, columns...)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, v := range views {
		for i, c := range columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell(v[c]))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func (a *app) printOne(e entity.Entity) error {
	view := entityView(e)
	if a.format != formatText {
		return a.encode(view)
	}

	heading.Fprintf(a.out, "%s %s\n", e.EntityName(), e.SecureID())
	keys := make([]string, 0, len(view))
	for k := range view {
		if k != "relationships" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s:\t%s\n", k, cell(view[k]))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rels := e.Relationships(); len(rels) > 0 {
		heading.Fprintln(a.out, "relationships")
		w = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for _, r := range rels {
			fmt.Fprintf(w, "%s\t%s\n", r.EntityName(), r.SecureID())
		}
		return w.Flush()
	}
	return nil
}

func (a *app) printNames(names []string) error {
	if a.format != formatText {
		return a.encode(names)
	}
	for _, n := range names {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

// cell renders a value for a table cell; nested values are compact JSON.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
