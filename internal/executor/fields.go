package executor

import (
	"slices"

	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

// fieldGroup is every field node sharing one response key. Groups keep the
// order in which their keys first appear in the document.
type fieldGroup struct {
	key   string
	nodes []*language.Field
}

type fieldCollector struct {
	state  *executionState
	object *schema.Type
	groups []fieldGroup
	index  map[string]int
	spread map[string]struct{}
}

// collectFields flattens a selection set for one concrete object type,
// expanding fragments and honoring @skip and @include.
func collectFields(state *executionState, objectType *schema.Type, set language.SelectionSet) []fieldGroup {
	c := &fieldCollector{
		state:  state,
		object: objectType,
		index:  make(map[string]int),
		spread: make(map[string]struct{}),
	}
	c.walk(set)
	return c.groups
}

func (c *fieldCollector) walk(set language.SelectionSet) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.walk(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if !c.included(sel.Directives) {
				continue
			}
			if _, done := c.spread[sel.Name]; done {
				continue
			}
			c.spread[sel.Name] = struct{}{}
			frag := c.state.document.Fragments.ForName(sel.Name)
			if frag != nil && c.applies(frag.TypeCondition) && c.included(frag.Directives) {
				c.walk(frag.SelectionSet)
			}
		}
	}
}

func (c *fieldCollector) add(f *language.Field) {
	key := f.Alias
	if key == "" {
		key = f.Name
	}
	if i, ok := c.index[key]; ok {
		c.groups[i].nodes = append(c.groups[i].nodes, f)
		return
	}
	c.index[key] = len(c.groups)
	c.groups = append(c.groups, fieldGroup{key: key, nodes: []*language.Field{f}})
}

// applies reports whether a fragment on typeCondition selects fields of the
// collector's object type.
func (c *fieldCollector) applies(typeCondition string) bool {
	if typeCondition == "" || typeCondition == c.object.Name {
		return true
	}
	cond, ok := c.state.schema.Types[typeCondition]
	if !ok {
		return false
	}
	switch cond.Kind {
	case schema.TypeKindInterface:
		return slices.Contains(c.object.Interfaces, typeCondition)
	case schema.TypeKindUnion:
		return slices.Contains(cond.PossibleTypes, c.object.Name)
	}
	return false
}

// included evaluates @skip(if:) and @include(if:). A condition that does not
// resolve to a boolean leaves the node in.
func (c *fieldCollector) included(dirs language.DirectiveList) bool {
	if c.condition(dirs, "skip") == true {
		return false
	}
	return c.condition(dirs, "include") != false
}

func (c *fieldCollector) condition(dirs language.DirectiveList, name string) any {
	d := dirs.ForName(name)
	if d == nil {
		return nil
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return nil
	}
	v, _ := literal(arg.Value, c.state.variableValues)
	return v
}
