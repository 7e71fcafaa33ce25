package validation

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator/core"
)

// DefaultMaxDepth is the depth bound used when none is configured.
const DefaultMaxDepth = 5

// MaxDepthRuleName is the name the depth rule reports its errors under.
const MaxDepthRuleName = "MaxDepth"

// MaxDepth returns a validation rule that fails documents whose deepest
// operation nests selections more than maxDepth levels below the root
// fields. Root fields are at depth 0. Fragments add no depth of their own
// and introspection fields are not counted.
//
// The rule reports at most one error per document.
func MaxDepth(maxDepth int) core.Rule {
	return core.Rule{
		Name: MaxDepthRuleName,
		RuleFunc: func(observers *core.Events, addError core.AddErrFunc) {
			reported := false
			observers.OnOperation(func(walker *core.Walker, op *ast.OperationDefinition) {
				if reported {
					return
				}
				depth := Depth(op, walker.Document.Fragments)
				if depth <= maxDepth {
					return
				}
				reported = true
				addError(
					core.Message("'%s' exceeds maximum operation depth of %d", operationName(op), maxDepth),
					core.At(op.Position),
				)
			})
		},
	}
}

// Depth measures the deepest field of op. An operation that selects only
// root fields has depth 0. Selections made only of introspection fields count
// as nothing.
func Depth(op *ast.OperationDefinition, fragments ast.FragmentDefinitionList) int {
	return selectionDepth(op.SelectionSet, fragments, 0, map[string]bool{})
}

func selectionDepth(set ast.SelectionSet, fragments ast.FragmentDefinitionList, depth int, visiting map[string]bool) int {
	deepest := 0
	for _, sel := range set {
		var d int
		switch sel := sel.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name, "__") {
				continue
			}
			d = depth
			if len(sel.SelectionSet) > 0 {
				d = selectionDepth(sel.SelectionSet, fragments, depth+1, visiting)
			}
		case *ast.InlineFragment:
			d = selectionDepth(sel.SelectionSet, fragments, depth, visiting)
		case *ast.FragmentSpread:
			if visiting[sel.Name] {
				continue
			}
			frag := fragments.ForName(sel.Name)
			if frag == nil {
				continue
			}
			visiting[sel.Name] = true
			d = selectionDepth(frag.SelectionSet, fragments, depth, visiting)
			delete(visiting, sel.Name)
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

func operationName(op *ast.OperationDefinition) string {
	if op.Name != "" {
		return op.Name
	}
	return fmt.Sprintf("anonymous %s", op.Operation)
}
