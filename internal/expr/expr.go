// Package expr defines the expression tree embedded in compiled exercise
// definitions. The tree is built and encoded here but never evaluated; the
// tracking runtime owns evaluation.
//
// Node is a closed sum type: only the operator types in this package
// implement it.
package expr

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Node is one operator in an expression tree.
type Node interface {
	json.Marshaler
	children() []Node
	isNode()
}

// Axis selects a landmark coordinate.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// MapInvertAngleRange is the only progress map the runtime understands.
const MapInvertAngleRange = "invertAngleRange"

// Const is a literal number.
type Const struct {
	Value float64
}

// Ref names a value elsewhere in the definition, e.g. "thresholds.repAngleTopDeg".
type Ref struct {
	Path string
}

// Sub is A − B.
type Sub struct {
	A, B Node
}

// Div is A / B.
type Div struct {
	A, B Node
}

// Clamp bounds Value to [Min, Max].
type Clamp struct {
	Value, Min, Max Node
}

// Avg is the arithmetic mean of Args.
type Avg struct {
	Args []Node
}

// AvgCoord is the mean of one coordinate over a set of landmarks.
type AvgCoord struct {
	Axis      Axis
	Landmarks []landmark.Index
}

// AngleDeg2D is the live image-plane angle at B formed by A-B-C.
type AngleDeg2D struct {
	A, B, C landmark.Index
}

// AllVisible is true when every landmark meets MinVisibility.
type AllVisible struct {
	Landmarks     []landmark.Index
	MinVisibility Node
}

// RangeMap is a post-transform applied to a progress value. TopRef and
// BottomRef point at the raw bounds in the definition's thresholds.
type RangeMap struct {
	Type      string `json:"type"`
	TopRef    string `json:"topAngleMaxDegRef"`
	BottomRef string `json:"bottomAngleMinDegRef"`
}

// Mapped attaches a RangeMap to an operator. It encodes as the operator's
// object with an extra "map" member.
type Mapped struct {
	Expr Node
	Map  RangeMap
}

func (Const) isNode()      {}
func (Ref) isNode()        {}
func (Sub) isNode()        {}
func (Div) isNode()        {}
func (Clamp) isNode()      {}
func (Avg) isNode()        {}
func (AvgCoord) isNode()   {}
func (AngleDeg2D) isNode() {}
func (AllVisible) isNode() {}
func (Mapped) isNode()     {}

func (Const) children() []Node      { return nil }
func (Ref) children() []Node        { return nil }
func (n Sub) children() []Node      { return []Node{n.A, n.B} }
func (n Div) children() []Node      { return []Node{n.A, n.B} }
func (n Clamp) children() []Node    { return []Node{n.Value, n.Min, n.Max} }
func (n Avg) children() []Node      { return n.Args }
func (AvgCoord) children() []Node   { return nil }
func (AngleDeg2D) children() []Node { return nil }
func (n AllVisible) children() []Node {
	return []Node{n.MinVisibility}
}
func (n Mapped) children() []Node { return []Node{n.Expr} }

// Constructors keep call sites short when building trees by hand.

func C(v float64) Node        { return Const{Value: v} }
func R(path string) Node      { return Ref{Path: path} }
func Minus(a, b Node) Node    { return Sub{A: a, B: b} }
func Over(a, b Node) Node     { return Div{A: a, B: b} }
func Clamp01(value Node) Node { return Clamp{Value: value, Min: C(0), Max: C(1)} }
func Mean(args ...Node) Node  { return Avg{Args: args} }
func Angle(t [3]landmark.Index) Node {
	return AngleDeg2D{A: t[0], B: t[1], C: t[2]}
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children() {
		Walk(c, fn)
	}
}

// Landmarks returns every landmark referenced in the tree, deduplicated and
// in canonical index order.
func Landmarks(n Node) []landmark.Index {
	var seen [landmark.Count]bool
	mark := func(i landmark.Index) {
		if i >= 0 && int(i) < landmark.Count {
			seen[i] = true
		}
	}
	Walk(n, func(n Node) bool {
		switch v := n.(type) {
		case AngleDeg2D:
			mark(v.A)
			mark(v.B)
			mark(v.C)
		case AvgCoord:
			for _, i := range v.Landmarks {
				mark(i)
			}
		case AllVisible:
			for _, i := range v.Landmarks {
				mark(i)
			}
		}
		return true
	})

	var out []landmark.Index
	for i, ok := range seen {
		if ok {
			out = append(out, landmark.Index(i))
		}
	}
	return out
}

// Refs returns every reference path in visiting order, duplicates included.
func Refs(n Node) []string {
	var out []string
	Walk(n, func(n Node) bool {
		if r, ok := n.(Ref); ok {
			out = append(out, r.Path)
		}
		return true
	})
	return out
}

// Check verifies a tree is well formed: no missing operands, landmarks inside
// the vocabulary, axes known, and every reference resolvable by resolve.
func Check(n Node, resolve func(path string) bool) error {
	if n == nil {
		return fmt.Errorf("expression is empty")
	}
	var err error
	Walk(n, func(n Node) bool {
		if err != nil {
			return false
		}
		err = checkNode(n, resolve)
		return err == nil
	})
	return err
}

func checkNode(n Node, resolve func(string) bool) error {
	for _, c := range n.children() {
		if c == nil {
			return fmt.Errorf("%T has a missing operand", n)
		}
	}
	switch v := n.(type) {
	case Ref:
		if resolve != nil && !resolve(v.Path) {
			return fmt.Errorf("unresolved reference %q", v.Path)
		}
	case Avg:
		if len(v.Args) == 0 {
			return fmt.Errorf("avg needs at least one argument")
		}
	case AvgCoord:
		if v.Axis != AxisX && v.Axis != AxisY && v.Axis != AxisZ {
			return fmt.Errorf("unknown axis %q", v.Axis)
		}
		if len(v.Landmarks) == 0 {
			return fmt.Errorf("avgCoord needs at least one landmark")
		}
		return checkIndices(v.Landmarks...)
	case AngleDeg2D:
		return checkIndices(v.A, v.B, v.C)
	case AllVisible:
		return checkIndices(v.Landmarks...)
	case Mapped:
		if v.Map.Type != MapInvertAngleRange {
			return fmt.Errorf("unknown map type %q", v.Map.Type)
		}
		if resolve != nil {
			for _, p := range []string{v.Map.TopRef, v.Map.BottomRef} {
				if !resolve(p) {
					return fmt.Errorf("unresolved reference %q", p)
				}
			}
		}
	}
	return nil
}

func checkIndices(idx ...landmark.Index) error {
	for _, i := range idx {
		if i < 0 || int(i) >= landmark.Count {
			return fmt.Errorf("landmark index %d outside the vocabulary", int(i))
		}
	}
	return nil
}
