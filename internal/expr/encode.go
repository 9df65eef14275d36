package expr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// names encodes landmark indices by canonical name.
func names(idx []landmark.Index) []string {
	out := make([]string, len(idx))
	for i, v := range idx {
		out[i] = v.Name()
	}
	return out
}

func (n Const) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Const float64 `json:"const"`
	}{n.Value})
}

func (n Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ref string `json:"ref"`
	}{n.Path})
}

func (n Sub) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
		A  Node   `json:"a"`
		B  Node   `json:"b"`
	}{"sub", n.A, n.B})
}

func (n Div) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
		A  Node   `json:"a"`
		B  Node   `json:"b"`
	}{"div", n.A, n.B})
}

func (n Clamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Value Node   `json:"value"`
		Min   Node   `json:"min"`
		Max   Node   `json:"max"`
	}{"clamp", n.Value, n.Min, n.Max})
}

func (n Avg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op   string `json:"op"`
		Args []Node `json:"args"`
	}{"avg", n.Args})
}

func (n AvgCoord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op        string   `json:"op"`
		Axis      Axis     `json:"axis"`
		Landmarks []string `json:"landmarks"`
	}{"avgCoord", n.Axis, names(n.Landmarks)})
}

func (n AngleDeg2D) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op string `json:"op"`
		A  string `json:"a"`
		B  string `json:"b"`
		C  string `json:"c"`
	}{"angleDeg2d", n.A.Name(), n.B.Name(), n.C.Name()})
}

func (n AllVisible) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op            string   `json:"op"`
		Landmarks     []string `json:"landmarks"`
		MinVisibility Node     `json:"minVisibility"`
	}{"allVisible", names(n.Landmarks), n.MinVisibility})
}

func (n Mapped) MarshalJSON() ([]byte, error) {
	if n.Expr == nil {
		return nil, fmt.Errorf("mapped expression is empty")
	}
	inner, err := json.Marshal(n.Expr)
	if err != nil {
		return nil, err
	}
	inner = bytes.TrimSpace(inner)
	if len(inner) < 2 || inner[len(inner)-1] != '}' {
		return nil, fmt.Errorf("mapped expression must encode as an object")
	}
	m, err := json.Marshal(n.Map)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Write(inner[:len(inner)-1])
	if len(inner) > 2 {
		b.WriteByte(',')
	}
	b.WriteString(`"map":`)
	b.Write(m)
	b.WriteByte('}')
	return b.Bytes(), nil
}
