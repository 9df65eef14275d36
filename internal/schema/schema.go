// Package schema validates emitted artifacts against the component schemas of
// an OpenAPI document. A default document is embedded; callers may supply
// their own, or a plain JSON Schema that then describes the capture payload.
package schema

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
)

// Component names in the default document.
const (
	CapturePayload     = "CapturePayload"
	ExerciseDefinition = "ExerciseDefinition"
	Manifest           = "Manifest"
)

//go:embed exlogic.yaml
var defaultDocument []byte

// Validator checks values against named component schemas.
type Validator struct {
	doc    *openapi3.T
	source string
}

// Default returns a validator for the embedded document.
func Default() (*Validator, error) {
	return LoadData(defaultDocument, "embedded:exlogic.yaml")
}

// DefaultDocument returns a copy of the embedded document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// Load reads an OpenAPI document (YAML or JSON) from disk. A document without
// an openapi version is read as a JSON Schema for CapturePayload.
func Load(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.NewFileNotFoundError(path)
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, "failed to read schema", err)
	}
	if !isOpenAPI(data) {
		return loadJSONSchema(data, path)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("failed to load schema %s", path), err)
	}
	return newValidator(doc, path)
}

// LoadData parses an in-memory OpenAPI document.
func LoadData(data []byte, source string) (*Validator, error) {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("failed to load schema %s", source), err)
	}
	return newValidator(doc, source)
}

// jsonSchemaKeywords are JSON Schema keywords OpenAPI 3.0 does not define.
var jsonSchemaKeywords = []string{"$schema", "$id", "$comment", "const", "examples"}

func isOpenAPI(data []byte) bool {
	var head struct {
		OpenAPI string `yaml:"openapi"`
	}
	return yaml.Unmarshal(data, &head) == nil && head.OpenAPI != ""
}

// loadJSONSchema wraps a JSON Schema into a document whose CapturePayload
// component is the schema root. definitions and $defs become sibling
// components.
func loadJSONSchema(data []byte, source string) (*Validator, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil || root == nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("failed to parse schema %s", source), err)
	}

	schemas := map[string]any{}
	for _, key := range []string{"definitions", "$defs"} {
		if defs, ok := root[key].(map[string]any); ok {
			for name, def := range defs {
				schemas[name] = normalizeJSONSchema(def)
			}
		}
		delete(root, key)
	}
	schemas[CapturePayload] = normalizeJSONSchema(root)

	wrapped, err := json.Marshal(map[string]any{
		"openapi":    "3.0.3",
		"info":       map[string]any{"title": source, "version": "1"},
		"paths":      map[string]any{},
		"components": map[string]any{"schemas": schemas},
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("failed to convert schema %s", source), err)
	}
	doc, err := openapi3.NewLoader().LoadFromData(wrapped)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("failed to load schema %s", source), err)
	}
	return newValidator(doc, source, openapi3.AllowExtraSiblingFields(jsonSchemaKeywords...))
}

// normalizeJSONSchema rewrites local refs to component refs and nullable type
// lists such as ["number", "null"] to OpenAPI's nullable flag.
func normalizeJSONSchema(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeJSONSchema(val)
		}
		if ref, ok := out["$ref"].(string); ok {
			ref = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
			out["$ref"] = strings.Replace(ref, "#/$defs/", "#/components/schemas/", 1)
		}
		if types, ok := out["type"].([]any); ok {
			var kept []any
			for _, typ := range types {
				if typ == "null" {
					out["nullable"] = true
					continue
				}
				kept = append(kept, typ)
			}
			switch len(kept) {
			case 0:
				delete(out, "type")
			case 1:
				out["type"] = kept[0]
			default:
				out["type"] = kept
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeJSONSchema(val)
		}
		return out
	default:
		return v
	}
}

func newValidator(doc *openapi3.T, source string, opts ...openapi3.ValidationOption) (*Validator, error) {
	if err := doc.Validate(context.Background(), opts...); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeSchemaLoad, fmt.Sprintf("invalid schema document %s", source), err).
			WithSuggestion("Check the document against the OpenAPI 3.0 specification")
	}
	return &Validator{doc: doc, source: source}, nil
}

// Source names where the document came from.
func (v *Validator) Source() string {
	return v.source
}

// Has reports whether the document defines the named component.
func (v *Validator) Has(name string) bool {
	return v.lookup(name) != nil
}

func (v *Validator) lookup(name string) *openapi3.Schema {
	if v == nil || v.doc == nil || v.doc.Components == nil {
		return nil
	}
	ref, ok := v.doc.Components.Schemas[name]
	if !ok || ref == nil {
		return nil
	}
	return ref.Value
}

// Validate checks value against the named component. The value is passed
// through its JSON encoding first, so it is judged exactly as it will be
// written. A nil validator or a document without the component accepts
// everything. artifact names the value in the returned error.
func (v *Validator) Validate(name, artifact string, value any) error {
	s := v.lookup(name)
	if s == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrCodeFileMarshal, fmt.Sprintf("failed to encode %s", artifact), err)
	}
	return v.ValidateJSON(name, artifact, data)
}

// ValidateJSON is Validate for an already encoded document.
func (v *Validator) ValidateJSON(name, artifact string, data []byte) error {
	s := v.lookup(name)
	if s == nil {
		return nil
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return xerrors.NewFileUnmarshalError(artifact, "JSON", err)
	}
	if err := s.VisitJSON(generic, openapi3.MultiErrors()); err != nil {
		return xerrors.NewSchemaValidationError(artifact, err)
	}
	return nil
}
