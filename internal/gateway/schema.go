package gateway

import (
	"github.com/google/generative-ai-go/genai"
)

// FieldType is the JSON type of a schema node
type FieldType int

const (
	TypeObject FieldType = iota
	TypeString
	TypeNumber
	TypeArray
)

// Field is a node of the response contract. Every property of an object is required.
type Field struct {
	Type       FieldType
	Properties []Property
	Items      *Field
}

// Property is a named child of an object Field; order is preserved for prompts and schemas
type Property struct {
	Name  string
	Field *Field
}

func object(props ...Property) *Field { return &Field{Type: TypeObject, Properties: props} }
func prop(name string, f *Field) Property {
	return Property{Name: name, Field: f}
}

var (
	str    = &Field{Type: TypeString}
	number = &Field{Type: TypeNumber}
)

// AppraisalSchema is the mandatory shape of a CompareImages response
var AppraisalSchema = object(
	prop("metadata", object(
		prop("workName", str),
		prop("style", str),
		prop("date", str),
		prop("appraisalId", str),
	)),
	prop("scores", object(
		prop("structure", number),
		prop("stroke", number),
		prop("gravity", number),
		prop("whiteSpace", number),
		prop("appearance", number),
		prop("spirit", number),
		prop("ssim", number),
		prop("pixelOverlap", number),
		prop("gravityOffset", number),
	)),
	prop("feedback", object(
		prop("structureDiff", str),
		prop("strokeAdvice", str),
		prop("specificStrokes", str),
		prop("inkDistribution", str),
		prop("conclusion", str),
		prop("nextSteps", str),
		prop("visualMarkers", object(
			prop("greenAreas", str),
			prop("redAreas", str),
		)),
	)),
	prop("markdownReport", str),
	prop("cvAdvice", object(
		prop("steps", &Field{Type: TypeArray, Items: str}),
		prop("codeSnippet", str),
	)),
)

// Required lists the property names of an object field
func (f *Field) Required() []string {
	names := make([]string, 0, len(f.Properties))
	for _, p := range f.Properties {
		names = append(names, p.Name)
	}
	return names
}

// GenAI converts the field into a Gemini response schema
func (f *Field) GenAI() *genai.Schema {
	switch f.Type {
	case TypeObject:
		s := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(f.Properties)),
			Required:   f.Required(),
		}
		for _, p := range f.Properties {
			s.Properties[p.Name] = p.Field.GenAI()
		}
		return s
	case TypeArray:
		return &genai.Schema{Type: genai.TypeArray, Items: f.Items.GenAI()}
	case TypeNumber:
		return &genai.Schema{Type: genai.TypeNumber}
	default:
		return &genai.Schema{Type: genai.TypeString}
	}
}

// JSONSchema converts the field into a JSON Schema document (strict: no extra properties)
func (f *Field) JSONSchema() map[string]any {
	switch f.Type {
	case TypeObject:
		props := make(map[string]any, len(f.Properties))
		for _, p := range f.Properties {
			props[p.Name] = p.Field.JSONSchema()
		}
		return map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             f.Required(),
			"additionalProperties": false,
		}
	case TypeArray:
		return map[string]any{"type": "array", "items": f.Items.JSONSchema()}
	case TypeNumber:
		return map[string]any{"type": "number"}
	default:
		return map[string]any{"type": "string"}
	}
}

// Missing walks a decoded JSON value and returns the dotted paths of required
// properties that are absent or of the wrong type.
func (f *Field) Missing(value any) []string {
	var missing []string
	f.collectMissing("", value, &missing)
	return missing
}

func (f *Field) collectMissing(path string, value any, missing *[]string) {
	label := path
	if label == "" {
		label = "$"
	}

	switch f.Type {
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			*missing = append(*missing, label)
			return
		}
		for _, p := range f.Properties {
			child := p.Name
			if path != "" {
				child = path + "." + p.Name
			}
			v, present := obj[p.Name]
			if !present || v == nil {
				*missing = append(*missing, child)
				continue
			}
			p.Field.collectMissing(child, v, missing)
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			*missing = append(*missing, label)
			return
		}
		for _, item := range items {
			if _, ok := item.(string); f.Items.Type == TypeString && !ok {
				*missing = append(*missing, label)
				return
			}
		}
	case TypeNumber:
		if _, ok := value.(float64); !ok {
			*missing = append(*missing, label)
		}
	case TypeString:
		if _, ok := value.(string); !ok {
			*missing = append(*missing, label)
		}
	}
}
