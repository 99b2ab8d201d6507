package ai

// Kind is the JSON type of a schema node.
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindString Kind = "string"
)

// Schema is a provider neutral subset of JSON Schema. Adapters translate it to
// the structured output format of their SDK.
type Schema struct {
	Kind        Kind
	Description string
	Properties  map[string]*Schema
	// Order keeps property order stable for providers that care about it.
	Order    []string
	Required []string
	Items    *Schema
}

// Object builds an object schema; every listed property is required.
func Object(desc string, props ...Property) *Schema {
	s := &Schema{Kind: KindObject, Description: desc, Properties: make(map[string]*Schema, len(props))}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
		s.Required = append(s.Required, p.Name)
	}
	return s
}

func ArrayOf(desc string, items *Schema) *Schema {
	return &Schema{Kind: KindArray, Description: desc, Items: items}
}

func String(desc string) *Schema {
	return &Schema{Kind: KindString, Description: desc}
}

// Property is a named object member.
type Property struct {
	Name   string
	Schema *Schema
}

func Prop(name string, s *Schema) Property { return Property{Name: name, Schema: s} }
