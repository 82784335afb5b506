package gemini

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// ConvertSchema translates a JSON Schema document into the OpenAPI subset
// Gemini accepts for structured output. Keywords Gemini cannot express
// (minLength, $schema, additionalProperties) are dropped; the caller is
// expected to validate the answer against the full schema afterwards.
func ConvertSchema(doc map[string]any) (*genai.Schema, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	return convertNode(doc, "$")
}

func convertNode(node map[string]any, path string) (*genai.Schema, error) {
	out := &genai.Schema{}

	typ, nullable, err := schemaType(node["type"], path)
	if err != nil {
		return nil, err
	}
	out.Type = typ
	out.Nullable = nullable

	if desc, ok := node["description"].(string); ok {
		out.Description = desc
	}
	if format, ok := node["format"].(string); ok && supportedFormat(typ, format) {
		out.Format = format
	}
	if enum, ok := node["enum"].([]any); ok {
		for _, v := range enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
		if len(out.Enum) > 0 && typ == genai.TypeString {
			out.Format = "enum"
		}
	}

	switch typ {
	case genai.TypeObject:
		props, _ := node["properties"].(map[string]any)
		if len(props) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(props))
			keys := make([]string, 0, len(props))
			for k := range props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				child, ok := props[k].(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%s.properties.%s: expected object", path, k)
				}
				converted, err := convertNode(child, path+"."+k)
				if err != nil {
					return nil, err
				}
				out.Properties[k] = converted
			}
		}
		out.Required = stringList(node["required"])
	case genai.TypeArray:
		items, ok := node["items"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: array schema requires items", path)
		}
		converted, err := convertNode(items, path+"[]")
		if err != nil {
			return nil, err
		}
		out.Items = converted
	}

	return out, nil
}

func schemaType(value any, path string) (genai.Type, bool, error) {
	switch v := value.(type) {
	case string:
		t, err := lookupType(v, path)
		return t, false, err
	case []any:
		var (
			found    genai.Type
			nullable bool
		)
		for _, item := range v {
			name, _ := item.(string)
			if name == "null" {
				nullable = true
				continue
			}
			if found != genai.TypeUnspecified {
				return 0, false, fmt.Errorf("%s: union types are not supported", path)
			}
			t, err := lookupType(name, path)
			if err != nil {
				return 0, false, err
			}
			found = t
		}
		return found, nullable, nil
	case nil:
		return 0, false, fmt.Errorf("%s: type is required", path)
	default:
		return 0, false, fmt.Errorf("%s: unsupported type declaration %T", path, value)
	}
}

func lookupType(name, path string) (genai.Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string":
		return genai.TypeString, nil
	case "number":
		return genai.TypeNumber, nil
	case "integer":
		return genai.TypeInteger, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	case "object":
		return genai.TypeObject, nil
	default:
		return 0, fmt.Errorf("%s: unsupported type %q", path, name)
	}
}

func supportedFormat(t genai.Type, format string) bool {
	switch t {
	case genai.TypeString:
		return format == "date-time" || format == "enum"
	case genai.TypeNumber:
		return format == "float" || format == "double"
	case genai.TypeInteger:
		return format == "int32" || format == "int64"
	default:
		return false
	}
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
