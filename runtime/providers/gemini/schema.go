package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// functionSchema converts a JSON Schema into the OpenAPI subset Gemini accepts,
// where type names are upper case ("object" becomes "OBJECT").
func functionSchema(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("invalid parameter schema: %w", err)
	}
	upperTypes(schema)
	return schema, nil
}

func upperTypes(node any) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if s, ok := child.(string); ok && k == "type" {
				v[k] = strings.ToUpper(s)
				continue
			}
			upperTypes(child)
		}
	case []any:
		for _, child := range v {
			upperTypes(child)
		}
	}
}

func buildFunctionDeclarations(defs []types.ToolDef) ([]functionDeclaration, error) {
	decls := make([]functionDeclaration, 0, len(defs))
	for _, d := range defs {
		params, err := functionSchema(d.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.Name, err)
		}
		decls = append(decls, functionDeclaration{Name: d.Name, Description: d.Description, Parameters: params})
	}
	return decls, nil
}

// genaiTools converts tool definitions for the genai SDK.
func genaiTools(defs []types.ToolDef) ([]*genai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	decls, err := buildFunctionDeclarations(defs)
	if err != nil {
		return nil, err
	}
	out := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{Name: d.Name, Description: d.Description}
		if d.Parameters != nil {
			raw, err := json.Marshal(d.Parameters)
			if err != nil {
				return nil, err
			}
			var schema genai.Schema
			if err := json.Unmarshal(raw, &schema); err != nil {
				return nil, fmt.Errorf("tool %s: %w", d.Name, err)
			}
			fd.Parameters = &schema
		}
		out = append(out, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: out}}, nil
}
