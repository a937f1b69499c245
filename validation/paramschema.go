package validation

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Namespace is the composite-schema property a parameter location maps to.
type Namespace string

const (
	NamespaceParams  Namespace = "params"
	NamespaceQuery   Namespace = "query"
	NamespaceCookies Namespace = "cookies"
)

// namespaces is the closed location mapping. Header parameters are not part of it.
var namespaces = map[string]Namespace{
	openapi3.ParameterInPath:   NamespaceParams,
	openapi3.ParameterInQuery:  NamespaceQuery,
	openapi3.ParameterInCookie: NamespaceCookies,
}

// NamespaceFor maps a parameter location to its namespace.
func NamespaceFor(in string) (Namespace, bool) {
	ns, ok := namespaces[in]
	return ns, ok
}

// BuildParameterSchema produces the composite parameter schema for one route:
// an object with params, query and cookies sub-objects. params and query reject
// undeclared keys; cookies does not.
func BuildParameterSchema(params openapi3.Parameters) (*openapi3.Schema, error) {
	sections := map[Namespace]*openapi3.Schema{
		NamespaceParams:  openapi3.NewObjectSchema().WithoutAdditionalProperties(),
		NamespaceQuery:   openapi3.NewObjectSchema().WithoutAdditionalProperties(),
		NamespaceCookies: openapi3.NewObjectSchema().WithAnyAdditionalProperties(),
	}

	for i, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		ns, ok := NamespaceFor(p.In)
		if !ok {
			return nil, &BuildError{
				Code:        UnknownLocation,
				Message:     fmt.Sprintf("parameter %q: unsupported location %q (allowed: path, query, cookie)", p.Name, p.In),
				JSONPointer: fmt.Sprintf("#/parameters/%d/in", i),
			}
		}
		section := sections[ns]
		value := p.Schema
		if value == nil || value.Value == nil {
			value = openapi3.NewSchemaRef("", &openapi3.Schema{})
		}
		section.Properties[p.Name] = value
		if p.Required {
			section.Required = appendUnique(section.Required, p.Name)
		}
	}

	root := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	root.Properties = openapi3.Schemas{
		string(NamespaceParams):  openapi3.NewSchemaRef("", sections[NamespaceParams]),
		string(NamespaceQuery):   openapi3.NewSchemaRef("", sections[NamespaceQuery]),
		string(NamespaceCookies): openapi3.NewSchemaRef("", sections[NamespaceCookies]),
	}
	root.Required = []string{string(NamespaceParams), string(NamespaceQuery)}
	return root, nil
}

func appendUnique(list []string, name string) []string {
	for _, v := range list {
		if v == name {
			return list
		}
	}
	return append(list, name)
}
