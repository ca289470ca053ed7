package schema

import (
	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	s := r.Reflect(v)
	s.Title = "roster catalog"
	s.Description = "Ordered list of characters offered by the selector. Later entries overwrite earlier ones with the same name."
	return s
}

// CatalogSchema describes the JSON file accepted by CATALOG_PATH.
var CatalogSchema = generateSchema[[]Character]()
