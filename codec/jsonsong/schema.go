package jsonsong

import (
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaData []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
	return schema, errors.Wrap(err, "jsonsong: compiling schema")
})

// validate checks the shape of a decoded document. Problems are reported,
// not enforced: the decoder skips or defaults whatever it cannot use.
func validate(doc any) []string {
	schema, err := loadSchema()
	if err != nil {
		return []string{err.Error()}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems
}
