package petsserver

import (
	"bytes"
	_ "embed"
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/pet.json
var petSchemaJSON []byte

var loadPetSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("pet.json", bytes.NewReader(petSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("pet.json")
})

// validatePetDocument checks a decoded request body against the pet schema and
// returns per-field messages keyed by dotted path.
func validatePetDocument(doc any) (map[string]string, error) {
	schema, err := loadPetSchema()
	if err != nil {
		return nil, err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, err
	}
	fields := map[string]string{}
	collectSchemaErrors(validationErr, fields)
	return fields, nil
}

func collectSchemaErrors(err *jsonschema.ValidationError, fields map[string]string) {
	if len(err.Causes) == 0 {
		field := strings.ReplaceAll(strings.TrimPrefix(err.InstanceLocation, "/"), "/", ".")
		if field == "" {
			field = "body"
		}
		fields[field] = err.Message
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, fields)
	}
}
