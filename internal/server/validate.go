package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const chatSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message":   {"type": "string"},
		"industry":  {"type": "string"},
		"sessionId": {"type": "string"}
	}
}`

const leadSchema = `{
	"type": "object",
	"required": ["name", "email"],
	"properties": {
		"name":  {"type": "string"},
		"email": {"type": "string"},
		"phone": {"type": "string"},
		"query": {"type": "string"}
	}
}`

var (
	chatRequestSchema = mustSchema(chatSchema)
	leadRequestSchema = mustSchema(leadSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// errInvalidJSON is reported when the body does not parse at all.
var errInvalidJSON = errors.New("invalid JSON body")

// validate checks body against schema and returns a client-facing error.
func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errInvalidJSON
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("invalid request: %s", strings.Join(errs, "; "))
	}
	return nil
}
