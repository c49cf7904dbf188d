package api

import (
	"encoding/json"
	"fmt"
	"sync"

	gschema "github.com/google/jsonschema-go/jsonschema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/wilhg/persephone/pkg/errmodel"
)

// Request body schemas, keyed by name.
var requestSchemas = map[string]string{
	"comment": `{
		"type": "object",
		"properties": {
			"comment": {"type": "string", "minLength": 1, "pattern": "\\S"},
			"highlightedText": {"type": "string"}
		},
		"required": ["comment"],
		"additionalProperties": false
	}`,
	"rating": `{
		"type": "object",
		"properties": {"rating": {"type": "integer", "minimum": 1, "maximum": 5}},
		"required": ["rating"],
		"additionalProperties": false
	}`,
	"like": `{
		"type": "object",
		"properties": {"articleId": {"type": "integer", "minimum": 1}},
		"required": ["articleId"],
		"additionalProperties": false
	}`,
	"report": `{
		"type": "object",
		"properties": {"reason": {"type": "string", "minLength": 1, "pattern": "\\S"}},
		"required": ["reason"],
		"additionalProperties": false
	}`,
	"login": `{
		"type": "object",
		"properties": {
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 1}
		},
		"required": ["email", "password"],
		"additionalProperties": false
	}`,
	"signup": `{
		"type": "object",
		"properties": {
			"firstName": {"type": "string", "minLength": 1},
			"lastName": {"type": "string", "minLength": 1},
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 6}
		},
		"required": ["firstName", "lastName", "email", "password"],
		"additionalProperties": false
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileRequestSchemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		out := make(map[string]*jsonschema.Schema, len(requestSchemas))
		for name, src := range requestSchemas {
			var doc any
			if err := json.Unmarshal([]byte(src), &doc); err != nil {
				compileErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			loc := "mem://request/" + name + ".json"
			if err := c.AddResource(loc, doc); err != nil {
				compileErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			sch, err := c.Compile(loc)
			if err != nil {
				compileErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			out[name] = sch
		}
		compiled = out
	})
	return compiled, compileErr
}

// validateRequest checks body against the named schema. A failure is a
// validation error and the request is never sent.
func validateRequest(name string, body any) error {
	schemas, err := compileRequestSchemas()
	if err != nil {
		return errmodel.System("schema", "request schemas failed to compile", nil, err)
	}
	sch, ok := schemas[name]
	if !ok {
		return errmodel.System("schema", "unknown request schema", map[string]any{"schema": name}, nil)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return errmodel.System("encode_request", "failed to encode request", map[string]any{"schema": name}, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return errmodel.System("encode_request", "failed to encode request", map[string]any{"schema": name}, err)
	}
	if err := sch.Validate(v); err != nil {
		return errmodel.Validation("invalid_request", invalidMessage(name), map[string]any{
			"schema": name,
			"detail": err.Error(),
		})
	}
	return nil
}

func invalidMessage(name string) string {
	switch name {
	case "comment":
		return "Comment cannot be empty"
	case "rating":
		return "Rating must be a whole number between 1 and 5"
	case "like":
		return "Article id is required"
	case "report":
		return "Please give a reason for reporting this article"
	case "login":
		return "A valid email and password are required"
	case "signup":
		return "First name, last name, a valid email and a password of at least 6 characters are required"
	}
	return "invalid request"
}

// envelopeSchema is the shape every backend reply must have.
var envelopeSchema = &gschema.Schema{
	Type:     "object",
	Required: []string{"status"},
	Properties: map[string]*gschema.Schema{
		"status":  {Type: "string", Enum: []any{StatusSuccess, StatusFail, StatusError}},
		"message": {Type: "string"},
	},
}

var (
	resolveOnce sync.Once
	resolved    *gschema.Resolved
	resolveErr  error
)

// decodeEnvelope validates raw against the envelope schema and decodes it.
func decodeEnvelope(raw []byte) (envelope, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = envelopeSchema.Resolve(nil)
	})
	if resolveErr != nil {
		return envelope{}, fmt.Errorf("resolve envelope schema: %w", resolveErr)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := resolved.Validate(doc); err != nil {
		return envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
