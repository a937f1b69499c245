package validation

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator is a compiled schema. It holds no per-request state and is safe
// for concurrent use.
type Validator struct {
	schema  *openapi3.Schema
	message string
}

// CompileOption configures a Validator.
type CompileOption func(*Validator)

// WithFailureMessage sets the message carried by returned ValidationErrors.
func WithFailureMessage(msg string) CompileOption {
	return func(v *Validator) { v.message = msg }
}

// Compile checks schema and returns a reusable validator for it. Schemas that
// do not declare additionalProperties accept extra keys.
func Compile(ctx context.Context, schema *openapi3.Schema, opts ...CompileOption) (*Validator, error) {
	ensureFormats()
	if schema == nil {
		schema = &openapi3.Schema{}
	}
	if err := schema.Validate(ctx); err != nil {
		return nil, &BuildError{Code: InvalidSchema, Message: "invalid schema", Cause: err}
	}
	v := &Validator{schema: schema, message: "validation failed"}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Schema returns the schema the validator was compiled from.
func (v *Validator) Schema() *openapi3.Schema { return v.schema }

// Validate coerces a copy of data to the declared types and checks it. On
// success the coerced copy is returned. Violations are reported as a
// *ValidationError listing every failing field.
func (v *Validator) Validate(ctx context.Context, data any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coerced := Coerce(v.schema, data)
	err := v.schema.VisitJSON(coerced, openapi3.MultiErrors(), openapi3.VisitAsRequest())
	if err == nil {
		return coerced, nil
	}
	return nil, &ValidationError{Message: v.message, Errors: Translate(v.schema, err)}
}
