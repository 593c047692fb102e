package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"

	"github.com/petasbytes/overview-agent/internal/apperr"
)

// Result is a successful tool outcome. Records carries the typed domain
// value for the response shaper; Output is the normalized JSON the model sees.
type Result struct {
	Records any
	Output  string
}

// ToolDefinition describes one callable tool. Function never panics: it
// returns either a Result or an *apperr.Error.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema anthropic.ToolInputSchemaParam
	Function    func(ctx context.Context, input json.RawMessage) (Result, error)
}

// GenerateSchema derives a tool input schema from the struct T. Fields
// without omitempty are required.
func GenerateSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}

// define builds a ToolDefinition around the decode, validate, execute,
// normalize pipeline. Variants only supply validate and execute.
func define[In any](
	name, description string,
	validate func(*In) error,
	execute func(context.Context, In) (any, error),
) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: GenerateSchema[In](),
		Function: func(ctx context.Context, input json.RawMessage) (res Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					res, err = Result{}, apperr.UpstreamData(name, fmt.Errorf("panic: %v", r))
				}
			}()

			var in In
			if len(input) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return Result{}, apperr.InvalidInput("malformed arguments: %v", err)
				}
			}
			if validate != nil {
				if err := validate(&in); err != nil {
					return Result{}, classify(name, err)
				}
			}

			recs, err := execute(ctx, in)
			if err != nil {
				return Result{}, classify(name, err)
			}

			b, err := json.Marshal(recs)
			if err != nil {
				return Result{}, apperr.UpstreamData(name, err)
			}
			return Result{Records: recs, Output: string(b)}, nil
		},
	}
}

// classify keeps typed failures as they are and reports anything else as an
// upstream failure of the named tool.
func classify(name string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.UpstreamData(name, err)
}
