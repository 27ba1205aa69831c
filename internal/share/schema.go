package share

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	reflectschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"onepersonleft.ai/internal/sim/model"
)

// SchemaVersion 1 was the first release. Version 2 added ending,
// bankruptTicks, delisted, catastrophicFailure and headcountAtLastTick, all
// optional, so version 1 tokens still validate.
const SchemaVersion = 2

const schemaURL = "https://onepersonleft.ai/schemas/state.schema.json"

// Schema returns the JSON schema for a decoded token, reflected from
// model.State. Fields tagged required must be present and post-release
// fields are optional. Unknown fields are allowed.
func Schema() *reflectschema.Schema {
	r := reflectschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
	}
	s := r.Reflect(&model.State{})
	s.Title = "One Person Left share token"
	s.Description = fmt.Sprintf("Simulation state carried in a share link (schema version %d).", SchemaVersion)
	return s
}

// SchemaJSON is Schema indented for writing to disk.
func SchemaJSON() ([]byte, error) {
	b, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(b, '\n'), nil
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func stateSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}
