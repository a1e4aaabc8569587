package world

import "github.com/santhosh-tekuri/jsonschema/v5"

// snapshotSchemaJSON guards against loading torn or foreign JSON files as a
// world snapshot. Layout changes must be reflected here.
const snapshotSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["tick", "agents"],
  "properties": {
    "tick": {"type": "integer", "minimum": 0},
    "agents": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {"type": "string"}
      }
    },
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "creator", "tick"],
        "properties": {
          "kind": {"type": "string"},
          "creator": {"type": "string"},
          "tick": {"type": "integer", "minimum": 0}
        }
      }
    },
    "facts": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

var snapshotSchema = jsonschema.MustCompileString("world.schema.json", snapshotSchemaJSON)
