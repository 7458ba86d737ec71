package protocol

import "github.com/santhosh-tekuri/jsonschema/v5"

// carSchema validates the structural shape of a document before decoding.
// Required fields, discriminators, and identity checks are enforced in Go so
// load failures classify precisely; the schema guards field types only.
const carSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "p": {"type": "string"},
    "op": {"type": "string"},
    "protocol": {"type": "string"},
    "version": {"type": "string"},
    "hash": {"type": "string"},
    "signature": {"type": "string"},
    "cpl": {
      "type": "object",
      "properties": {
        "owner": {"type": "string"},
        "state": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "type": {"type": "string"},
              "default": {"type": "string"}
            }
          }
        },
        "methods": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "params": {"type": "array", "items": {"type": "string"}},
              "logic": {
                "oneOf": [
                  {"type": "string"},
                  {"type": "array", "items": {"type": "string"}}
                ]
              },
              "returns": {
                "oneOf": [
                  {"type": "string"},
                  {
                    "type": "object",
                    "properties": {"expr": {"type": "string"}},
                    "required": ["expr"]
                  }
                ]
              }
            }
          }
        },
        "events": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "params": {
                "type": "array",
                "items": {
                  "oneOf": [
                    {"type": "string"},
                    {
                      "type": "object",
                      "properties": {"name": {"type": "string"}},
                      "required": ["name"]
                    }
                  ]
                }
              }
            }
          }
        }
      }
    }
  }
}`

var documentSchema = jsonschema.MustCompileString("car.schema.json", carSchema)
