package connect 

const (
schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "notification batch",
  "type": "object",
  "properties": {
    "notifications": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["device_id", "resource_path"],
        "properties": {
          "device_id": { "type": "string" },
          "resource_path": { "type": "string" },
          "payload": { "type": "string" },
          "content_type": { "type": "string" }
        }
      }
    },
    "registrations": {
      "type": "array",
      "items": { "$ref": "#/definitions/device_event" }
    },
    "re_registrations": {
      "type": "array",
      "items": { "$ref": "#/definitions/device_event" }
    },
    "de_registrations": {
      "type": "array",
      "items": { "type": "string" }
    },
    "expirations": {
      "type": "array",
      "items": { "type": "string" }
    },
    "async_responses": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "status"],
        "properties": {
          "id": { "type": "string" },
          "status": { "type": "integer" },
          "payload": { "type": "string" },
          "content_type": { "type": "string" },
          "error": { "type": "string" }
        }
      }
    }
  },
  "definitions": {
    "device_event": {
      "type": "object",
      "required": ["device_id"],
      "properties": {
        "device_id": { "type": "string" },
        "endpoint_type": { "type": "string" },
        "queue_mode": { "type": "boolean" },
        "resources": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["path"],
            "properties": {
              "path": { "type": "string" },
              "content_type": { "type": "string" },
              "observable": { "type": "boolean" }
            }
          }
        }
      }
    }
  }
}
`
)
