package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/entries": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["entries"],
                "summary": "List or search entries",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive search over keys and values", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/entries/{key}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["entries"],
                "summary": "Get an entry",
                "parameters": [{"type": "string", "description": "Key", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entries"],
                "summary": "Set an entry",
                "parameters": [
                    {"type": "string", "description": "Key", "name": "key", "in": "path", "required": true},
                    {"description": "Value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SetEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["entries"],
                "summary": "Delete an entry",
                "parameters": [{"type": "string", "description": "Key", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/entries/{key}/move": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["entries"],
                "summary": "Move an entry",
                "parameters": [
                    {"type": "string", "description": "Key", "name": "key", "in": "path", "required": true},
                    {"type": "integer", "description": "Positions to move, negative moves up", "name": "by", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/save": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["document"],
                "summary": "Save the document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SaveResponse"}},
                    "409": {"description": "Duplicate keys", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/export": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/octet-stream", "application/json", "application/yaml", "application/msgpack"],
                "tags": ["document"],
                "summary": "Export the document",
                "parameters": [
                    {"enum": ["bsf", "json", "yaml", "msgpack"], "type": "string", "description": "Format", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"}
            }
        },
        "api.SetEntryRequest": {
            "type": "object",
            "properties": {"value": {"type": "string"}}
        },
        "api.SaveResponse": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "written": {"type": "integer"},
                "bytes": {"type": "integer"},
                "snapshot": {"type": "string"},
                "skipped": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "bsfedit REST API",
	Description:      "Editing API for one open BSF string table.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
