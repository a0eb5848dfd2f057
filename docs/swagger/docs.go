// Package swagger registers the API description served under /swagger/*.
package swagger

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
        "/{path}": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Logs the request and returns the configured JSON payload.",
                "produces": ["application/json"],
                "tags": ["endpoint"],
                "summary": "Stub endpoint",
                "parameters": [
                    {"type": "string", "description": "Any path below the prefix", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Content of the response file", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "description": "Logs the request, saves the body as {command}_{timestamp}.json under the upload directory and returns the configured JSON payload.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["endpoint"],
                "summary": "Stub endpoint",
                "parameters": [
                    {"type": "string", "description": "Any path below the prefix", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Content of the response file", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Stub Server API",
	Description:      "Embedded HTTP stub that logs every request and answers with a static JSON payload.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
