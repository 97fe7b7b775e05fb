// Package docs registers the OpenAPI document served at /api/v1/swagger.json.
package docs

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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/v1/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Service health",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/rankings": {
            "get": {
                "tags": ["Ranking"],
                "summary": "Operator ranking for a period",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "year", "in": "query"},
                    {"type": "string", "name": "month", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid period"}, "503": {"description": "Store not available"}}
            }
        },
        "/api/v1/rankings/export": {
            "get": {
                "tags": ["Ranking"],
                "summary": "Export the ranking as an xlsx workbook",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"type": "string", "name": "year", "in": "query"},
                    {"type": "string", "name": "month", "in": "query"}
                ],
                "responses": {"200": {"description": "Workbook"}, "400": {"description": "Invalid period"}}
            }
        },
        "/api/v1/operators/{code}/summary": {
            "get": {
                "tags": ["Ranking"],
                "summary": "Per-operator bonus, deduction and kilometer breakdown",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true},
                    {"type": "string", "name": "year", "in": "query"},
                    {"type": "string", "name": "month", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Operator not found"}}
            }
        },
        "/api/v1/deduction-rules": {
            "get": {
                "tags": ["Ranking"],
                "summary": "Deduction rule table",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/auth/login": {
            "post": {
                "tags": ["Admin Authentication"],
                "summary": "Admin login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/api/v1/admin/auth/refresh": {
            "post": {
                "tags": ["Admin Authentication"],
                "summary": "Refresh an admin session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}
            }
        },
        "/api/v1/admin/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin Authentication"],
                "summary": "Revoke the current access token",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/admin/uploads/{kind}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Uploads"],
                "summary": "Preview or commit a zones, sponsors, tasks, incidents, control-variables or operators upload",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "name": "mode", "in": "query", "enum": ["preview", "commit"]},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid file or mode"},
                    "413": {"description": "File too large"},
                    "422": {"description": "Missing column"}
                }
            }
        },
        "/api/v1/admin/uploads/audits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Uploads"],
                "summary": "Recent upload audits",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "kind", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Operator Ranking API",
	Description:      "Operator performance ranking, bonus deductions and upload reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
