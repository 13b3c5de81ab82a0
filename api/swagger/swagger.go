package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Youth Welcoming College API",
        "description": "Participant registration and admin export service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "tags": [
        {"name": "Registration", "description": "Public registration form"},
        {"name": "Admin", "description": "Participant dashboard"},
        {"name": "Exports", "description": "Background participant exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Dependency unavailable"}}
            }
        },
        "/register": {
            "post": {
                "tags": ["Registration"],
                "summary": "Submit the registration",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"in": "body", "name": "payload", "schema": {"$ref": "#/definitions/RegistrationPayload"}}
                ],
                "responses": {
                    "200": {"description": "Form state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Redirect back to the form page"},
                    "409": {"description": "Form is not editable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/register/fields": {
            "post": {
                "tags": ["Registration"],
                "summary": "Edit registration fields",
                "parameters": [
                    {"in": "body", "name": "payload", "schema": {"$ref": "#/definitions/RegistrationPayload"}}
                ],
                "responses": {
                    "200": {"description": "Form state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/register/state": {
            "get": {
                "tags": ["Registration"],
                "summary": "Registration form state",
                "responses": {"200": {"description": "Form state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register/close": {
            "post": {
                "tags": ["Registration"],
                "summary": "Close the result modal",
                "responses": {
                    "200": {"description": "Form state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No modal open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin": {
            "get": {
                "tags": ["Admin"],
                "summary": "Admin dashboard metadata",
                "responses": {"200": {"description": "Metadata", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/session": {
            "put": {
                "tags": ["Admin"],
                "summary": "Store the admin bearer token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/AdminSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "Clear the admin bearer token",
                "responses": {"204": {"description": "Session cleared"}}
            }
        },
        "/admin/participants": {
            "get": {
                "tags": ["Admin"],
                "summary": "List registered participants",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Participants", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/participants/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download the participant list",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf", "text/csv"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["xlsx", "pdf", "csv"], "default": "xlsx"},
                    {"in": "query", "name": "filename", "type": "string"}
                ],
                "responses": {"200": {"description": "Export file", "schema": {"type": "file"}}}
            }
        },
        "/admin/events": {
            "get": {
                "tags": ["Admin"],
                "summary": "Live participant notifications",
                "produces": ["text/event-stream"],
                "responses": {"200": {"description": "Server-Sent Events stream"}}
            }
        },
        "/admin/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a participant export",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Export file", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegistrationPayload": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "place": {"type": "string"},
                "birth_date": {"type": "string", "format": "date"},
                "kampus": {"type": "string"},
                "jurusan": {"type": "string"},
                "angkatan": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "AdminSessionRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["xlsx", "pdf", "csv"]},
                "filename": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
