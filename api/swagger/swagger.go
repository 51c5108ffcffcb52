package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Personnel API",
        "description": "Person and candidate records with linked item tables",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Persons", "description": "Candidate search, person upsert, cascade delete and dossier export"},
        {"name": "Items", "description": "Person-linked records addressed by item name"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Database reachable"},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/routes/candidates/{page}": {
            "get": {
                "tags": ["Persons"],
                "summary": "List candidates",
                "parameters": [
                    {"name": "page", "in": "path", "required": true, "type": "integer", "description": "Zero-based page"},
                    {"name": "search", "in": "query", "type": "string", "description": "Surname, firstname and patronymic separated by spaces"},
                    {"name": "per_page", "in": "query", "type": "integer", "description": "Page size"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CandidatePage"}},
                    "400": {"description": "Invalid page", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/routes/persons": {
            "post": {
                "tags": ["Persons"],
                "summary": "Create or update person",
                "description": "Updates by id when given, otherwise by identity match; creates the person when no match exists.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PersonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UpsertResult"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/routes/persons/{personId}": {
            "get": {
                "tags": ["Persons"],
                "summary": "Get person",
                "parameters": [{"name": "personId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Person"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Persons"],
                "summary": "Delete person with every linked item",
                "parameters": [{"name": "personId", "in": "path", "required": true, "type": "integer"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/routes/persons/{personId}/export": {
            "get": {
                "tags": ["Persons"],
                "summary": "Export person dossier",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "personId", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"], "default": "pdf"},
                    {"name": "save", "in": "query", "type": "boolean", "description": "Also store the file in the person folder"}
                ],
                "responses": {
                    "200": {"description": "Rendered document", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/routes/{item}/{personId}": {
            "get": {
                "tags": ["Items"],
                "summary": "List items of a person",
                "parameters": [
                    {"$ref": "#/parameters/item"},
                    {"name": "personId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Unknown item", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "post": {
                "tags": ["Items"],
                "summary": "Create or update an item of a person",
                "description": "An id in the body updates that row; otherwise a row is inserted.",
                "consumes": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/item"},
                    {"name": "personId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Saved"},
                    "400": {"description": "Unknown item or field", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/routes/{item}/{itemId}": {
            "delete": {
                "tags": ["Items"],
                "summary": "Delete an item",
                "parameters": [
                    {"$ref": "#/parameters/item"},
                    {"name": "itemId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "400": {"description": "Unknown item", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "item": {
            "name": "item",
            "in": "path",
            "required": true,
            "type": "string",
            "enum": ["addresses", "affiliations", "checks", "contacts", "documents", "educations", "inquiries", "investigations", "previous", "poligraphs", "staffs", "workplaces"]
        }
    },
    "definitions": {
        "PersonRequest": {
            "type": "object",
            "description": "Without id, surname, firstname and birthday are required. With id, only the supplied fields are written.",
            "properties": {
                "id": {"type": "integer"},
                "surname": {"type": "string"},
                "firstname": {"type": "string"},
                "patronymic": {"type": "string"},
                "birthday": {"type": "string", "example": "1990-01-02"}
            }
        },
        "Person": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "surname": {"type": "string"},
                "firstname": {"type": "string"},
                "patronymic": {"type": "string"},
                "birthday": {"type": "string"},
                "created": {"type": "string", "format": "date-time"},
                "destination": {"type": "string"},
                "user_id": {"type": "integer"}
            }
        },
        "PersonSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "surname": {"type": "string"},
                "firstname": {"type": "string"},
                "patronymic": {"type": "string"},
                "birthday": {"type": "string"},
                "created": {"type": "string", "format": "date-time"}
            }
        },
        "CandidatePage": {
            "type": "object",
            "properties": {
                "has_next": {"type": "boolean"},
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/PersonSummary"}}
            }
        },
        "UpsertResult": {
            "type": "object",
            "properties": {
                "person_id": {"type": "integer"},
                "exists": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "string"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
