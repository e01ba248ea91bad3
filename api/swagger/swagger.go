package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Booking Engine API",
        "description": "Reservation scheduling, recurring blocks and workshop enrollment",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Reservations", "description": "Atomic multi-resource booking and review"},
        {"name": "Calendar", "description": "Merged occurrence view per resource"},
        {"name": "Recurring Blocks", "description": "Weekly administrative blocks and their exceptions"},
        {"name": "Inscriptions", "description": "Capacity-limited workshop enrollment"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/reservations": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Book several resources for one interval, all or nothing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateReservationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid interval or items", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown resource", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "RESERVATION_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Retryable storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reservations/submissions/{id}": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Get a submission with its aggregate status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reservations/{id}/approve": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Approve a pending reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not responsible for the resource", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "FINALIZED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reservations/{id}/reject": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Reject a pending reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "schema": {"type": "object", "properties": {"reason": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "FINALIZED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reservations/{id}/checkout": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Record equipment retrieval",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not an approved equipment reservation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reservations/{id}/checkin": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Record equipment return",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not checked out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/resources/{type}/{id}/conflicts": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Check an interval for conflicts without booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "type", "required": true, "type": "string", "enum": ["SPACE", "EQUIPMENT", "WORKSHOP"]},
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "start", "required": true, "type": "string", "format": "date-time"},
                    {"in": "query", "name": "end", "required": true, "type": "string", "format": "date-time"},
                    {"in": "query", "name": "exclude", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/resources/{type}/{id}/occurrences": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List reservations and block occurrences in a date window",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "type", "required": true, "type": "string", "enum": ["SPACE", "EQUIPMENT"]},
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "from", "required": true, "type": "string", "format": "date"},
                    {"in": "query", "name": "to", "required": true, "type": "string", "format": "date"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/recurring-blocks": {
            "get": {
                "tags": ["Recurring Blocks"],
                "summary": "List recurring blocks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "resourceType", "type": "string"},
                    {"in": "query", "name": "resourceId", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Recurring Blocks"],
                "summary": "Create a recurring block",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecurringBlockRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "BLOCK_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/recurring-blocks/{id}": {
            "get": {
                "tags": ["Recurring Blocks"],
                "summary": "Get a recurring block",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Recurring Blocks"],
                "summary": "Replace a recurring block",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecurringBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "BLOCK_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Recurring Blocks"],
                "summary": "Delete a recurring block",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/recurring-blocks/{id}/exceptions": {
            "get": {
                "tags": ["Recurring Blocks"],
                "summary": "List exceptions of a block",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Recurring Blocks"],
                "summary": "Override one occurrence of a block",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/BlockExceptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate date or BLOCK_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/recurring-blocks/exceptions/{id}": {
            "delete": {
                "tags": ["Recurring Blocks"],
                "summary": "Remove an exception",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/api/v1/workshops/{id}/inscriptions": {
            "post": {
                "tags": ["Inscriptions"],
                "summary": "Enroll the caller in a workshop",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "schema": {"type": "object", "properties": {"wants_extraordinary": {"type": "boolean"}}}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "ALREADY_ENROLLED, CAPACITY_REACHED, ACTIVE_LIMIT_EXCEEDED, EXTRAORDINARY_QUOTA_EXCEEDED or INSCRIPTIONS_CLOSED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/inscriptions/{id}/approve": {
            "post": {
                "tags": ["Inscriptions"],
                "summary": "Approve a pending inscription",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/inscriptions/{id}/reject": {
            "post": {
                "tags": ["Inscriptions"],
                "summary": "Reject a pending inscription",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "ResourceRef": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["SPACE", "EQUIPMENT", "WORKSHOP"]},
                "id": {"type": "string"}
            }
        },
        "CreateReservationRequest": {
            "type": "object",
            "required": ["start_time", "end_time", "items"],
            "properties": {
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "block": {"type": "boolean"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/ResourceRef"}}
            }
        },
        "RecurringBlockRequest": {
            "type": "object",
            "required": ["title", "start_date", "end_date", "days_of_week", "start_time", "end_time", "resources"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "days_of_week": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "10:00"},
                "is_visible": {"type": "boolean"},
                "resources": {"type": "array", "items": {"$ref": "#/definitions/ResourceRef"}}
            }
        },
        "BlockExceptionRequest": {
            "type": "object",
            "required": ["exception_date", "start_time", "end_time"],
            "properties": {
                "exception_date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
