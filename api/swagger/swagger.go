package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Padel Club API",
        "description": "Waitlist and class occurrence API for padel club schedules",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Classes", "description": "Class occurrences and availability"},
        {"name": "Waitlist", "description": "Waitlist entries and resolution"},
        {"name": "Participants", "description": "Attendance confirmation"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/classes/{id}/occurrences/{date}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get a class occurrence with live availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Occurrence detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found"}
                }
            }
        },
        "/classes/{id}/occurrences/{date}/eligibility": {
            "get": {
                "tags": ["Classes"],
                "summary": "Check whether the caller can join the waitlist",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Structured eligibility result", "schema": {"$ref": "#/definitions/EligibilityResult"}}
                }
            }
        },
        "/classes/{id}/waitlist/{date}": {
            "get": {
                "tags": ["Classes"],
                "summary": "List the pending waitlist for an occurrence in arrival order",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Pending entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admins and trainers only"}
                }
            }
        },
        "/waitlist": {
            "post": {
                "tags": ["Waitlist"],
                "summary": "Join the waitlist for a class occurrence",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JoinWaitlistRequest"}}
                ],
                "responses": {
                    "201": {"description": "Pending entry created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate entry or ineligible"}
                }
            }
        },
        "/waitlist/mine": {
            "get": {
                "tags": ["Waitlist"],
                "summary": "List the caller's waitlist requests",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Visible entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Authentication required"}
                }
            }
        },
        "/waitlist/{id}/accept": {
            "post": {
                "tags": ["Waitlist"],
                "summary": "Accept a pending waitlist entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcceptWaitlistRequest"}}
                ],
                "responses": {
                    "200": {"description": "Entry accepted, siblings expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Class full or entry already processed"}
                }
            }
        },
        "/waitlist/{id}/reject": {
            "post": {
                "tags": ["Waitlist"],
                "summary": "Reject a pending waitlist entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RejectWaitlistRequest"}}
                ],
                "responses": {
                    "200": {"description": "Entry rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry already processed"}
                }
            }
        },
        "/participants/{id}/attendance/confirm": {
            "post": {
                "tags": ["Participants"],
                "summary": "Confirm attendance for an occurrence",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendancePayload"}}
                ],
                "responses": {
                    "200": {"description": "Updated participant", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/participants/{id}/attendance/absence": {
            "post": {
                "tags": ["Participants"],
                "summary": "Confirm absence for an occurrence, freeing the spot for that date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendancePayload"}}
                ],
                "responses": {
                    "200": {"description": "Updated participant", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "JoinWaitlistRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "class_date": {"type": "string", "format": "date"}
            },
            "required": ["class_id", "class_date"]
        },
        "AcceptWaitlistRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "class_date": {"type": "string", "format": "date"}
            },
            "required": ["class_id", "class_date"]
        },
        "RejectWaitlistRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"}
            }
        },
        "AttendancePayload": {
            "type": "object",
            "properties": {
                "class_date": {"type": "string", "format": "date"}
            },
            "required": ["class_date"]
        },
        "EligibilityResult": {
            "type": "object",
            "properties": {
                "canJoin": {"type": "boolean"},
                "reason": {"type": "string"},
                "message": {"type": "string"},
                "enrollmentId": {"type": "string"}
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
