package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LineTrack API",
        "description": "Line registry, fault ticketing and provisioning request coordination",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Lines", "description": "Line registry and lifecycle"},
        {"name": "Faults", "description": "Fault ticket lifecycle"},
        {"name": "LineRequests", "description": "Line provisioning requests"},
        {"name": "Catalog", "description": "Line types, subsidiaries and users"},
        {"name": "Maintenance", "description": "Operational statistics"}
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
        "/lines": {
            "get": {
                "tags": ["Lines"],
                "summary": "List lines",
                "parameters": [
                    {"name": "subsidiaryId", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lines"],
                "summary": "Register a line",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lines/{id}": {
            "get": {
                "tags": ["Lines"],
                "summary": "Get line",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Lines"],
                "summary": "Update line status or check timestamp",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Lines"],
                "summary": "Delete line",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/lines/{id}/status": {
            "patch": {
                "tags": ["Lines"],
                "summary": "Set line status directly, bypassing fault linkage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetLineStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lines/{id}/faults": {
            "get": {
                "tags": ["Faults"],
                "summary": "List faults declared against a line",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lines/{id}/confirm-working": {
            "patch": {
                "tags": ["Lines"],
                "summary": "Confirm a line is working, auto-resolving open faults",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lines/{id}/toggle-fault-flow": {
            "patch": {
                "tags": ["Lines"],
                "summary": "Toggle the fault-flow flag",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faults": {
            "get": {
                "tags": ["Faults"],
                "summary": "List fault tickets",
                "parameters": [
                    {"name": "lineId", "in": "query", "type": "integer"},
                    {"name": "subsidiaryId", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Faults"],
                "summary": "Declare a fault",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeclareFaultRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faults/{id}": {
            "get": {
                "tags": ["Faults"],
                "summary": "Get fault",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faults/{id}/assign": {
            "patch": {
                "tags": ["Faults"],
                "summary": "Assign fault to maintenance user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignFaultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faults/{id}/resolve": {
            "patch": {
                "tags": ["Faults"],
                "summary": "Resolve fault",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveFaultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faults/{id}/feedback": {
            "patch": {
                "tags": ["Faults"],
                "summary": "Update feedback on a resolved fault",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FaultFeedbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/line-requests": {
            "get": {
                "tags": ["LineRequests"],
                "summary": "List line requests",
                "parameters": [
                    {"name": "subsidiaryId", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["LineRequests"],
                "summary": "Submit a line provisioning request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLineRequestPayload"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/line-requests/{id}": {
            "get": {
                "tags": ["LineRequests"],
                "summary": "Get line request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["LineRequests"],
                "summary": "Delete line request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/line-requests/{id}/approve": {
            "post": {
                "tags": ["LineRequests"],
                "summary": "Approve a pending request and provision its line",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveLineRequestPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/line-requests/{id}/reject": {
            "post": {
                "tags": ["LineRequests"],
                "summary": "Reject a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectLineRequestPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/line-types": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List line types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create line type",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLineTypeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subsidiaries/{id}/lines": {
            "get": {
                "tags": ["Lines"],
                "summary": "List lines owned by a subsidiary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subsidiaries/{id}/faults": {
            "get": {
                "tags": ["Faults"],
                "summary": "List faults across a subsidiary's lines",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subsidiaries": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List subsidiaries",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create subsidiary",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubsidiaryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/maintenance/stats": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Aggregate fault statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateLineRequest": {
            "type": "object",
            "properties": {
                "number": {"type": "string"},
                "type": {"type": "string"},
                "subsidiaryId": {"type": "integer"},
                "location": {"type": "string"},
                "inFaultFlow": {"type": "boolean"},
                "status": {"type": "string"}
            },
            "required": ["number", "type", "subsidiaryId", "location"]
        },
        "SetLineStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "UpdateLineRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "lastChecked": {"type": "string", "format": "date-time"}
            }
        },
        "DeclareFaultRequest": {
            "type": "object",
            "properties": {
                "lineId": {"type": "integer"},
                "subsidiaryId": {"type": "integer"},
                "declaredBy": {"type": "integer"},
                "symptoms": {"type": "string"},
                "probableCause": {"type": "string"}
            },
            "required": ["lineId", "subsidiaryId", "declaredBy", "symptoms", "probableCause"]
        },
        "AssignFaultRequest": {
            "type": "object",
            "properties": {
                "maintenanceUserId": {"type": "integer"}
            },
            "required": ["maintenanceUserId"]
        },
        "ResolveFaultRequest": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
            },
            "required": ["feedback"]
        },
        "FaultFeedbackRequest": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
            },
            "required": ["feedback"]
        },
        "CreateLineRequestPayload": {
            "type": "object",
            "properties": {
                "subsidiaryId": {"type": "integer"},
                "requestedType": {"type": "string"},
                "adminId": {"type": "integer"}
            },
            "required": ["subsidiaryId", "requestedType", "adminId"]
        },
        "ApproveLineRequestPayload": {
            "type": "object",
            "properties": {
                "assignedNumber": {"type": "string"}
            },
            "required": ["assignedNumber"]
        },
        "RejectLineRequestPayload": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "CreateLineTypeRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "title": {"type": "string"}
            },
            "required": ["code", "title"]
        },
        "CreateSubsidiaryRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
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
