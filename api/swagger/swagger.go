package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "QR Attendance API",
        "description": "Weekly classroom attendance through short-lived QR session codes.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Attendance", "description": "Student submissions reached from a QR link"},
        {"name": "Sessions", "description": "Per-week session codes issued by instructors"},
        {"name": "Lectures", "description": "Rosters, matrices and exports"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/attend": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Prefill data for the student attendance form",
                "parameters": [
                    {"name": "c", "in": "query", "type": "string", "description": "Session code from the QR link"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a session code",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recorded", "schema": {"$ref": "#/definitions/AttendanceReceiptEnvelope"}},
                    "400": {"description": "Missing input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session code or student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Attendance window closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Store unavailable, retry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Create or refresh a lecture week session",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data", "application/json"],
                "parameters": [
                    {"name": "lecture", "in": "formData", "type": "string", "required": true},
                    {"name": "week", "in": "formData", "type": "integer", "required": true, "minimum": 1, "maximum": 14},
                    {"name": "roster", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Issued", "schema": {"$ref": "#/definitions/IssuedSessionEnvelope"}},
                    "400": {"description": "Invalid week or roster", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Lecture not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{code}/qr": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Render the QR image of a session code",
                "security": [{"BearerAuth": []}],
                "produces": ["image/png"],
                "parameters": [
                    {"name": "code", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PNG image", "schema": {"type": "file"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures": {
            "get": {
                "tags": ["Lectures"],
                "summary": "List lectures",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/roster": {
            "post": {
                "tags": ["Lectures"],
                "summary": "Upload a roster for a lecture",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "lecture", "in": "formData", "type": "string", "required": true},
                    {"name": "roster", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty or unreadable roster", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/export": {
            "get": {
                "tags": ["Lectures"],
                "summary": "Download the attendance matrix of a lecture",
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "lecture", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Lecture not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/{id}": {
            "delete": {
                "tags": ["Lectures"],
                "summary": "Delete a lecture with its enrollments, sessions and attendance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Lecture not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/{id}/matrix": {
            "get": {
                "tags": ["Lectures"],
                "summary": "Weekly attendance matrix of a lecture",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AttendanceMatrixEnvelope"}},
                    "404": {"description": "Lecture not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lectures/{id}/sessions": {
            "get": {
                "tags": ["Lectures"],
                "summary": "List the week sessions of a lecture",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "JSON digest of service metrics",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RecordAttendanceRequest": {
            "type": "object",
            "required": ["code", "student_id"],
            "properties": {
                "code": {"type": "string"},
                "student_id": {"type": "string"}
            }
        },
        "AttendanceReceipt": {
            "type": "object",
            "properties": {
                "week": {"type": "integer"},
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "recorded_at": {"type": "string", "format": "date-time"}
            }
        },
        "IssuedSession": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "lecture_id": {"type": "string"},
                "week": {"type": "integer"},
                "code": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "expires_at": {"type": "string", "format": "date-time"},
                "lecture_name": {"type": "string"},
                "link": {"type": "string"},
                "qr_code": {"type": "string", "description": "PNG data URL"}
            }
        },
        "MatrixRow": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "weeks": {"type": "array", "minItems": 14, "maxItems": 14, "items": {"type": "integer", "enum": [0, 1]}}
            }
        },
        "AttendanceMatrix": {
            "type": "object",
            "properties": {
                "lecture_id": {"type": "string"},
                "lecture_name": {"type": "string"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/MatrixRow"}}
            }
        },
        "AttendanceReceiptEnvelope": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/AttendanceReceipt"}}
        },
        "IssuedSessionEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/IssuedSession"},
                "meta": {"type": "object"}
            }
        },
        "AttendanceMatrixEnvelope": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/AttendanceMatrix"}}
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
