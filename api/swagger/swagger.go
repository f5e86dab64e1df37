package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Attendance API",
        "description": "QR-based student attendance recording and rosters",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Admin login"},
        {"name": "Attendance", "description": "QR scans and daily rosters"},
        {"name": "Students", "description": "Student directory management"},
        {"name": "Admins", "description": "Back-office accounts"}
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
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "responses": {
                    "200": {"description": "Access token"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/scan": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance from a scanned QR code",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ScanRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Scan outcome (ok or not_found)", "schema": {"$ref": "#/definitions/ScanResponse"}},
                    "400": {"description": "Empty QR data"}
                }
            }
        },
        "/api/v1/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance rows for a date",
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "description": "YYYY-MM-DD, defaults to today"}
                ],
                "responses": {
                    "200": {"description": "Ordered roster rows"}
                }
            }
        },
        "/api/v1/attendance/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Download the roster as CSV or PDF",
                "parameters": [
                    {"in": "query", "name": "date", "type": "string"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"description": "Students with pagination"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student (multipart, optional photo)",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Student identifier already registered"}
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "responses": {
                    "200": {"description": "Student"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Edit a student",
                "responses": {
                    "200": {"description": "Updated student"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Student has attendance records"}
                }
            }
        },
        "/api/v1/admins": {
            "get": {
                "tags": ["Admins"],
                "summary": "List admin accounts",
                "responses": {
                    "200": {"description": "Admins"}
                }
            },
            "post": {
                "tags": ["Admins"],
                "summary": "Create an admin account",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        }
    },
    "definitions": {
        "ScanRequest": {
            "type": "object",
            "properties": {
                "qr_text": {"type": "string"}
            }
        },
        "ScanResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ok", "not_found", "error"]},
                "created": {"type": "boolean"},
                "time_in": {"type": "string", "example": "08:05 AM"},
                "student": {"$ref": "#/definitions/ScanStudent"}
            }
        },
        "ScanStudent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "student_id": {"type": "string"},
                "last_name": {"type": "string"},
                "first_name": {"type": "string"},
                "course": {"type": "string"},
                "level": {"type": "string"},
                "photo_url": {"type": "string", "x-nullable": true}
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
