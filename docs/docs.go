// Package docs registers the OpenAPI document served at /swagger in dev mode.
// Regenerate with `swag init` after changing handler annotations.
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
    "paths": {
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in with roster credentials",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.LoginResult"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Profile of the logged in employee",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.ProfileResponse"}}
                }
            }
        },
        "/classes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Class names accepted by the teaching journal",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/eligibility": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Whether this device may check in or out now",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "X-Device-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.EligibilityResponse"}}
                }
            }
        },
        "/attendance/check-in": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Submit a check-in with selfie and location",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "X-Device-ID", "in": "header", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.CheckRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/attendance.SubmissionResponse"}},
                    "403": {"description": "Outside the school area"},
                    "409": {"description": "Already checked in on this device"},
                    "502": {"description": "Not accepted upstream", "schema": {"$ref": "#/definitions/attendance.SubmissionResponse"}}
                }
            }
        },
        "/attendance/check-out": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Submit a check-out with selfie and location",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "X-Device-ID", "in": "header", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.CheckRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/attendance.SubmissionResponse"}},
                    "403": {"description": "Before the departure time or not present today"},
                    "409": {"description": "Already checked out on this device"},
                    "502": {"description": "Not accepted upstream"}
                }
            }
        },
        "/teaching": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Submit a teaching journal entry",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.TeachingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/attendance.SubmissionResponse"}},
                    "403": {"description": "Only teachers may submit"},
                    "502": {"description": "Not accepted upstream"}
                }
            }
        },
        "/leaves": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["attendance"],
                "summary": "Submit a leave request",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/attendance.LeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/attendance.SubmissionResponse"}},
                    "502": {"description": "Not accepted upstream"}
                }
            }
        },
        "/admin/daily": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Today's attendance board",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "name or NIP filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.DailyBoardResponse"}}
                }
            }
        },
        "/admin/recap": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Monthly attendance recap",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "1-12, defaults to the current month", "name": "month", "in": "query"},
                    {"type": "integer", "description": "defaults to the current year", "name": "year", "in": "query"},
                    {"type": "string", "description": "name or NIP filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.RecapResponse"}}
                }
            }
        },
        "/admin/recap/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Download the monthly recap",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf"],
                "parameters": [
                    {"type": "integer", "name": "month", "in": "query"},
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "string", "description": "xlsx (default) or pdf", "name": "format", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Refetch the roster and the log stream",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.RefreshResponse"}},
                    "502": {"description": "Log source unavailable"}
                }
            }
        }
    },
    "definitions": {
        "auth.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.LoginResult": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string"},
                "user": {"type": "object"}
            }
        },
        "attendance.Coordinate": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lng": {"type": "number"}
            }
        },
        "attendance.CheckRequest": {
            "type": "object",
            "required": ["photo", "location"],
            "properties": {
                "photo": {"type": "string", "description": "data URL"},
                "location": {"$ref": "#/definitions/attendance.Coordinate"}
            }
        },
        "attendance.TeachingRequest": {
            "type": "object",
            "required": ["subject", "class_name", "start_time", "end_time", "photo"],
            "properties": {
                "subject": {"type": "string"},
                "class_name": {"type": "string"},
                "start_time": {"type": "string", "example": "07:30"},
                "end_time": {"type": "string", "example": "09:00"},
                "photo": {"type": "string"}
            }
        },
        "attendance.LeaveRequest": {
            "type": "object",
            "required": ["leave_type", "start_date", "end_date", "reason"],
            "properties": {
                "leave_type": {"type": "string", "enum": ["Izin", "Sakit", "Dinas"]},
                "start_date": {"type": "string", "example": "2024-03-04"},
                "end_date": {"type": "string", "example": "2024-03-05"},
                "reason": {"type": "string"},
                "attachment": {"type": "string"}
            }
        },
        "attendance.DeviceLock": {
            "type": "object",
            "properties": {
                "checked_in": {"type": "boolean"},
                "checked_out": {"type": "boolean"}
            }
        },
        "attendance.EligibilityResponse": {
            "type": "object",
            "properties": {
                "can_check_in": {"type": "boolean"},
                "can_check_out": {"type": "boolean"},
                "departure_cutoff": {"type": "string"},
                "after_cutoff": {"type": "boolean"},
                "lock": {"$ref": "#/definitions/attendance.DeviceLock"},
                "today_status": {"type": "string"}
            }
        },
        "attendance.SubmissionResponse": {
            "type": "object",
            "properties": {
                "ref": {"type": "string"},
                "action": {"type": "string"},
                "kind": {"type": "string"},
                "accepted": {"type": "boolean"},
                "distance_m": {"type": "number"},
                "late": {"type": "boolean"},
                "lock": {"$ref": "#/definitions/attendance.DeviceLock"}
            }
        },
        "attendance.MonthlyRecap": {
            "type": "object",
            "properties": {
                "nip": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "present": {"type": "integer"},
                "sick": {"type": "integer"},
                "permission": {"type": "integer"},
                "absent": {"type": "integer"},
                "percentage": {"type": "integer"},
                "effective_days": {"type": "integer"}
            }
        },
        "attendance.RecapResponse": {
            "type": "object",
            "properties": {
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "effective_days": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/attendance.MonthlyRecap"}},
                "fetched_at": {"type": "string"}
            }
        },
        "attendance.DailyBoardResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "stats": {"type": "object"},
                "attendance": {"type": "array", "items": {"type": "object"}},
                "teaching": {"type": "array", "items": {"type": "object"}},
                "fetched_at": {"type": "string"}
            }
        },
        "attendance.RefreshResponse": {"type": "object"},
        "attendance.ProfileResponse": {"type": "object"}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Presensi API",
	Description:      "Attendance, teaching journal and leave submissions for school staff.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
