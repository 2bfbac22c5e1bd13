// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["provisioning"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/handshake": {
            "get": {
                "produces": ["application/json"],
                "tags": ["provisioning"],
                "summary": "Device identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.DeviceInfo"}}
                }
            }
        },
        "/get_data": {
            "get": {
                "produces": ["application/json"],
                "tags": ["provisioning"],
                "summary": "Latest sensor snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SensorSnapshot"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "description": "Open until the first operator exists, unless a signup key is configured.",
                "summary": "Enrol an operator for this bin",
                "parameters": [
                    {"description": "Credentials and signup key", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.signUpRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in and receive a bearer token bound to this bin",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/calibrate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "moisture_dry/moisture_wet capture the current raw probe readings; ultrasonic stores empty_cm/full_cm and completes setup; confirm completes setup.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["calibration"],
                "summary": "Record a calibration step",
                "parameters": [
                    {"description": "Calibration step", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CalibrateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CalibrationProfile"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/reset": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Clears the stored calibration and returns to factory defaults; the pump stays off until setup completes again.",
                "produces": ["application/json"],
                "tags": ["calibration"],
                "summary": "Reset calibration",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CalibrationProfile"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/state": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Bin state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.BinState"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/records": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Records stored at the record cadence, filtered like /api/v1/logs.",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Historical records",
                "parameters": [
                    {"type": "string", "description": "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range; date-only treated as end of day", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, records", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Filter pump events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive (23:59:59.999999999Z).",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List logs",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["PUMP_ON", "PUMP_OFF", "INTERLOCK", "CALIBRATION", "REMOTE_FAULT", "BOOT"], "type": "string", "description": "Event type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket upgrade. Sends a hello envelope with the device identity, then a state envelope whenever a new snapshot is taken (polled every interval, default 1s, max 10s).",
                "tags": ["monitoring"],
                "summary": "Live state stream",
                "parameters": [
                    {"type": "string", "description": "Poll interval as a Go duration, e.g. 2s", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Poll interval in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.CalibrateRequest": {
            "type": "object",
            "required": ["target"],
            "properties": {
                "empty_cm": {"description": "Distance to the tank floor in cm (ultrasonic only)", "type": "number", "example": 14},
                "full_cm": {"description": "Distance to the full mark in cm (ultrasonic only)", "type": "number", "example": 4},
                "target": {"description": "Step to record. Allowed: moisture_dry, moisture_wet, ultrasonic, confirm", "type": "string", "example": "ultrasonic"}
            }
        },
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handlers.signUpRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "signup_key": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "models.CalibrationProfile": {
            "type": "object",
            "properties": {
                "air_raw_1": {"type": "integer"},
                "air_raw_2": {"type": "integer"},
                "setup_complete": {"type": "boolean"},
                "ultra_empty_cm": {"type": "number"},
                "ultra_full_cm": {"type": "number"},
                "water_raw_1": {"type": "integer"},
                "water_raw_2": {"type": "integer"}
            }
        },
        "models.PumpState": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "last_off_at": {"type": "string"},
                "reason": {"type": "string"},
                "started_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.SensorSnapshot": {
            "type": "object",
            "properties": {
                "moisture_1": {"type": "integer"},
                "moisture_2": {"type": "integer"},
                "ph": {"type": "number"},
                "taken_at": {"type": "string"},
                "tds": {"type": "number"},
                "temp_1": {"type": "number"},
                "temp_2": {"type": "number"},
                "ultra_distance_cm": {"type": "number"},
                "ultra_level_percent": {"type": "integer"},
                "water_level": {"type": "integer"}
            }
        },
        "service.BinState": {
            "type": "object",
            "properties": {
                "calibration": {"$ref": "#/definitions/models.CalibrationProfile"},
                "pump": {"$ref": "#/definitions/models.PumpState"},
                "snapshot": {"$ref": "#/definitions/models.SensorSnapshot"}
            }
        },
        "service.DeviceInfo": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "mdns_host": {"type": "string"},
                "name": {"type": "string"}
            }
        }
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vermicompost Bin Monitor API",
	Description:      "Provisioning, calibration and monitoring of a vermicompost bin and its watering pump.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
