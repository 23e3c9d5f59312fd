package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lumus API",
        "description": "Lab scheduling and enrollment backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and account management"},
        {"name": "Users", "description": "User administration"},
        {"name": "Courses", "description": "Courses and enrollment"},
        {"name": "Students", "description": "Student records"},
        {"name": "Labs", "description": "Laboratory registry"},
        {"name": "Schedules", "description": "Lab bookings and conflict checks"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens and permissions"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email taken"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Expired or revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile and capabilities",
                "responses": {
                    "200": {"description": "Profile"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Users"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "Courses with enrollment counts"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Code taken"}
                }
            }
        },
        "/courses/{id}/enroll": {
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll student",
                "responses": {
                    "204": {"description": "Enrolled"},
                    "409": {"description": "Capacity exceeded or already enrolled"}
                }
            }
        },
        "/courses/transfer": {
            "post": {
                "tags": ["Courses"],
                "summary": "Transfer student between courses",
                "responses": {
                    "204": {"description": "Transferred"},
                    "409": {"description": "Target course full"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"description": "Students"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email or registration taken"}
                }
            }
        },
        "/labs": {
            "get": {
                "tags": ["Labs"],
                "summary": "List labs",
                "responses": {
                    "200": {"description": "Labs"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List bookings",
                "responses": {
                    "200": {"description": "Bookings"}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Book a lab",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Slot conflict"}
                }
            }
        },
        "/schedules/check-conflict": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Probe for slot conflicts",
                "responses": {
                    "200": {"description": "Conflict verdict"}
                }
            }
        },
        "/schedules/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export booking sheet as CSV or PDF",
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
