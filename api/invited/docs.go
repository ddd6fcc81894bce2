// Package invited registers the OpenAPI document served at /swagger/.
// The template is maintained by hand; regenerate with `swag init` when
// the handler annotations change.
package invited

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    },
                    "503": {
                        "description": "service not ready",
                        "schema": {"$ref": "#/definitions/http.HealthResponse"}
                    }
                }
            }
        },
        "/v1/bootstrap": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Bootstrap First Account",
                "parameters": [
                    {
                        "description": "Initial staff account and groups",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.BootstrapRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/http.BootstrapResponse"}
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "409": {
                        "description": "Already bootstrapped",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/sessions": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Login",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.LoginResponse"}
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/invitations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "List Invitations",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.InvitationListResponse"}
                    },
                    "403": {
                        "description": "Staff only",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Issue Invitation",
                "parameters": [
                    {
                        "description": "Recipient email and optional group ids",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.InviteRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/http.InviteResponse"}
                    },
                    "403": {
                        "description": "Quota exceeded",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "409": {
                        "description": "Already invited or registered",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/invitations/remaining": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Remaining Invitations",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.RemainingResponse"}
                    }
                }
            }
        },
        "/v1/invitations/purge": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Purge Expired Invitations",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.PurgeResponse"}
                    },
                    "403": {
                        "description": "Staff only",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/invitations/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Preview Invitation",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.PreviewResponse"}
                    },
                    "400": {
                        "description": "Unknown or used code",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "410": {
                        "description": "Expired",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/invitations/{code}/redeem": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Invitations"],
                "summary": "Redeem Invitation",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true},
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "Account created and logged in",
                        "schema": {"$ref": "#/definitions/http.RedeemResponse"}
                    },
                    "400": {
                        "description": "Unknown or used code",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "409": {
                        "description": "Username taken",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    },
                    "410": {
                        "description": "Expired",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Invited Registration Service API",
	Description:      "Invitation-gated account registration: existing users invite an email address, the recipient redeems the emailed code to create an account.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
