// Package docs holds the Swagger document served at /swagger. It is maintained by hand alongside the
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/payments/idempotency/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Stored outcome for an idempotency key",
                "parameters": [
                    {"type": "string", "description": "idempotency key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.IdempotencyRecordResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/pkg.HTTPError"}}
                }
            }
        },
        "/payments/providers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Configured providers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.ProvidersResponse"}}
                }
            }
        },
        "/payments/{provider}": {
            "post": {
                "description": "Submits a charge once per idempotency key. Replays return the stored outcome.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Charge through a provider",
                "parameters": [
                    {"type": "string", "description": "paddle, razorpay, stripe or mercadopago", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "used when the body has no idempotency_key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "charge", "name": "payment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.PaymentCreateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.PaymentResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/response.PaymentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/pkg.HTTPError"}}
                }
            }
        },
        "/payments/{provider}/transactions/{id}": {
            "get": {
                "description": "Reads the transaction from the provider. The stored idempotency outcome is left unchanged.",
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Current provider status of a transaction",
                "parameters": [
                    {"type": "string", "description": "paddle, razorpay, stripe or mercadopago", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "provider transaction id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.PaymentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/pkg.HTTPError"}}
                }
            }
        },
        "/webhooks/{provider}": {
            "post": {
                "description": "Verifies the provider signature over the raw body and publishes the normalized event.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Provider webhook",
                "parameters": [
                    {"type": "string", "description": "paddle, razorpay, stripe or mercadopago", "name": "provider", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.WebhookEventResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/pkg.HTTPError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/pkg.HTTPError"}}
                }
            }
        }
    },
    "definitions": {
        "pkg.HTTPError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {}},
                "message": {"type": "string"}
            }
        },
        "request.PaymentCreateRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer", "example": 1999},
                "currency": {"type": "string", "example": "usd"},
                "idempotency_key": {"type": "string", "example": "order-42-attempt-1"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "response.FailureResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "provider": {"type": "string"},
                "provider_code": {"type": "string"},
                "retriable": {"type": "boolean"}
            }
        },
        "response.IdempotencyRecordResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "failure": {"$ref": "#/definitions/response.FailureResponse"},
                "key": {"type": "string"},
                "provider": {"type": "string"},
                "result": {"$ref": "#/definitions/response.PaymentResponse"}
            }
        },
        "response.PaymentResponse": {
            "type": "object",
            "properties": {
                "idempotency_key": {"type": "string"},
                "provider": {"type": "string", "example": "stripe"},
                "provider_transaction_id": {"type": "string", "example": "pi_3Nk"},
                "raw_provider_payload": {"type": "object"},
                "status": {"type": "string", "example": "succeeded"}
            }
        },
        "response.ProvidersResponse": {
            "type": "object",
            "properties": {
                "providers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "response.WebhookEventResponse": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "event_type": {"type": "string"},
                "provider": {"type": "string"},
                "provider_transaction_id": {"type": "string"},
                "received_at": {"type": "string"},
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Payment Binder API",
	Description:      "One call surface over Paddle, Razorpay, Stripe and Mercado Pago with idempotent dispatch and retries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
