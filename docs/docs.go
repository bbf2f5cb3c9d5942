// Package docs registers the OpenAPI document of the order calculation API with swag.
// The annotations on the HTTP handlers describe the same endpoints; regenerate with
// `swag init -g cmd/server/main.go` after changing them.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/orders/{id}/difference": {
            "get": {
                "description": "Returns the order delta from the old to the new version, with return orders counted against the order",
                "produces": ["application/json"],
                "tags": ["order-calculations"],
                "summary": "Calculate the difference between two order versions",
                "operationId": "getOrderDifference",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "format": "uuid", "description": "Old version ID", "name": "old_version_id", "in": "query", "required": true},
                    {"type": "string", "format": "uuid", "description": "New version ID", "name": "new_version_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderDifferenceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/difference-cache": {
            "delete": {
                "description": "Removes every cached version difference of the order, on this instance and its peers",
                "tags": ["order-calculations"],
                "summary": "Drop cached differences of an order",
                "operationId": "invalidateOrderDifferenceCache",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/order-calculations/merge": {
            "post": {
                "description": "Adds the line items, totals and shipping costs of each order to the base order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["order-calculations"],
                "summary": "Merge orders",
                "operationId": "mergeOrders",
                "parameters": [
                    {"description": "Orders to merge", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MergeOrdersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CalculatableOrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/order-calculations/negate": {
            "post": {
                "description": "Flips the sign of every amount and quantity of the order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["order-calculations"],
                "summary": "Negate an order",
                "operationId": "negateOrder",
                "parameters": [
                    {"description": "Order to negate", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NegateOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CalculatableOrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system information",
                "operationId": "getSystemSystemInfo",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/system/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Ping the API",
                "operationId": "pingSystem",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string", "example": "ERR_NOT_FOUND"},
                        "message": {"type": "string"},
                        "request_id": {"type": "string"},
                        "timestamp": {"type": "string", "format": "date-time"},
                        "details": {
                            "type": "array",
                            "items": {
                                "type": "object",
                                "properties": {
                                    "field": {"type": "string"},
                                    "message": {"type": "string"}
                                }
                            }
                        }
                    }
                }
            }
        },
        "CalculatedTax": {
            "type": "object",
            "properties": {
                "tax": {"type": "string", "example": "1.9"},
                "tax_rate": {"type": "string", "example": "19"},
                "price": {"type": "string", "example": "10"}
            }
        },
        "TaxRule": {
            "type": "object",
            "properties": {
                "tax_rate": {"type": "string", "example": "19"},
                "percentage": {"type": "string", "example": "100"}
            }
        },
        "CalculatedPrice": {
            "type": "object",
            "properties": {
                "unit_price": {"type": "string"},
                "total_price": {"type": "string"},
                "quantity": {"type": "integer"},
                "calculated_taxes": {"type": "array", "items": {"$ref": "#/definitions/CalculatedTax"}},
                "tax_rules": {"type": "array", "items": {"$ref": "#/definitions/TaxRule"}},
                "reference_price": {
                    "type": "object",
                    "properties": {
                        "price": {"type": "string"},
                        "purchase_unit": {"type": "string"},
                        "reference_unit": {"type": "string"},
                        "unit_name": {"type": "string"}
                    }
                },
                "list_price": {
                    "type": "object",
                    "properties": {
                        "price": {"type": "string"},
                        "discount": {"type": "string"},
                        "percentage": {"type": "string"}
                    }
                }
            }
        },
        "CartPrice": {
            "type": "object",
            "required": ["tax_status"],
            "properties": {
                "net_price": {"type": "string"},
                "total_price": {"type": "string"},
                "position_price": {"type": "string"},
                "raw_total": {"type": "string"},
                "calculated_taxes": {"type": "array", "items": {"$ref": "#/definitions/CalculatedTax"}},
                "tax_rules": {"type": "array", "items": {"$ref": "#/definitions/TaxRule"}},
                "tax_status": {"type": "string", "enum": ["gross", "net", "tax-free"]}
            }
        },
        "LineItem": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "product_id": {"type": "string", "format": "uuid"},
                "product_version_id": {"type": "string", "format": "uuid"},
                "payload": {"type": "object", "additionalProperties": true},
                "label": {"type": "string"},
                "price": {"$ref": "#/definitions/CalculatedPrice"},
                "quantity": {"type": "integer"},
                "type": {"type": "string", "example": "product"},
                "position": {"type": "integer"},
                "single_originating_order_line_item_id": {"type": "string", "format": "uuid"}
            }
        },
        "CalculatableOrder": {
            "type": "object",
            "properties": {
                "line_items": {"type": "array", "items": {"$ref": "#/definitions/LineItem"}},
                "price": {"$ref": "#/definitions/CartPrice"},
                "shipping_costs": {"$ref": "#/definitions/CalculatedPrice"}
            }
        },
        "MergeOrdersRequest": {
            "type": "object",
            "required": ["orders"],
            "properties": {
                "base": {"$ref": "#/definitions/CalculatableOrder"},
                "orders": {"type": "array", "minItems": 1, "maxItems": 100, "items": {"$ref": "#/definitions/CalculatableOrder"}}
            }
        },
        "NegateOrderRequest": {
            "type": "object",
            "properties": {
                "order": {"$ref": "#/definitions/CalculatableOrder"}
            }
        },
        "CalculatableOrderResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {
                    "type": "object",
                    "properties": {
                        "order": {"$ref": "#/definitions/CalculatableOrder"},
                        "is_empty": {"type": "boolean"}
                    }
                }
            }
        },
        "OrderDifferenceResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {
                    "type": "object",
                    "properties": {
                        "order_id": {"type": "string", "format": "uuid"},
                        "old_version_id": {"type": "string", "format": "uuid"},
                        "new_version_id": {"type": "string", "format": "uuid"},
                        "difference": {"$ref": "#/definitions/CalculatableOrder"},
                        "is_empty": {"type": "boolean"},
                        "cached": {"type": "boolean"}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Order Calculation API",
	Description:      "Order difference, merge and negation calculations for versioned orders and their return orders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
