// Package docs registers the OpenAPI document served at /swagger.
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
        "/resolve": {
            "get": {
                "produces": ["application/json"],
                "summary": "Resolve a free-text location",
                "parameters": [
                    {"type": "string", "description": "raw location", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "extra context, e.g. the event city", "name": "context", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.GeocodeResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/resolve/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Resolve a batch of event locations",
                "parameters": [
                    {"description": "events", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BatchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/positions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Resolve and cluster events into map positions",
                "parameters": [
                    {"description": "events", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.PositionsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/clusters": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Cluster already-resolved events",
                "parameters": [
                    {"description": "events with coordinates", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ClusterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ClusterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        }
    },
    "definitions": {
        "handler.Error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.BatchRequest": {
            "type": "object",
            "required": ["events"],
            "properties": {
                "events": {"type": "array", "maxItems": 500, "minItems": 1, "items": {"$ref": "#/definitions/models.EventLocationInput"}}
            }
        },
        "handler.BatchResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.GeocodeResult"}}
            }
        },
        "handler.PositionsResponse": {
            "type": "object",
            "properties": {
                "positions": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.EventPosition"}}
            }
        },
        "handler.ClusterRequest": {
            "type": "object",
            "required": ["events"],
            "properties": {
                "events": {"type": "array", "maxItems": 500, "minItems": 1, "items": {"$ref": "#/definitions/models.ResolvedEvent"}},
                "threshold_km": {"type": "number", "maximum": 50, "minimum": 0}
            }
        },
        "handler.ClusterResponse": {
            "type": "object",
            "properties": {
                "clusters": {"type": "array", "items": {"$ref": "#/definitions/models.VenueCluster"}}
            }
        },
        "models.Coordinate": {
            "type": "object",
            "properties": {"latitude": {"type": "number"}, "longitude": {"type": "number"}}
        },
        "models.EventLocationInput": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string"}, "raw_location": {"type": "string"}, "context": {"type": "string"}}
        },
        "models.GeocodeResult": {
            "type": "object",
            "properties": {
                "coordinate": {"$ref": "#/definitions/models.Coordinate"},
                "accuracy": {"type": "string", "enum": ["venue", "address", "neighborhood", "city", "region"]},
                "confidence": {"type": "number"},
                "source": {"type": "string", "enum": ["gazetteer", "remote"]},
                "label": {"type": "string"}
            }
        },
        "models.ResolvedEvent": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string"}, "coordinate": {"$ref": "#/definitions/models.Coordinate"}}
        },
        "models.EventPosition": {
            "type": "object",
            "properties": {
                "coordinate": {"$ref": "#/definitions/models.Coordinate"},
                "cluster_id": {"type": "string"},
                "accuracy": {"type": "string"}
            }
        },
        "models.VenueCluster": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "anchor": {"$ref": "#/definitions/models.Coordinate"},
                "member_ids": {"type": "array", "items": {"type": "string"}},
                "radius": {"type": "number"},
                "positions": {"type": "array", "items": {"$ref": "#/definitions/models.Coordinate"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Venue Geocoder API",
	Description:      "Resolves free-text event locations to coordinates and lays out co-located events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
