package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GO Reviser API",
        "description": "GATE CSE study tracker: syllabus, question bank and progress",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Accounts and sessions"},
        {"name": "Users", "description": "Profiles and subscriptions"},
        {"name": "Syllabus", "description": "Subjects, modules and topics"},
        {"name": "Categories", "description": "Question categories"},
        {"name": "Subcategories", "description": "Question subcategories"},
        {"name": "Tags", "description": "Question tags"},
        {"name": "ExamBranches", "description": "Exam branch registry"},
        {"name": "Questions", "description": "Question bank and bulk import"},
        {"name": "Progress", "description": "Per-user question and topic progress"}
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
        "/questions/create-bulk": {
            "post": {
                "tags": ["Questions"],
                "summary": "Bulk import questions",
                "responses": {
                    "201": {"description": "Import processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
