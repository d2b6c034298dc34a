package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Accreditation Self-Assessment API",
        "description": "Task-scoped permissions, report lifecycle and evidence management for institutional accreditation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Academic Years", "description": "Year scoping"},
        {"name": "Tasks", "description": "Writing assignments and their lifecycle"},
        {"name": "Reports", "description": "Self-assessment reports, versions and review"},
        {"name": "Evidences", "description": "Supporting documents under criteria"},
        {"name": "Permissions", "description": "Resolved scope of the caller"},
        {"name": "Exports", "description": "CSV and PDF downloads"}
    ],
    "parameters": {
        "academicYear": {
            "name": "X-Academic-Year-Id",
            "in": "header",
            "type": "string",
            "description": "Academic year scope; defaults to the current year"
        }
    },
    "paths": {
        "/academic-years": {
            "get": {
                "tags": ["Academic Years"],
                "summary": "List academic years",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/academic-years/current": {
            "get": {
                "tags": ["Academic Years"],
                "summary": "Resolved academic year for this request",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks visible to the caller",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a writing assignment",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "No assignment authority at the requested scope"}
                }
            }
        },
        "/tasks/{taskId}": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Fetch one task",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found in year"}}
            },
            "put": {
                "tags": ["Tasks"],
                "summary": "Update a task",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Illegal status transition"}}
            },
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete a task and its reports",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tasks/{taskId}/submit": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Submit the task's report for review",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Not submittable from current status"}}
            }
        },
        "/tasks/{taskId}/review": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Complete or reject a submitted task",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin or manager only"}}
            }
        },
        "/reports": {
            "get": {
                "tags": ["Reports"],
                "summary": "List reports visible to the caller",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Reports"],
                "summary": "Create a report",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/reports/{reportId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Fetch one report",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Reports"],
                "summary": "Edit report content",
                "description": "The payload must echo the updateSeq the client read; a stale value is rejected with 400.",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Concurrent edit detected"}}
            },
            "delete": {
                "tags": ["Reports"],
                "summary": "Delete a report",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Public, approved and published reports cannot be deleted"}}
            }
        },
        "/reports/{reportId}/approve": {
            "post": {
                "tags": ["Reports"],
                "summary": "Approve a report, cascading to its evidence",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin or manager only"}}
            }
        },
        "/reports/{reportId}/reject": {
            "post": {
                "tags": ["Reports"],
                "summary": "Reject a report with feedback",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports/{reportId}/versions": {
            "get": {
                "tags": ["Reports"],
                "summary": "Version history",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports/{reportId}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the report as PDF",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/exports/tasks": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the caller's task listing as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/evidences": {
            "post": {
                "tags": ["Evidences"],
                "summary": "Register an evidence record under a criterion",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/evidences/{evidenceId}/file": {
            "post": {
                "tags": ["Evidences"],
                "summary": "Upload the evidence file",
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/evidences/{evidenceId}/download": {
            "get": {
                "tags": ["Evidences"],
                "summary": "Issue a signed download link",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/permissions/report-types": {
            "get": {
                "tags": ["Permissions"],
                "summary": "Report types the caller may create",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/permissions/standards": {
            "get": {
                "tags": ["Permissions"],
                "summary": "Standard ids the caller may edit",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/permissions/criteria": {
            "get": {
                "tags": ["Permissions"],
                "summary": "Criteria ids the caller may edit",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
