package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/middleware"
	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/internal/service"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Auth        *service.AuthService
	Years       *service.AcademicYearService
	Tasks       *TaskHandler
	Reports     *ReportHandler
	Evidence    *EvidenceHandler
	Permissions *PermissionHandler
	Exports     *ExportHandler
	YearHandler *AcademicYearHandler
}

// Register mounts the API under /api/v1. Every route requires a valid
// bearer token and resolves the academic year scope before dispatch.
func Register(r *gin.Engine, deps RouterDeps) {
	// Signed-token downloads carry their own credential.
	r.GET("/files/:token", deps.Evidence.ResolveDownload)

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.Auth))
	api.Use(middleware.AcademicYear(deps.Years))

	api.GET("/academic-years", deps.YearHandler.List)
	api.GET("/academic-years/current", deps.YearHandler.Current)

	tasks := api.Group("/tasks")
	{
		tasks.POST("", deps.Tasks.Create)
		tasks.GET("", deps.Tasks.List)
		tasks.GET("/:taskId", deps.Tasks.Get)
		tasks.PUT("/:taskId", deps.Tasks.Update)
		tasks.DELETE("/:taskId", deps.Tasks.Delete)
		tasks.POST("/:taskId/submit", deps.Tasks.Submit)
		tasks.POST("/:taskId/review", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), deps.Tasks.Review)
	}

	reports := api.Group("/reports")
	{
		reports.POST("", deps.Reports.Create)
		reports.GET("", deps.Reports.List)
		reports.GET("/:reportId", deps.Reports.Get)
		reports.PUT("/:reportId", deps.Reports.Update)
		reports.DELETE("/:reportId", deps.Reports.Delete)
		reports.POST("/:reportId/publish", deps.Reports.Publish)
		reports.POST("/:reportId/unpublish", deps.Reports.Unpublish)
		reports.POST("/:reportId/make-public", deps.Reports.MakePublic)
		reports.POST("/:reportId/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), deps.Reports.Approve)
		reports.POST("/:reportId/reject", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), deps.Reports.Reject)
		reports.POST("/:reportId/assign-reporters", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), deps.Reports.AssignReporters)
		reports.POST("/:reportId/request-edit-permission", deps.Reports.RequestEditPermission)
		reports.GET("/:reportId/versions", deps.Reports.ListVersions)
		reports.GET("/:reportId/comments", deps.Reports.ListComments)
		reports.POST("/:reportId/comments", deps.Reports.AddComment)
		reports.POST("/:reportId/comments/:commentId/resolve", deps.Reports.ResolveComment)
		reports.GET("/:reportId/export", deps.Exports.ReportPDF)
	}

	api.GET("/exports/tasks", deps.Exports.TasksCSV)

	evidence := api.Group("/evidences")
	{
		evidence.POST("", deps.Evidence.Create)
		evidence.DELETE("/:evidenceId", deps.Evidence.Delete)
		evidence.POST("/:evidenceId/file", deps.Evidence.Upload)
		evidence.GET("/:evidenceId/download", deps.Evidence.Download)
	}

	criteria := api.Group("/criteria")
	{
		criteria.GET("/:criteriaId/tasks", deps.Tasks.ListByCriteria)
		criteria.GET("/:criteriaId/evidences", deps.Evidence.ListByCriteria)
	}

	permissions := api.Group("/permissions")
	{
		permissions.GET("/report-types", deps.Permissions.AccessibleReportTypes)
		permissions.GET("/standards", deps.Permissions.AccessibleStandards)
		permissions.GET("/criteria", deps.Permissions.AccessibleCriteria)
		permissions.GET("/standards/:standardId/can-edit", deps.Permissions.CanEditStandard)
		permissions.GET("/criteria/:criteriaId/can-edit", deps.Permissions.CanEditCriteria)
	}
}
