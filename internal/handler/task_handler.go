package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/service"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/response"
)

// TaskHandler exposes the task lifecycle over HTTP.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) Create(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload"))
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), year, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "task created", task)
}

func (h *TaskHandler) List(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query dto.TaskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task filter"))
		return
	}

	tasks, total, err := h.tasks.List(c.Request.Context(), year, query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, pageSize := normalisePage(query.Page, query.PageSize)
	response.JSON(c, http.StatusOK, tasks, &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	})
}

func (h *TaskHandler) Get(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), year, c.Param("taskId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload"))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), year, c.Param("taskId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "task updated", task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), year, c.Param("taskId"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "task deleted", nil)
}

func (h *TaskHandler) Submit(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := h.tasks.SubmitReport(c.Request.Context(), year, c.Param("taskId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "task submitted", task)
}

func (h *TaskHandler) Review(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ReviewTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload"))
		return
	}

	task, err := h.tasks.ReviewReport(c.Request.Context(), year, c.Param("taskId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "task reviewed", task)
}

func (h *TaskHandler) ListByCriteria(c *gin.Context) {
	year, err := yearFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	tasks, err := h.tasks.ListByCriteria(c.Request.Context(), year, c.Param("criteriaId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", tasks)
}
