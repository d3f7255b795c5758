package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-api/internal/core/ports"
)

// TaskHandler handles HTTP requests for the caller's tasks.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.service.Create(c.Request().Context(), user.ID, ports.CreateTaskInput{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaskResponse(task))
}

// List handles GET /tasks.
//
// @Summary      List own tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        completed  query     string  false  "true or false"
// @Param        limit      query     int     false  "Maximum number of tasks"
// @Param        skip       query     int     false  "Number of tasks to skip"
// @Param        sortBy     query     string  false  "field:asc or field:desc"
// @Success      200        {array}   taskResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.List(c.Request().Context(), user.ID, ports.ListTasksInput{
		Completed: c.QueryParam("completed"),
		Limit:     c.QueryParam("limit"),
		Skip:      c.QueryParam("skip"),
		SortBy:    c.QueryParam("sortBy"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// Get handles GET /tasks/:id.
//
// @Summary      Get one own task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	task, err := h.service.Get(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update handles PATCH /tasks/:id. Only description and completed may be
// present in the body.
//
// @Summary      Update one own task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Task ID"
// @Param        body  body      object  true  "Any of: description, completed"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	fields, err := bindFields(c)
	if err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), user.ID, c.Param("id"), fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete handles DELETE /tasks/:id and returns the removed task.
//
// @Summary      Delete one own task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  taskResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	task, err := h.service.Delete(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}
