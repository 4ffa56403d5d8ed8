package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/api/transport"
	"github.com/OmChannawar/Listify/pkg/httpcontext"
	taskUC "github.com/OmChannawar/Listify/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc  *taskUC.UseCase
	loc *time.Location
	now func() time.Time
}

// NewTaskHandler builds the task endpoints. loc interprets datetime-local
// deadlines.
func NewTaskHandler(uc *taskUC.UseCase, loc *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		loc:         loc,
		now:         time.Now,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param completed query bool false "only completed (true) or open (false) tasks"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var completed *bool
	if raw := string(ctx.QueryArgs().Peek("completed")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondInvalid(ctx, "completed must be a boolean")
			return
		}
		completed = &v
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, userID, completed)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deadline, err := transport.ParseDeadline(req.Deadline, h.loc)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.uc.CreateTask(stdCtx, userID, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Deadline:    deadline,
		Subtasks:    transport.ToSubtasks(req.Subtasks),
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch := taskUC.Patch{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
	}
	if req.Deadline != nil {
		deadline, err := transport.ParseDeadline(*req.Deadline, h.loc)
		if err != nil {
			h.respondError(stdCtx, ctx, err)
			return
		}
		// An explicit empty deadline still counts as an attempt to change it.
		if deadline == nil {
			deadline = &time.Time{}
		}
		patch.Deadline = deadline
	}
	if req.Subtasks != nil {
		subtasks := transport.ToSubtasks(*req.Subtasks)
		patch.Subtasks = &subtasks
	}

	updated, err := h.uc.UpdateTask(stdCtx, userID, pathParam(ctx, "id"), patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, userID, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"id": id})
}

// @Summary Complete task
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.CompleteTask(stdCtx, userID, pathParam(ctx, "id"), h.now())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Toggle subtask
// @Tags tasks
// @Router /api/v1/tasks/{id}/subtasks/{subtaskId}/toggle [post]
func (h *TaskHandler) ToggleSubtask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.ToggleSubtask(stdCtx, userID, pathParam(ctx, "id"), pathParam(ctx, "subtaskId"))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}
