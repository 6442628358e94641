package http

import (
	"strings"

	"workflow_server/core/port/in"
	"workflow_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ProcessRequest is accepted as JSON or as a form post.
type ProcessRequest struct {
	EmailContent string `json:"email_content" form:"email_content"`
}

type ProcessHandler struct {
	pipeline in.PipelineService
}

func NewProcessHandler(pipeline in.PipelineService) *ProcessHandler {
	return &ProcessHandler{pipeline: pipeline}
}

// Register mounts the root route and the versioned one behind the given middleware.
func (h *ProcessHandler) Register(app *fiber.App, api fiber.Router, mw ...fiber.Handler) {
	handlers := append(mw, h.Process)
	app.Post("/process", handlers...)
	api.Post("/process", handlers...)
}

// Process runs the pipeline. Empty input is a 400; every other outcome is a 200
// whose envelope reports per-stage success.
func (h *ProcessHandler) Process(c *fiber.Ctx) error {
	var req ProcessRequest
	if len(c.Body()) > 0 || isForm(c) {
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponseWithCode(c, fiber.StatusBadRequest, apperr.CodeBadRequest,
				"request body must be JSON or form data with an email_content field")
		}
	}

	env := h.pipeline.Process(c.UserContext(), req.EmailContent)

	status := fiber.StatusOK
	if env.ErrorCode == apperr.CodeInvalidInput {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(env)
}

func isForm(c *fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}
