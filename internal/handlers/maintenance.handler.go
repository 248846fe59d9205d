package handlers

import (
	"vmtracker/internal/app"
	maintenanceController "vmtracker/internal/controllers/maintenance"
	"vmtracker/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type MaintenanceHandler struct {
	Handler
	maintenanceController maintenanceController.MaintenanceControllerInterface
}

func NewMaintenanceHandler(app app.App, router fiber.Router) *MaintenanceHandler {
	log := logger.New("handlers").File("maintenance_handler")
	return &MaintenanceHandler{
		maintenanceController: app.Controllers.Maintenance,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *MaintenanceHandler) Register() {
	auth := h.middleware.RequireAuth()
	admin := h.middleware.RequireAdmin()

	maintenance := h.router.Group("/maintenance")
	maintenance.Post("/", auth, h.createRequest)
	maintenance.Get("/", auth, h.listUserRequests)
	maintenance.Put("/admin/completion/:id", auth, admin, h.setCompletionDate)
	maintenance.Put("/admin/note/:id", auth, admin, h.setAdminNotes)
	maintenance.Put("/admin/:id", auth, admin, h.setStatus)

	requests := h.router.Group("/admin/maintenance-requests")
	requests.Get("/", auth, admin, h.listAllRequests)
	requests.Get("/grouped", auth, admin, h.groupRequests)
}

func (h *MaintenanceHandler) createRequest(c *fiber.Ctx) error {
	log := h.log.Function("createRequest").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	var req maintenanceController.CreateRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	request, err := h.maintenanceController.CreateRequest(c.UserContext(), user, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Maintenance request submitted.",
		"request": request,
	})
}

func (h *MaintenanceHandler) listUserRequests(c *fiber.Ctx) error {
	log := h.log.Function("listUserRequests").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	requests, err := h.maintenanceController.ListUserRequests(c.UserContext(), user)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *MaintenanceHandler) listAllRequests(c *fiber.Ctx) error {
	log := h.log.Function("listAllRequests").TraceFromContext(c.UserContext())

	requests, err := h.maintenanceController.ListAllRequests(c.UserContext())
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *MaintenanceHandler) groupRequests(c *fiber.Ctx) error {
	log := h.log.Function("groupRequests").TraceFromContext(c.UserContext())

	groups, err := h.maintenanceController.GroupRequests(c.UserContext())
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"groups": groups})
}

func (h *MaintenanceHandler) setStatus(c *fiber.Ctx) error {
	log := h.log.Function("setStatus").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req maintenanceController.StatusRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	request, err := h.maintenanceController.SetStatus(c.UserContext(), id, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Status updated successfully.",
		"request": request,
	})
}

func (h *MaintenanceHandler) setCompletionDate(c *fiber.Ctx) error {
	log := h.log.Function("setCompletionDate").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req maintenanceController.CompletionDateRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	response, err := h.maintenanceController.SetCompletionDate(c.UserContext(), id, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Completion date updated successfully.",
		"requestId": response.RequestID,
		"date":      response.Date,
	})
}

func (h *MaintenanceHandler) setAdminNotes(c *fiber.Ctx) error {
	log := h.log.Function("setAdminNotes").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req maintenanceController.AdminNotesRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	request, err := h.maintenanceController.SetAdminNotes(c.UserContext(), id, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Admin notes saved.",
		"request": request,
	})
}
