package handlers

import (
	"vmtracker/internal/app"
	odometerController "vmtracker/internal/controllers/odometer"
	"vmtracker/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type OdometerHandler struct {
	Handler
	odometerController odometerController.OdometerControllerInterface
}

func NewOdometerHandler(app app.App, router fiber.Router) *OdometerHandler {
	log := logger.New("handlers").File("odometer_handler")
	return &OdometerHandler{
		odometerController: app.Controllers.Odometer,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *OdometerHandler) Register() {
	odometer := h.router.Group("/odometer")
	odometer.Post("/", h.middleware.RequireAuth(), h.submitReading)
	odometer.Get("/history", h.middleware.RequireAuth(), h.getHistory)
}

// submitReading records the reading and answers with the catalog entries
// whose range covers it.
func (h *OdometerHandler) submitReading(c *fiber.Ctx) error {
	log := h.log.Function("submitReading").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	var req odometerController.SubmitReadingRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	response, err := h.odometerController.SubmitReading(c.UserContext(), user, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":             "Odometer reading saved.",
		"reading":             response.Reading,
		"recommendedServices": NewServiceSummaries(response.RecommendedServices),
	})
}

func (h *OdometerHandler) getHistory(c *fiber.Ctx) error {
	log := h.log.Function("getHistory").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	history, err := h.odometerController.GetHistory(c.UserContext(), user)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"history": history})
}
