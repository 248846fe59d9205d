package handlers

import (
	"strconv"
	"vmtracker/internal/app"
	catalogController "vmtracker/internal/controllers/catalog"
	"vmtracker/internal/models"
	"vmtracker/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	Handler
	catalogController catalogController.CatalogControllerInterface
}

type ServiceSummary struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Cost        decimal.Decimal `json:"cost"`
	MinOdometer int64           `json:"minOdometer"`
	MaxOdometer int64           `json:"maxOdometer"`
}

func NewServiceSummary(service *models.MaintenanceService) ServiceSummary {
	return ServiceSummary{
		ID:          service.ID,
		Name:        service.ServiceName,
		Cost:        service.ServiceCost,
		MinOdometer: service.MinimumOdometer,
		MaxOdometer: service.MaximumOdometer,
	}
}

func NewServiceSummaries(services []*models.MaintenanceService) []ServiceSummary {
	summaries := make([]ServiceSummary, 0, len(services))
	for _, service := range services {
		summaries = append(summaries, NewServiceSummary(service))
	}
	return summaries
}

func NewCatalogHandler(app app.App, router fiber.Router) *CatalogHandler {
	log := logger.New("handlers").File("catalog_handler")
	return &CatalogHandler{
		catalogController: app.Controllers.Catalog,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CatalogHandler) Register() {
	auth := h.middleware.RequireAuth()
	admin := h.middleware.RequireAdmin()

	services := h.router.Group("/maintenance-services")
	services.Get("/", auth, h.listServices)
	services.Get("/recommended", auth, h.recommendServices)
	services.Get("/:id", auth, h.getService)
	services.Post("/", auth, admin, h.addService)
	services.Put("/:id", auth, admin, h.updateService)
	services.Delete("/:id", auth, admin, h.deleteService)
}

func (h *CatalogHandler) listServices(c *fiber.Ctx) error {
	log := h.log.Function("listServices").TraceFromContext(c.UserContext())

	services, err := h.catalogController.ListServices(c.UserContext())
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(NewServiceSummaries(services))
}

func (h *CatalogHandler) recommendServices(c *fiber.Ctx) error {
	log := h.log.Function("recommendServices").TraceFromContext(c.UserContext())

	reading, err := queryReading(c)
	if err != nil {
		return handleError(c, log, err)
	}

	services, err := h.catalogController.RecommendServices(c.UserContext(), reading)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(NewServiceSummaries(services))
}

func (h *CatalogHandler) getService(c *fiber.Ctx) error {
	log := h.log.Function("getService").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	service, err := h.catalogController.GetService(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Service not found.")
		}
		return handleError(c, log, err)
	}

	return c.JSON(NewServiceSummary(service))
}

func (h *CatalogHandler) addService(c *fiber.Ctx) error {
	log := h.log.Function("addService").TraceFromContext(c.UserContext())

	var req catalogController.ServiceRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	service, err := h.catalogController.AddService(c.UserContext(), &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Service added successfully",
		"service": fiber.Map{
			"id":   service.ID,
			"name": service.ServiceName,
			"cost": service.ServiceCost,
		},
	})
}

func (h *CatalogHandler) updateService(c *fiber.Ctx) error {
	log := h.log.Function("updateService").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req catalogController.ServiceRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	service, err := h.catalogController.UpdateService(c.UserContext(), id, &req)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Service not found.")
		}
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Service updated successfully.",
		"serviceId": service.ID,
	})
}

func (h *CatalogHandler) deleteService(c *fiber.Ctx) error {
	log := h.log.Function("deleteService").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	if err := h.catalogController.DeleteService(c.UserContext(), id); err != nil {
		switch {
		case errors.Is(err, types.ErrInUse):
			log.Info("service still referenced", "serviceID", id)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message":       "Cannot delete this service because it is associated with maintenance requests.",
				"detail":        "You must delete the associated maintenance requests first or remove this service from them.",
				"hasReferences": true,
			})
		case errors.Is(err, errors.NotFound):
			return errorResponse(c, fiber.StatusNotFound, "Service not found.")
		}
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "Service deleted successfully."})
}

func queryReading(c *fiber.Ctx) (int64, error) {
	raw := c.Query("reading")
	if raw == "" {
		return 0, errors.NotValidf("missing reading")
	}

	reading, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NotValidf("reading %q", raw)
	}
	return reading, nil
}
