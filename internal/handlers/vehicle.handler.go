package handlers

import (
	"vmtracker/internal/app"
	vehicleController "vmtracker/internal/controllers/vehicles"
	"vmtracker/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type VehicleHandler struct {
	Handler
	vehicleController vehicleController.VehicleControllerInterface
}

func NewVehicleHandler(app app.App, router fiber.Router) *VehicleHandler {
	log := logger.New("handlers").File("vehicle_handler")
	return &VehicleHandler{
		vehicleController: app.Controllers.Vehicle,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *VehicleHandler) Register() {
	auth := h.middleware.RequireAuth()
	admin := h.middleware.RequireAdmin()

	vehicles := h.router.Group("/vehicles")
	vehicles.Get("/", auth, h.listVehicles)
	vehicles.Post("/", auth, h.createVehicle)
	vehicles.Get("/admin", auth, admin, h.listAllVehicles)
	vehicles.Put("/admin/update-status/:id", auth, admin, h.changeStatus)
	vehicles.Put("/:id", auth, h.updateVehicle)
	vehicles.Delete("/:id", auth, h.deleteVehicle)
}

func (h *VehicleHandler) listVehicles(c *fiber.Ctx) error {
	log := h.log.Function("listVehicles").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	vehicles, err := h.vehicleController.ListUserVehicles(c.UserContext(), user)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"vehicles": vehicles})
}

func (h *VehicleHandler) listAllVehicles(c *fiber.Ctx) error {
	log := h.log.Function("listAllVehicles").TraceFromContext(c.UserContext())

	vehicles, err := h.vehicleController.ListAllVehicles(c.UserContext())
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"vehicles": vehicles})
}

func (h *VehicleHandler) createVehicle(c *fiber.Ctx) error {
	log := h.log.Function("createVehicle").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	var req vehicleController.VehicleRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	vehicle, err := h.vehicleController.CreateVehicle(c.UserContext(), user, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Vehicle registered successfully.",
		"vehicle": vehicle,
	})
}

func (h *VehicleHandler) updateVehicle(c *fiber.Ctx) error {
	log := h.log.Function("updateVehicle").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req vehicleController.VehicleRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	vehicle, err := h.vehicleController.UpdateVehicle(c.UserContext(), user, id, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Vehicle updated successfully.",
		"vehicle": vehicle,
	})
}

func (h *VehicleHandler) deleteVehicle(c *fiber.Ctx) error {
	log := h.log.Function("deleteVehicle").TraceFromContext(c.UserContext())
	user := middleware.GetUser(c)

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	if err := h.vehicleController.DeleteVehicle(c.UserContext(), user, id); err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "Vehicle deleted successfully."})
}

func (h *VehicleHandler) changeStatus(c *fiber.Ctx) error {
	log := h.log.Function("changeStatus").TraceFromContext(c.UserContext())

	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, log, err)
	}

	var req vehicleController.StatusRequest
	if err := parseBody(c, log, &req); err != nil {
		return handleError(c, log, err)
	}

	vehicle, err := h.vehicleController.ChangeVehicleStatus(c.UserContext(), id, &req)
	if err != nil {
		return handleError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Vehicle status updated.",
		"vehicle": vehicle,
	})
}
