package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-widget/internal/present"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

var validate = validator.New()

// RegisterRoutes wires the widget handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *widget.Service) {
	v1 := app.Group("/api/v1")
	widgets := v1.Group("/widgets")

	widgets.Post("/", func(c *fiber.Ctx) error {
		var req mountRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		w := service.Mount(c.UserContext(), req.toMountRequest())
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":   w.ID,
			"plan": present.Build(w.Controller.State()),
		})
	})

	widgets.Get("/:id", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		return c.JSON(present.Build(w.Controller.State()))
	})

	widgets.Get("/:id/state", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		return c.JSON(w.Controller.State())
	})

	widgets.Post("/:id/view", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		return c.JSON(present.Build(w.Controller.ToggleView()))
	})

	widgets.Put("/:id/query", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		var req queryRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return c.JSON(present.Build(w.Controller.SetSearchQuery(req.Query)))
	})

	widgets.Post("/:id/search", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		var req searchRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Query != nil {
			w.Controller.SetSearchQuery(*req.Query)
		}
		w.Controller.SubmitSearch(c.UserContext())
		return c.JSON(present.Build(w.Controller.State()))
	})

	widgets.Post("/:id/location", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		w.Controller.ToggleLocationMode(c.UserContext())
		return c.JSON(present.Build(w.Controller.State()))
	})

	widgets.Put("/:id/position", func(c *fiber.Ctx) error {
		w, err := lookup(c, service)
		if err != nil {
			return err
		}
		var req positionRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Denied {
			w.Device.Deny(req.Reason)
		} else {
			w.Device.Report(weather.Coordinates{Lat: *req.Lat, Lon: *req.Lon})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	widgets.Delete("/:id", func(c *fiber.Ctx) error {
		if err := service.Unmount(c.Params("id")); err != nil {
			return notFoundOr(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// ErrorHandler renders every handler error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func lookup(c *fiber.Ctx, service *widget.Service) (*widget.Widget, error) {
	w, err := service.Get(c.Params("id"))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return w, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, widget.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "widget not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// bindJSON parses and validates a request body.
func bindJSON(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
	}
	if err := validate.Struct(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// mountRequest holds the body of POST /widgets.
type mountRequest struct {
	UseDeviceLocation *bool               `json:"useDeviceLocation"`
	Position          *coordinatesRequest `json:"position"`
	PositionDenied    bool                `json:"positionDenied"`
	DenyReason        string              `json:"denyReason" validate:"max=200"`
}

func (m mountRequest) toMountRequest() widget.MountRequest {
	req := widget.MountRequest{
		UseDeviceLocation: m.UseDeviceLocation,
		PositionDenied:    m.PositionDenied,
		DenyReason:        m.DenyReason,
	}
	if m.Position != nil {
		req.Position = &weather.Coordinates{Lat: *m.Position.Lat, Lon: *m.Position.Lon}
	}
	return req
}

type coordinatesRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// queryRequest holds the body of PUT /widgets/:id/query.
type queryRequest struct {
	Query string `json:"query" validate:"max=100"`
}

// searchRequest holds the optional body of POST /widgets/:id/search.
type searchRequest struct {
	Query *string `json:"query" validate:"omitempty,max=100"`
}

// positionRequest holds the body of PUT /widgets/:id/position. Either a
// position or a denial must be given.
type positionRequest struct {
	Lat    *float64 `json:"lat" validate:"required_without=Denied,omitempty,gte=-90,lte=90"`
	Lon    *float64 `json:"lon" validate:"required_without=Denied,omitempty,gte=-180,lte=180"`
	Denied bool     `json:"denied"`
	Reason string   `json:"reason" validate:"max=200"`
}
