package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
)

type rsvpApi struct {
	auth     *authenticator
	svc      *rsvp.Service
	validate *validator.Validate
}

func registerRsvpAPI(g *echo.Group, jwt echo.MiddlewareFunc, gate capabilityGate, svc *rsvp.Service, validate *validator.Validate) {
	api := rsvpApi{auth: gate.auth, svc: svc, validate: validate}

	rg := g.Group("/rsvps", jwt)
	rg.GET("/me", api.listMine, gate.require(user.CapVolunteerSelfService))
	rg.PUT("/:id/status", api.updateStatus, gate.require(user.CapViewRsvps))
}

func (api *rsvpApi) listMine(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	rsvps, err := api.svc.ListForVolunteer(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing volunteer rsvps")
	}
	return ctx.JSON(http.StatusOK, rsvps)
}

func (api *rsvpApi) updateStatus(ctx echo.Context) error {
	var data rsvp.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	r, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating rsvp status")
	}
	return ctx.JSON(http.StatusOK, r)
}
