package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/hours"
	"github.com/trezcool/bolingo/core/user"
)

type hoursApi struct {
	auth     *authenticator
	svc      *hours.Service
	validate *validator.Validate
}

func registerHoursAPI(g *echo.Group, jwt echo.MiddlewareFunc, gate capabilityGate, svc *hours.Service, validate *validator.Validate) {
	api := hoursApi{auth: gate.auth, svc: svc, validate: validate}
	selfService := gate.require(user.CapVolunteerSelfService)
	verify := gate.require(user.CapVerifyHours)

	hg := g.Group("/hours", jwt)
	hg.POST("", api.log, selfService)
	hg.GET("/me", api.listMine, selfService)
	hg.GET("/me/summary", api.summary, selfService)
	hg.PUT("/:id", api.update, selfService)
	hg.DELETE("/:id", api.destroy, selfService)

	hg.GET("/pending", api.listPending, verify)
	hg.POST("/:id/verify", api.verify, verify)
}

func (api *hoursApi) log(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	var data hours.NewHours
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHours")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	h, err := api.svc.Log(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "logging hours")
	}
	return ctx.JSON(http.StatusCreated, h)
}

func (api *hoursApi) listMine(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	verified, err := boolParam(ctx, "verified")
	if err != nil {
		return err
	}

	entries, err := api.svc.ListForUser(ctx.Request().Context(), usr.ID, verified)
	if err != nil {
		return errors.Wrap(err, "listing hours")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *hoursApi) summary(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.SummaryForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing hours")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *hoursApi) update(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	var data hours.UpdateHours
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHours")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	h, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating hours")
	}
	return ctx.JSON(http.StatusOK, h)
}

func (api *hoursApi) destroy(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting hours")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *hoursApi) listPending(ctx echo.Context) error {
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.ListPending(ctx.Request().Context(), page)
	if err != nil {
		return errors.Wrap(err, "listing pending hours")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *hoursApi) verify(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	h, err := api.svc.Verify(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "verifying hours")
	}
	return ctx.JSON(http.StatusOK, h)
}
