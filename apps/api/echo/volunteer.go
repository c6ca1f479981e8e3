package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/hours"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
)

type volunteerApi struct {
	auth     *authenticator
	svc      *volunteer.Service
	hoursSvc *hours.Service
	validate *validator.Validate
}

func registerVolunteerAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	gate capabilityGate,
	svc *volunteer.Service,
	hoursSvc *hours.Service,
	validate *validator.Validate,
) {
	api := volunteerApi{
		auth:     gate.auth,
		svc:      svc,
		hoursSvc: hoursSvc,
		validate: validate,
	}

	vg := g.Group("/volunteers", jwt)
	vg.GET("", api.query, gate.require(user.CapViewOnboarding))
	vg.GET("/me", api.retrieveMe, gate.require(user.CapVolunteerSelfService))
	vg.PUT("/me", api.updateMe, gate.require(user.CapVolunteerSelfService))
	vg.GET("/:id/hours", api.listHours, gate.require(user.CapVerifyHours))
}

func (api *volunteerApi) query(ctx echo.Context) error {
	var filter volunteer.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}

	vols, err := api.svc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying volunteers")
	}
	return ctx.JSON(http.StatusOK, vols)
}

func (api *volunteerApi) retrieveMe(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	vol, err := api.svc.GetByUserID(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding volunteer by user ID")
	}
	return ctx.JSON(http.StatusOK, vol)
}

func (api *volunteerApi) updateMe(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	var data volunteer.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	vol, err := api.svc.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, vol)
}

func (api *volunteerApi) listHours(ctx echo.Context) error {
	verified, err := boolParam(ctx, "verified")
	if err != nil {
		return err
	}
	entries, err := api.hoursSvc.ListForVolunteer(ctx.Request().Context(), ctx.Param("id"), verified)
	if err != nil {
		return errors.Wrap(err, "listing volunteer hours")
	}
	return ctx.JSON(http.StatusOK, entries)
}
