package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/user"
)

type onboardingApi struct {
	auth *authenticator
	svc  *onboarding.Service
}

func registerOnboardingAPI(g *echo.Group, jwt echo.MiddlewareFunc, gate capabilityGate, svc *onboarding.Service) {
	api := onboardingApi{auth: gate.auth, svc: svc}

	og := g.Group("/onboarding", jwt)
	og.GET("/me", api.retrieveMine, gate.require(user.CapVolunteerSelfService))
	og.GET("/volunteers", api.list, gate.require(user.CapViewOnboarding))
	og.GET("/volunteers/:id", api.retrieve, gate.require(user.CapViewOnboarding))
}

func (api *onboardingApi) retrieveMine(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.GetStatusForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting onboarding status")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *onboardingApi) list(ctx echo.Context) error {
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	statuses, err := api.svc.List(ctx.Request().Context(), page, ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "listing onboarding statuses")
	}
	return ctx.JSON(http.StatusOK, statuses)
}

func (api *onboardingApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetStatus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting onboarding status")
	}
	return ctx.JSON(http.StatusOK, st)
}
