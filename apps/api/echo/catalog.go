package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
)

// catalogApi serves one catalog: the entries, the volunteer profile assignments and the opportunity requirements.
type catalogApi struct {
	auth     *authenticator
	svc      *catalog.Service
	volSvc   *volunteer.Service
	validate *validator.Validate
}

func registerCatalogAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	gate capabilityGate,
	svc *catalog.Service,
	volSvc *volunteer.Service,
	validate *validator.Validate,
) {
	api := catalogApi{
		auth:     gate.auth,
		svc:      svc,
		volSvc:   volSvc,
		validate: validate,
	}
	path := "/" + string(svc.Kind()) + "s" // skills, interests
	manage := gate.require(user.CapManageCatalog)
	selfService := gate.require(user.CapVolunteerSelfService)
	manageOpps := gate.require(user.CapManageOpportunities)

	cg := g.Group(path, jwt)
	cg.GET("", api.list, gate.authed())
	cg.POST("", api.create, manage)
	cg.GET("/:id", api.retrieve, gate.authed())
	cg.PUT("/:id", api.update, manage)
	cg.DELETE("/:id", api.destroy, manage)

	// volunteer profile
	vg := g.Group("/volunteers/me"+path, jwt, selfService)
	vg.GET("", api.listMine)
	vg.POST("/:id", api.assignToMe)
	vg.DELETE("/:id", api.unassignFromMe)

	// opportunity requirements
	g.GET("/opportunities/:id"+path, api.listForOpportunity, jwt, gate.authed())
	g.POST("/opportunities/:id"+path+"/:entryId", api.assignToOpportunity, jwt, manageOpps)
	g.DELETE("/opportunities/:id"+path+"/:entryId", api.unassignFromOpportunity, jwt, manageOpps)
}

func (api *catalogApi) list(ctx echo.Context) error {
	entries, err := api.svc.List(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "listing entries")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *catalogApi) create(ctx echo.Context) error {
	var data catalog.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *catalogApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding entry by ID")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *catalogApi) update(ctx echo.Context) error {
	var data catalog.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *catalogApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// contextVolunteer loads the profile of the authenticated volunteer.
func (api *catalogApi) contextVolunteer(ctx echo.Context) (volunteer.Volunteer, error) {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return volunteer.Volunteer{}, err
	}
	vol, err := api.volSvc.GetByUserID(ctx.Request().Context(), usr.ID)
	return vol, errors.Wrap(err, "finding volunteer by user ID")
}

func (api *catalogApi) listMine(ctx echo.Context) error {
	vol, err := api.contextVolunteer(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.ListForVolunteer(ctx.Request().Context(), vol.ID)
	if err != nil {
		return errors.Wrap(err, "listing volunteer entries")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *catalogApi) assignToMe(ctx echo.Context) error {
	vol, err := api.contextVolunteer(ctx)
	if err != nil {
		return err
	}

	var data catalog.Assignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assignment")
	}
	if err = api.svc.AssignToVolunteer(ctx.Request().Context(), vol.ID, ctx.Param("id"), data.Proficiency); err != nil {
		return errors.Wrap(err, "assigning entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) unassignFromMe(ctx echo.Context) error {
	vol, err := api.contextVolunteer(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.UnassignFromVolunteer(ctx.Request().Context(), vol.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "unassigning entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) listForOpportunity(ctx echo.Context) error {
	entries, err := api.svc.ListForOpportunity(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing opportunity entries")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *catalogApi) assignToOpportunity(ctx echo.Context) error {
	if err := api.svc.AssignToOpportunity(ctx.Request().Context(), ctx.Param("id"), ctx.Param("entryId")); err != nil {
		return errors.Wrap(err, "assigning entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) unassignFromOpportunity(ctx echo.Context) error {
	if err := api.svc.UnassignFromOpportunity(ctx.Request().Context(), ctx.Param("id"), ctx.Param("entryId")); err != nil {
		return errors.Wrap(err, "unassigning entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
