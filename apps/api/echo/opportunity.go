package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/services/metrics"
)

// defaultOccurrenceWindow is expanded when the occurrences query has no "to".
const defaultOccurrenceWindow = 90 * 24 * time.Hour

var errOppNotFoundInCtx = errors.New("opportunity object not found in echo.Context")

type opportunityApi struct {
	auth     *authenticator
	svc      *opportunity.Service
	rsvpSvc  *rsvp.Service
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func registerOpportunityAPI(
	g *echo.Group,
	jwt, rateLimit echo.MiddlewareFunc,
	gate capabilityGate,
	svc *opportunity.Service,
	rsvpSvc *rsvp.Service,
	m *metrics.Metrics,
	validate *validator.Validate,
) {
	api := opportunityApi{
		auth:     gate.auth,
		svc:      svc,
		rsvpSvc:  rsvpSvc,
		metrics:  m,
		validate: validate,
	}
	manage := gate.require(user.CapManageOpportunities)
	selfService := gate.require(user.CapVolunteerSelfService)

	og := g.Group("/opportunities", jwt)
	og.GET("/open", api.listOpen, gate.authed())
	og.GET("", api.query, manage)
	og.POST("", api.create, manage)

	// detail endpoints
	obj := api.objectMiddleware
	og.GET("/:id", api.retrieve, gate.authed(), obj)
	og.PUT("/:id", api.update, manage, obj)
	og.DELETE("/:id", api.destroy, manage, obj)
	og.PUT("/:id/status", api.setStatus, manage, obj)
	og.GET("/:id/occurrences", api.occurrences, gate.authed(), obj)
	og.GET("/:id/rsvps", api.listRsvps, gate.require(user.CapViewRsvps))
	og.POST("/:id/rsvp", api.createRsvp, selfService, rateLimit)
	og.DELETE("/:id/rsvp", api.cancelRsvp, selfService)
}

func (api *opportunityApi) listOpen(ctx echo.Context) error {
	var filter opportunity.OpenFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to OpenFilter")
	}

	listings, err := api.svc.ListOpen(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing open opportunities")
	}
	return ctx.JSON(http.StatusOK, listings)
}

func (api *opportunityApi) query(ctx echo.Context) error {
	var filter opportunity.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var err error
	if filter.From, err = timeParam(ctx, "from"); err != nil {
		return err
	}
	if filter.To, err = timeParam(ctx, "to"); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	opps, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying opportunities")
	}
	if opps == nil {
		opps = []opportunity.Opportunity{}
	}
	return ctx.JSON(http.StatusOK, opps)
}

func (api *opportunityApi) create(ctx echo.Context) error {
	var data opportunity.NewOpportunity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOpportunity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	opp, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating opportunity")
	}
	return ctx.JSON(http.StatusCreated, opp)
}

func (api *opportunityApi) retrieve(ctx echo.Context) error {
	opp, ok := ctx.Get("object").(opportunity.Opportunity)
	if !ok {
		return errors.Wrap(errOppNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, opp)
}

func (api *opportunityApi) update(ctx echo.Context) error {
	opp, ok := ctx.Get("object").(opportunity.Opportunity)
	if !ok {
		return errors.Wrap(errOppNotFoundInCtx, "retrieving object from context")
	}

	var data opportunity.UpdateOpportunity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOpportunity")
	}
	if err := data.Validate(opp, api.validate); err != nil {
		return err
	}

	opp, err := api.svc.Update(ctx.Request().Context(), opp, data)
	if err != nil {
		return errors.Wrap(err, "updating opportunity")
	}
	return ctx.JSON(http.StatusOK, opp)
}

func (api *opportunityApi) setStatus(ctx echo.Context) error {
	opp, ok := ctx.Get("object").(opportunity.Opportunity)
	if !ok {
		return errors.Wrap(errOppNotFoundInCtx, "retrieving object from context")
	}

	var data opportunity.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	opp, err := api.svc.SetStatus(ctx.Request().Context(), opp, data.Status)
	if err != nil {
		return errors.Wrap(err, "setting opportunity status")
	}
	return ctx.JSON(http.StatusOK, opp)
}

func (api *opportunityApi) destroy(ctx echo.Context) error {
	opp, ok := ctx.Get("object").(opportunity.Opportunity)
	if !ok {
		return errors.Wrap(errOppNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), opp.ID); err != nil {
		return errors.Wrap(err, "deleting opportunity")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *opportunityApi) occurrences(ctx echo.Context) error {
	opp, ok := ctx.Get("object").(opportunity.Opportunity)
	if !ok {
		return errors.Wrap(errOppNotFoundInCtx, "retrieving object from context")
	}

	from, err := timeParam(ctx, "from")
	if err != nil {
		return err
	}
	to, err := timeParam(ctx, "to")
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = nowFunc().UTC()
	}
	if to.IsZero() {
		to = from.Add(defaultOccurrenceWindow)
	}

	occs, err := opportunity.Occurrences(opp, from, to)
	if err != nil {
		return errors.Wrap(err, "expanding occurrences")
	}
	return ctx.JSON(http.StatusOK, occs)
}

func (api *opportunityApi) listRsvps(ctx echo.Context) error {
	rsvps, err := api.svc.GetEventRsvps(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing event rsvps")
	}
	return ctx.JSON(http.StatusOK, rsvps)
}

func (api *opportunityApi) createRsvp(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	r, err := api.rsvpSvc.Create(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if api.metrics != nil {
		api.metrics.RsvpAttempt(rsvpOutcome(err))
	}
	if err != nil {
		return errors.Wrap(err, "creating rsvp")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *opportunityApi) cancelRsvp(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.rsvpSvc.Cancel(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "canceling rsvp")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// objectMiddleware loads the Opportunity :id into "object".
func (api *opportunityApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		opp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding opportunity by ID")
		}
		ctx.Set("object", opp)
		return next(ctx)
	}
}

func rsvpOutcome(err error) string {
	switch errors.Cause(err) {
	case nil:
		return "created"
	case rsvp.ErrOpportunityFull:
		return "full"
	case rsvp.ErrAlreadyRSVPd:
		return "already_rsvpd"
	case rsvp.ErrOpportunityNotOpen:
		return "not_open"
	case rsvp.ErrOpportunityInPast:
		return "in_past"
	}
	return "error"
}
