package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core/communication"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/services/metrics"
)

type communicationApi struct {
	auth     *authenticator
	svc      *communication.Service
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func registerCommunicationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	gate capabilityGate,
	svc *communication.Service,
	m *metrics.Metrics,
	validate *validator.Validate,
) {
	api := communicationApi{
		auth:     gate.auth,
		svc:      svc,
		metrics:  m,
		validate: validate,
	}

	cg := g.Group("/communications", jwt, gate.require(user.CapSendCommunications))
	cg.POST("", api.send)
	cg.GET("", api.list)
}

func (api *communicationApi) send(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	var data communication.BulkMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	comm, err := api.svc.Send(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "sending communication")
	}
	if api.metrics != nil {
		api.metrics.EmailsQueued(comm.RecipientCount)
	}
	return ctx.JSON(http.StatusCreated, comm)
}

func (api *communicationApi) list(ctx echo.Context) error {
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	comms, err := api.svc.List(ctx.Request().Context(), page)
	if err != nil {
		return errors.Wrap(err, "listing communications")
	}
	return ctx.JSON(http.StatusOK, comms)
}
