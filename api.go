package main

import (
	"context"
	"errors"

	"dlux/internal/contextKey"
	"dlux/internal/neutron"
	"dlux/internal/tables"

	"github.com/danielgtaylor/huma/v2"
)

type idInput struct {
	ID string `path:"id" minLength:"1" doc:"Neutron resource id"`
}

type portsTableOutput struct {
	Body struct {
		Name        string          `json:"name"`
		VerboseName string          `json:"verbose_name"`
		Headers     []tables.Header `json:"headers"`
		Rows        []tables.Row    `json:"rows"`
	}
}

type portOutput struct {
	Body neutron.Port
}

type networkOutput struct {
	Body neutron.Network
}

func (a *app) registerAPI(api huma.API) {
	group := huma.NewGroup(api, "/api")
	group.UseMiddleware(a.sessions.SessionMiddleware(api))

	huma.Get(group, "/ports", func(ctx context.Context, _ *struct{}) (*portsTableOutput, error) {
		user, ok := contextKey.AuthUserFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("login required")
		}
		ports, err := a.neutron.ListPorts(ctx, user)
		if err != nil {
			return nil, a.apiError(err)
		}
		rows, err := a.ports.Render(ports)
		if err != nil {
			a.logger.WithError(err).WithField("table", a.ports.Name()).Error("render table failed")
			return nil, huma.Error500InternalServerError("unable to render ports")
		}
		a.metrics.TableRendered(a.ports.Name(), len(rows))

		out := &portsTableOutput{}
		out.Body.Name = a.ports.Name()
		out.Body.VerboseName = a.ports.VerboseName()
		out.Body.Headers = a.ports.Headers()
		out.Body.Rows = rows
		return out, nil
	}, func(op *huma.Operation) {
		op.OperationID = "list-ports"
		op.Summary = "Ports table"
	})

	huma.Get(group, "/ports/{id}", func(ctx context.Context, in *idInput) (*portOutput, error) {
		user, ok := contextKey.AuthUserFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("login required")
		}
		port, err := a.neutron.GetPort(ctx, user, in.ID)
		if err != nil {
			return nil, a.apiError(err)
		}
		return &portOutput{Body: port}, nil
	}, func(op *huma.Operation) {
		op.OperationID = "get-port"
	})

	huma.Get(group, "/networks/{id}", func(ctx context.Context, in *idInput) (*networkOutput, error) {
		user, ok := contextKey.AuthUserFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("login required")
		}
		net, err := a.neutron.GetNetwork(ctx, user, in.ID)
		if err != nil {
			return nil, a.apiError(err)
		}
		return &networkOutput{Body: net}, nil
	}, func(op *huma.Operation) {
		op.OperationID = "get-network"
	})
}

func (a *app) apiError(err error) error {
	switch {
	case errors.Is(err, neutron.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, neutron.ErrUnauthorized), errors.Is(err, neutron.ErrNoController):
		return huma.Error401Unauthorized("controller rejected the session")
	default:
		a.logger.WithError(err).Error("neutron request failed")
		return huma.Error502BadGateway("unable to reach the controller")
	}
}
