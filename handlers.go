package main

import (
	"errors"
	"net/http"

	"dlux/internal/auth"
	"dlux/internal/contextKey"
	"dlux/internal/metrics"
	"dlux/internal/network"
	"dlux/internal/neutron"
	"dlux/internal/tables"
	"dlux/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const msgInvalidForm = "Invalid form submission."

type loginPage struct {
	Title  string
	Fields []auth.Field
	Errors []string
}

type pageBase struct {
	Title      string
	User       string
	Controller string
}

type tablePage struct {
	pageBase
	Table *tables.Table[neutron.Port]
	Rows  []tables.Row
}

type portPage struct {
	pageBase
	Port        neutron.Port
	NetworkLink string
	BackLink    string
}

type networkPage struct {
	pageBase
	Network  neutron.Network
	BackLink string
}

func (a *app) newLoginForm() *auth.LoginForm {
	return auth.NewLoginForm(a.login, a.authenticator, a.sessions, auth.WithLogger(a.logger))
}

func (a *app) serveLogin(w http.ResponseWriter, status int, form *auth.LoginForm, errs ...string) {
	a.renderPage(w, status, "login", loginPage{
		Title:  "Login",
		Fields: form.Fields(),
		Errors: append(form.NonFieldErrors(), errs...),
	})
}

func (a *app) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessions.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, network.PortsIndexPath, http.StatusSeeOther)
		return
	}
	a.sessions.SetTestCookie(r.Context())
	a.serveLogin(w, http.StatusOK, a.newLoginForm())
}

func (a *app) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := a.newLoginForm()

	if err := r.ParseForm(); err != nil {
		a.metrics.LoginAttempt(metrics.ResultInvalid)
		a.sessions.SetTestCookie(ctx)
		a.serveLogin(w, http.StatusBadRequest, form, msgInvalidForm)
		return
	}

	ok, err := form.Validate(ctx, r.PostForm)
	if err != nil {
		a.metrics.LoginAttempt(metrics.ResultError)
		a.logger.WithError(err).Error("login failed with an unexpected error")
		http.Error(w, "Login failed.", http.StatusInternalServerError)
		return
	}
	if !ok {
		if len(form.NonFieldErrors()) > 0 {
			a.metrics.LoginAttempt(metrics.ResultFailure)
		} else {
			a.metrics.LoginAttempt(metrics.ResultInvalid)
		}
		// A rejected login flushes the session; re-arm the cookie check.
		a.sessions.SetTestCookie(ctx)
		a.serveLogin(w, http.StatusOK, form)
		return
	}

	a.sessions.DeleteTestCookie(ctx)
	if err := a.sessions.CreateSession(ctx, form.User()); err != nil {
		a.metrics.LoginAttempt(metrics.ResultError)
		a.logger.WithError(err).WithField("username", form.User().Name).Error("session create failed")
		http.Error(w, "Login failed.", http.StatusInternalServerError)
		return
	}
	a.metrics.LoginAttempt(metrics.ResultSuccess)
	http.Redirect(w, r, network.PortsIndexPath, http.StatusSeeOther)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.DestroySession(r.Context()); err != nil {
		a.logger.WithError(err).Warn("session destroy failed")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func basePage(title string, user *types.User) pageBase {
	return pageBase{Title: title, User: user.Name, Controller: user.Controller}
}

func (a *app) handlePortsIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := contextKey.AuthUserFromContext(r.Context())

	ports, err := a.neutron.ListPorts(r.Context(), user)
	if err != nil {
		a.dataSourceError(w, r, err)
		return
	}
	rows, err := a.ports.Render(ports)
	if err != nil {
		a.logger.WithError(err).WithField("table", a.ports.Name()).Error("render table failed")
		http.Error(w, "Unable to render ports.", http.StatusInternalServerError)
		return
	}
	a.metrics.TableRendered(a.ports.Name(), len(rows))

	a.renderPage(w, http.StatusOK, "table", tablePage{
		pageBase: basePage(a.ports.VerboseName(), user),
		Table:    a.ports,
		Rows:     rows,
	})
}

func (a *app) handlePortDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := contextKey.AuthUserFromContext(r.Context())

	port, err := a.neutron.GetPort(r.Context(), user, chi.URLParam(r, "port_id"))
	if err != nil {
		a.dataSourceError(w, r, err)
		return
	}
	var networkLink string
	if port.NetworkID != "" {
		if networkLink, err = a.resolver.Reverse(network.NetworkDetailView, port.NetworkID); err != nil {
			a.logger.WithError(err).Error("reverse network link failed")
			http.Error(w, "Unable to render port.", http.StatusInternalServerError)
			return
		}
	}

	a.renderPage(w, http.StatusOK, "port", portPage{
		pageBase:    basePage("Port Details", user),
		Port:        port,
		NetworkLink: networkLink,
		BackLink:    network.PortsIndexPath,
	})
}

func (a *app) handleNetworkDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := contextKey.AuthUserFromContext(r.Context())

	net, err := a.neutron.GetNetwork(r.Context(), user, chi.URLParam(r, "network_id"))
	if err != nil {
		a.dataSourceError(w, r, err)
		return
	}

	a.renderPage(w, http.StatusOK, "network", networkPage{
		pageBase: basePage("Network Details", user),
		Network:  net,
		BackLink: network.PortsIndexPath,
	})
}

// dataSourceError maps neutron failures onto HTTP answers. A token the
// controller no longer accepts ends the session.
func (a *app) dataSourceError(w http.ResponseWriter, r *http.Request, err error) {
	entry := a.logger.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"method": r.Method,
	}).WithError(err)

	switch {
	case errors.Is(err, neutron.ErrNotFound):
		entry.Info("neutron resource not found")
		http.NotFound(w, r)
	case errors.Is(err, neutron.ErrUnauthorized), errors.Is(err, neutron.ErrNoController):
		entry.Warn("controller session rejected")
		if derr := a.sessions.DestroySession(r.Context()); derr != nil {
			entry.WithField("destroy_error", derr).Warn("session destroy failed")
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		entry.Error("neutron request failed")
		http.Error(w, "Unable to reach the controller.", http.StatusBadGateway)
	}
}
