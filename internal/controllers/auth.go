package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/session"
)

// callbackRequest reports the outcome of an authentication attempt made in the browser
type callbackRequest struct {
	User  json.RawMessage `json:"user"`
	Error string          `json:"error"`
	Path  string          `json:"path"`
	Query string          `json:"query"`
}

type navigationResponse struct {
	Redirect string      `json:"redirect,omitempty"`
	Session  sessionView `json:"session"`
}

type sessionView struct {
	User            *models.User  `json:"user"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	Theme           session.Theme `json:"theme"`
}

func newSessionView(s session.State) sessionView {
	return sessionView{User: s.User, IsAuthenticated: s.IsAuthenticated, Theme: s.Theme}
}

// reportedWidget replays an attempt already completed by the browser widget.
type reportedWidget struct {
	user *models.User
	err  error
}

func (w reportedWidget) Setup(_ session.WidgetConfig, onSuccess func(*models.User), onError func(error)) error {
	if w.err != nil {
		onError(w.err)
		return nil
	}
	onSuccess(w.user)
	return nil
}

// Logout is finished by the browser widget before it calls the server.
func (reportedWidget) Logout(context.Context) error {
	return nil
}

type recordingNavigator struct {
	path string
}

func (n *recordingNavigator) Navigate(path string) {
	n.path = path
}

func (h *BaseController) authCallback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req callbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	widget := reportedWidget{}
	switch {
	case req.Error != "":
		widget.err = errors.New(req.Error)
	case len(req.User) > 0 && string(req.User) != "null":
		widget.user = &models.User{}
		if err := json.Unmarshal(req.User, widget.user); err != nil {
			http.Error(w, "invalid user: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	nav := &recordingNavigator{}
	location := func() session.Location { return session.Location{Path: req.Path, Query: req.Query} }
	bootstrap := session.NewBootstrap(widget, nav, location, s.Auth, s.Notices, h.log)

	if err := bootstrap.Start(h.widget); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, navigationResponse{
		Redirect: nav.path,
		Session:  newSessionView(s.Auth.State()),
	})
}

func (h *BaseController) logout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	nav := &recordingNavigator{}
	bootstrap := session.NewBootstrap(reportedWidget{}, nav, nil, s.Auth, s.Notices, h.log)
	bootstrap.Logout(r.Context())

	writeJSON(w, http.StatusOK, navigationResponse{
		Redirect: nav.path,
		Session:  newSessionView(s.Auth.State()),
	})
}

func (h *BaseController) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s.Auth.State()))
}

func (h *BaseController) toggleTheme(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s.Auth.Dispatch(session.ToggleTheme{})))
}
