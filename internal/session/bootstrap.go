package session

import (
	"context"
	"sync/atomic"

	"github.com/drstein77/shopsphere/internal/models"
	"go.uber.org/zap"
)

const authFailedMessage = "Authentication failed. Please try again."

// WidgetConfig identifies the project to the authentication widget
type WidgetConfig struct {
	ProjectID string
	PublicKey string
	Target    string
	View      string
}

// Widget is the opaque authentication component. After Setup it invokes
// exactly one of the callbacks per authentication attempt.
type Widget interface {
	Setup(cfg WidgetConfig, onSuccess func(*models.User), onError func(error)) error
	Logout(ctx context.Context) error
}

// Navigator moves the browser to another page
type Navigator interface {
	Navigate(path string)
}

type Notifier interface {
	Error(message string)
}

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Bootstrap connects the widget callbacks to the session store and navigation.
type Bootstrap struct {
	widget   Widget
	nav      Navigator
	location func() Location
	store    *Store
	notifier Notifier
	log      Log

	initialized atomic.Bool
}

func NewBootstrap(widget Widget, nav Navigator, location func() Location, store *Store, notifier Notifier, log Log) *Bootstrap {
	return &Bootstrap{
		widget:   widget,
		nav:      nav,
		location: location,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Start configures the widget and registers the callbacks.
func (b *Bootstrap) Start(cfg WidgetConfig) error {
	return b.widget.Setup(cfg, b.onSuccess, b.onError)
}

// Initialized reports whether the widget has completed at least one attempt
func (b *Bootstrap) Initialized() bool {
	return b.initialized.Load()
}

func (b *Bootstrap) onSuccess(user *models.User) {
	b.initialized.Store(true)

	loc := b.location()
	b.nav.Navigate(Redirect(loc, user))

	if user != nil {
		b.store.Dispatch(SetUser{User: user})
		b.log.Info("user authenticated", zap.String("user_id", user.ID()))
		return
	}
	b.store.Dispatch(ClearUser{})
}

func (b *Bootstrap) onError(err error) {
	b.log.Error("Authentication error", zap.Error(err))
	b.notifier.Error(authFailedMessage)
}

// Logout signs the user out through the widget. Failures are only logged.
func (b *Bootstrap) Logout(ctx context.Context) {
	if err := b.widget.Logout(ctx); err != nil {
		b.log.Error("Logout failed", zap.Error(err))
		return
	}
	b.store.Dispatch(ClearUser{})
	b.nav.Navigate(loginPath)
}
