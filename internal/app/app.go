package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-shell/internal/api"
	"meal-shell/internal/config"
	"meal-shell/internal/logger"
	"meal-shell/internal/reconcile"
	"meal-shell/internal/screens"
	"meal-shell/internal/session"

	"go.uber.org/zap"
)

// ErrSignInRequired is returned by screen accessors while no session is active.
var ErrSignInRequired = errors.New("sign in required")

// SignInEvent is one outcome of the external sign-in widget.
type SignInEvent struct {
	Credential string
	Err        error
}

// App holds the application's dependencies.
type App struct {
	cfg      *config.Config
	client   *api.Client
	session  *session.Session
	engine   *reconcile.Engine
	feedback *screens.Feedback
	notifier screens.Notifier
	log      *zap.Logger
}

// NewApp creates and initializes a new App instance.
func NewApp(cfg *config.Config, client *api.Client, sess *session.Session, notifier screens.Notifier, log *zap.Logger) *App {
	a := &App{
		cfg:      cfg,
		client:   client,
		session:  sess,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
	a.engine = reconcile.NewEngine(client, a.log)
	var onUnauthorized func(context.Context)
	if cfg.RequireAuth {
		onUnauthorized = a.handleUnauthorized
	}
	a.feedback = screens.NewFeedback(notifier, onUnauthorized, a.log)
	return a
}

// Start restores the persisted session. It reports whether the shell may
// proceed without a sign-in.
func (a *App) Start(ctx context.Context) (bool, error) {
	restored, err := a.session.Restore(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to restore session: %w", err)
	}
	if restored {
		a.log.Debug("session restored")
	}
	return a.Authenticated(), nil
}

// Authenticated reports whether screens may be used.
func (a *App) Authenticated() bool {
	return !a.cfg.RequireAuth || a.session.Authenticated()
}

// Login is the manual sign-in path: it screens raw and makes it the session credential.
func (a *App) Login(ctx context.Context, raw string) error {
	if _, err := a.session.Login(ctx, raw); err != nil {
		var rejected *session.RejectedError
		if errors.As(err, &rejected) {
			a.notify(rejectionMessage(rejected.Reason))
			return err
		}
		return a.feedback.Fail(ctx, screens.ScreenSession, err)
	}
	// Cached collections may belong to a previous identity.
	a.client.ClearCache()
	a.feedback.Succeed("Signed in")
	return nil
}

// AwaitSignIn consumes sign-in widget events until one yields an accepted
// credential, the channel closes or ctx is done. Widget errors and rejected
// credentials are reported and the wait continues.
func (a *App) AwaitSignIn(ctx context.Context, events <-chan SignInEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ErrSignInRequired
			}
			if ev.Err != nil {
				a.log.Warn("sign-in widget failed", zap.Error(ev.Err))
				a.notify("Sign-in did not return a credential. Try again.")
				continue
			}
			if err := a.Login(ctx, ev.Credential); err == nil {
				return nil
			}
		}
	}
}

// Logout clears the credential and every cached collection.
func (a *App) Logout(ctx context.Context) error {
	a.client.ClearCache()
	if err := a.session.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	a.feedback.Succeed("Signed out")
	return nil
}

// handleUnauthorized ends the session after the backend rejected the credential.
func (a *App) handleUnauthorized(ctx context.Context) {
	a.log.Warn("backend rejected the session credential; signing out")
	a.client.ClearCache()
	if err := a.session.Logout(ctx); err != nil {
		a.log.Error("failed to clear session", zap.Error(err))
	}
}

func (a *App) notify(msg string) {
	if a.notifier != nil {
		a.notifier.Error(msg)
	}
}

// Client exposes the gateway for operations without a dedicated screen.
func (a *App) Client() *api.Client {
	return a.client
}

// RecipeCatalog returns a recipe catalog controller.
func (a *App) RecipeCatalog() (*screens.RecipeCatalog, error) {
	if !a.Authenticated() {
		return nil, ErrSignInRequired
	}
	return screens.NewRecipeCatalog(a.client, a.feedback), nil
}

// RecipeForm returns a recipe form controller. A nil initial creates a recipe.
func (a *App) RecipeForm(initial *api.Recipe) (*screens.RecipeForm, error) {
	if !a.Authenticated() {
		return nil, ErrSignInRequired
	}
	return screens.NewRecipeForm(a.client, a.feedback, initial), nil
}

// Planner returns a planner controller.
func (a *App) Planner() (*screens.Planner, error) {
	if !a.Authenticated() {
		return nil, ErrSignInRequired
	}
	return screens.NewPlanner(a.client, a.feedback), nil
}

// ShoppingList returns a shopping-list controller.
func (a *App) ShoppingList() (*screens.ShoppingList, error) {
	if !a.Authenticated() {
		return nil, ErrSignInRequired
	}
	return screens.NewShoppingList(a.client, a.engine, a.feedback), nil
}

// CreateCustomIngredient adds a user-defined ingredient to the catalog.
func (a *App) CreateCustomIngredient(ctx context.Context, name string, measurement api.MeasurementType) (*api.Ingredient, error) {
	if !a.Authenticated() {
		return nil, ErrSignInRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, a.feedback.Fail(ctx, screens.ScreenRecipeForm, screens.FieldError{Field: "name", Message: "is required"})
	}
	ing, err := a.client.CreateCustomIngredient(ctx, api.CustomIngredientRequest{Name: name, MeasurementType: measurement})
	if err != nil {
		return nil, a.feedback.Fail(ctx, screens.ScreenRecipeForm, err)
	}
	a.feedback.Succeed("Ingredient created")
	return ing, nil
}

func rejectionMessage(reason session.Reason) string {
	switch reason {
	case session.ReasonExpired:
		return "That credential has expired. Sign in again."
	case session.ReasonAudienceMismatch:
		return "That credential was issued for another application."
	case session.ReasonBadIssuer:
		return "That credential comes from an unknown issuer."
	default:
		return "Paste a valid sign-in token."
	}
}
