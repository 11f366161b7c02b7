package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultTeamBudget is used when no default_team_budget setting exists.
const DefaultTeamBudget = 100000

// SettingsRepository defines what the app layer needs from the repository
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// App interprets the raw key-value settings.
type App struct {
	repo  SettingsRepository
	clock clockwork.Clock
}

func NewApp(repo SettingsRepository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// RegistrationOpen reports whether player registration is currently open.
// Registration is closed until an admin sets a deadline, and closes again
// once the deadline passes.
func (a *App) RegistrationOpen(ctx context.Context) (bool, error) {
	raw, err := a.repo.Get(ctx, KeyRegistrationOpenUntil)
	if errors.Is(err, ErrSettingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, fmt.Errorf("malformed %s setting %q: %w", KeyRegistrationOpenUntil, raw, err)
	}
	return a.clock.Now().Before(until), nil
}

// SetRegistrationDeadline opens registration until the given time.
func (a *App) SetRegistrationDeadline(ctx context.Context, until time.Time) error {
	if err := a.repo.Set(ctx, KeyRegistrationOpenUntil, until.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	log.Info().Time("until", until).Msg("registration deadline updated")
	return nil
}

// DefaultBudget returns the budget assigned to newly created teams.
func (a *App) DefaultBudget(ctx context.Context) (int64, error) {
	raw, err := a.repo.Get(ctx, KeyDefaultTeamBudget)
	if errors.Is(err, ErrSettingNotFound) {
		return DefaultTeamBudget, nil
	}
	if err != nil {
		return 0, err
	}

	budget, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %s setting %q: %w", KeyDefaultTeamBudget, raw, err)
	}
	return budget, nil
}

// SetDefaultBudget updates the budget assigned to newly created teams.
func (a *App) SetDefaultBudget(ctx context.Context, budget int64) error {
	if budget < 0 {
		return fmt.Errorf("budget cannot be negative")
	}
	if err := a.repo.Set(ctx, KeyDefaultTeamBudget, strconv.FormatInt(budget, 10)); err != nil {
		return err
	}
	log.Info().Int64("budget", budget).Msg("default team budget updated")
	return nil
}
