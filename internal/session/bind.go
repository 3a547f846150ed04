package session

import (
	"context"
	"log/slog"
)

// Loader is the state owner driven by the session lifecycle.
type Loader interface {
	Load(ctx context.Context, userID string) error
	Reset()
}

// Bind keeps loader in step with mgr: a present user triggers a full Load,
// an absent one a Reset. The current state is applied immediately. Load
// failures are logged; the loader records them itself.
func Bind(ctx context.Context, mgr *Manager, loader Loader) (unbind func()) {
	apply := func(userID string, present bool) {
		if !present {
			loader.Reset()
			return
		}
		if err := loader.Load(ctx, userID); err != nil {
			slog.Default().Warn("session load failed", "user_id", userID, "error", err)
		}
	}
	unbind = mgr.Subscribe(apply)
	userID, ok := mgr.UserID()
	apply(userID, ok)
	return unbind
}
