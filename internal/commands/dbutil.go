package commands

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotcommander/playbook/internal/app"
	"github.com/dotcommander/playbook/internal/engine"
	"github.com/dotcommander/playbook/internal/output"
	"github.com/dotcommander/playbook/internal/session"
	"github.com/dotcommander/playbook/internal/store"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// The JSON error response is the output.
	return "error already printed"
}

func (e printedError) Unwrap() error { return e.err }

func openDB() (*DB, func(), error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db, func() { _ = db.Close() }, nil
}

func withDB(fn func(db *DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

func newSessionManager() (*session.Manager, error) {
	path, err := app.GetSessionPath()
	if err != nil {
		return nil, err
	}
	rt := app.EffectiveRuntimeSettings()
	return session.NewManager(path, session.WithSecret(rt.JWTSecret)), nil
}

// withEngine restores the persisted session, binds a fresh engine to it and
// runs fn once the signed-in user's state is loaded.
func withEngine(ctx context.Context, fn func(e *engine.Engine) error) error {
	return withDB(func(db *DB) error {
		mgr, err := newSessionManager()
		if err != nil {
			return err
		}
		rt := app.EffectiveRuntimeSettings()
		eng := engine.New(store.NewRemote(db), engine.WithRemoteTimeout(rt.RemoteTimeout))

		unbind := session.Bind(ctx, mgr, eng)
		defer unbind()
		if _, err := mgr.Restore(); err != nil {
			return err
		}
		if _, ok := mgr.UserID(); !ok {
			return engine.ErrAuthMissing
		}
		if err := eng.Err(); err != nil {
			return err
		}
		return fn(eng)
	})
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	var already printedError
	if errors.As(err, &already) {
		return err
	}
	attrs := []any{"error", err.Error()}
	var detailed engine.RecoverableError
	if errors.As(err, &detailed) {
		attrs = append(attrs, "error_code", detailed.ErrorCode())
	}
	slog.Error("command error", attrs...)
	_ = output.PrintError(err)
	return printedError{err: err}
}

// cmdContext returns the command's context, or Background when RunE is
// invoked directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
