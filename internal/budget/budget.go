// Package budget enforces per-action caps using the history event log.
package budget

import (
	"context"
	"fmt"
	"time"

	"tw/internal/config"
	"tw/internal/store/history"
)

// ExceededError reports which cap stopped an action.
type ExceededError struct {
	Type   string
	Window string
	Limit  int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s budget exhausted: %d per %s", e.Type, e.Limit, e.Window)
}

// Allow returns an *ExceededError when typ already reached its hourly or
// daily cap at now.
func Allow(ctx context.Context, db *history.DB, cfg config.BudgetConfig, typ string, now time.Time) error {
	b, ok := cfg.PerType[typ]
	if !ok || db == nil {
		return nil
	}
	now = now.UTC()
	startHour := now.Truncate(time.Hour)
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if b.MaxPerHour > 0 {
		n, err := db.CountEvents(ctx, startHour, startHour.Add(time.Hour), typ)
		if err != nil {
			return err
		}
		if n >= b.MaxPerHour {
			return &ExceededError{Type: typ, Window: "hour", Limit: b.MaxPerHour}
		}
	}
	if b.MaxPerDay > 0 {
		n, err := db.CountEvents(ctx, startDay, startDay.Add(24*time.Hour), typ)
		if err != nil {
			return err
		}
		if n >= b.MaxPerDay {
			return &ExceededError{Type: typ, Window: "day", Limit: b.MaxPerDay}
		}
	}
	return nil
}

// Record logs one action of typ.
func Record(ctx context.Context, db *history.DB, typ string, now time.Time, payload any) error {
	if db == nil {
		return nil
	}
	return db.PutEvent(ctx, now.UTC(), typ, payload)
}
