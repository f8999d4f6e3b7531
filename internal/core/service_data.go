package core

import (
	"context"
)

// RestoreData replaces the whole state with cmd.Data and records the restore.
func (s *Service) RestoreData(ctx context.Context, cmd RestoreData) (Result, error) {
	return s.runWith(ctx, cmd, func(ctx context.Context) (Result, error) {
		return s.gateway.Load(ctx, cmd.Data, func(tx Transaction) error {
			return logActivity(ctx, tx, ActionDataRestore, "Application data restored from backup.")
		})
	})
}

// ResetData clears durable storage and restarts from the empty seed.
func (s *Service) ResetData(ctx context.Context, cmd ResetData) (Result, error) {
	return s.runWith(ctx, cmd, func(ctx context.Context) (Result, error) {
		return s.gateway.Reset(ctx, func(tx Transaction) error {
			return logActivity(ctx, tx, ActionSystemReset, "All application data has been reset to default.")
		})
	})
}
