package core

import (
	"context"
	"errors"
	"fmt"

	"upvcerp/pkg/domain"
)

// ErrOrderNotInstalled is returned when a warranty claim names an order that
// has not been installed.
var ErrOrderNotInstalled = errors.New("order is not installed")

func findOrder(tx Transaction, id string) (domain.SalesOrder, error) {
	order, ok := tx.FindSalesOrder(id)
	if !ok {
		return domain.SalesOrder{}, &domain.NotFoundError{Entity: domain.EntitySalesOrder, ID: id}
	}
	return order, nil
}

// advanceOrder moves an order to stage unless it is already there.
func advanceOrder(tx Transaction, id string, stage domain.OrderStatus) error {
	order, err := findOrder(tx, id)
	if err != nil {
		return err
	}
	if order.Status == stage {
		return nil
	}
	_, err = tx.UpdateSalesOrder(id, func(o *domain.SalesOrder) error {
		return o.Transition(stage)
	})
	return err
}

// StartProductionJob opens a job for an order, at Cutting unless a stage is given.
func (s *Service) StartProductionJob(ctx context.Context, cmd StartProductionJob) (domain.ProductionJob, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.ProductionJob, error) {
		if _, err := findOrder(tx, cmd.OrderID); err != nil {
			return domain.ProductionJob{}, err
		}
		job := domain.ProductionJob{
			OrderID:    cmd.OrderID,
			Stage:      cmd.Stage,
			AssignedTo: cmd.AssignedTo,
			StartDate:  orDefault(cmd.StartDate, today(tx)),
		}
		if job.Stage == "" {
			job.Stage = domain.StageCutting
		}
		if lc, _ := domain.LifecycleFor(domain.EntityProductionJob); !lc.Valid(string(job.Stage)) {
			return domain.ProductionJob{}, &domain.ValidationError{Fields: map[string]string{"stage": "oneof"}}
		}
		created, err := tx.CreateProductionJob(job)
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionProductionJobStarted, "Job for order #%s started. Stage: %s", created.OrderID, created.Stage)
	})
}

// AdvanceProductionJob moves a job forward and records QC and the end date.
func (s *Service) AdvanceProductionJob(ctx context.Context, cmd AdvanceProductionJob) (domain.ProductionJob, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.ProductionJob, error) {
		updated, err := tx.UpdateProductionJob(cmd.ID, func(j *domain.ProductionJob) error {
			if cmd.Stage != "" && cmd.Stage != j.Stage {
				if err := j.Transition(cmd.Stage); err != nil {
					return err
				}
			}
			if cmd.EndDate != "" {
				j.EndDate = cmd.EndDate
			}
			setIf(&j.QCPassed, cmd.QCPassed)
			return nil
		})
		if err != nil {
			return updated, err
		}
		return updated, logActivity(ctx, tx, ActionProductionJobUpdated, "Job #%s for order #%s at stage %s.", updated.ID, updated.OrderID, updated.Stage)
	})
}

// CreateDispatch records a delivery and marks the order Delivered. An order
// that is already installed cannot be dispatched.
func (s *Service) CreateDispatch(ctx context.Context, cmd CreateDispatch) (domain.Dispatch, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Dispatch, error) {
		if err := advanceOrder(tx, cmd.OrderID, domain.OrderDelivered); err != nil {
			return domain.Dispatch{}, err
		}
		d := domain.Dispatch{
			OrderID:       cmd.OrderID,
			DispatchDate:  orDefault(cmd.DispatchDate, today(tx)),
			VehicleNumber: cmd.VehicleNumber,
			DriverName:    cmd.DriverName,
			Status:        cmd.Status,
		}
		if d.Status == "" {
			d.Status = domain.DispatchScheduled
		}
		created, err := tx.CreateDispatch(d)
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionOrderDispatched, "Order #%s dispatched.", created.OrderID)
	})
}

// TransitionDispatch moves a dispatch through its lifecycle.
func (s *Service) TransitionDispatch(ctx context.Context, cmd TransitionDispatch) (domain.Dispatch, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Dispatch, error) {
		return tx.UpdateDispatch(cmd.ID, func(d *domain.Dispatch) error {
			return d.Transition(cmd.Status)
		})
	})
}

// ScheduleInstallation books an installation for an order.
func (s *Service) ScheduleInstallation(ctx context.Context, cmd ScheduleInstallation) (domain.Installation, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Installation, error) {
		if _, err := findOrder(tx, cmd.OrderID); err != nil {
			return domain.Installation{}, err
		}
		created, err := tx.CreateInstallation(domain.Installation{
			OrderID:       cmd.OrderID,
			ScheduledDate: cmd.ScheduledDate,
			Team:          append([]string(nil), cmd.Team...),
			Status:        domain.InstallationScheduled,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionInstallationScheduled, "Installation for order #%s scheduled.", created.OrderID)
	})
}

// TransitionInstallation moves an installation through its lifecycle. On
// Completed the completion date is set, the order becomes Installed and one
// activity entry is written.
func (s *Service) TransitionInstallation(ctx context.Context, cmd TransitionInstallation) (domain.Installation, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Installation, error) {
		updated, err := tx.UpdateInstallation(cmd.ID, func(i *domain.Installation) error {
			if err := i.Transition(cmd.Status); err != nil {
				return err
			}
			if cmd.CustomerFeedback != "" {
				i.CustomerFeedback = cmd.CustomerFeedback
			}
			if cmd.Photos != nil {
				i.Photos = append([]string(nil), cmd.Photos...)
			}
			if i.Status == domain.InstallationCompleted {
				i.CompletionDate = orDefault(cmd.CompletionDate, today(tx))
			}
			return nil
		})
		if err != nil || updated.Status != domain.InstallationCompleted {
			return updated, err
		}
		if err := advanceOrder(tx, updated.OrderID, domain.OrderInstalled); err != nil {
			return updated, err
		}
		return updated, logActivity(ctx, tx, ActionInstallationCompleted, "Installation for order #%s completed.", updated.OrderID)
	})
}

// OpenWarrantyClaim raises a claim. The order must be Installed.
func (s *Service) OpenWarrantyClaim(ctx context.Context, cmd OpenWarrantyClaim) (domain.WarrantyClaim, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.WarrantyClaim, error) {
		order, err := findOrder(tx, cmd.OrderID)
		if err != nil {
			return domain.WarrantyClaim{}, err
		}
		if order.Status != domain.OrderInstalled {
			return domain.WarrantyClaim{}, fmt.Errorf("open claim for order %s in status %s: %w", order.ID, order.Status, ErrOrderNotInstalled)
		}
		created, err := tx.CreateWarrantyClaim(domain.WarrantyClaim{
			OrderID:     cmd.OrderID,
			ClaimDate:   orDefault(cmd.ClaimDate, today(tx)),
			Description: cmd.Description,
			Status:      domain.WarrantyOpen,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionWarrantyClaimOpened, "New claim for order #%s.", created.OrderID)
	})
}

// TransitionWarrantyClaim moves a claim through its lifecycle.
func (s *Service) TransitionWarrantyClaim(ctx context.Context, cmd TransitionWarrantyClaim) (domain.WarrantyClaim, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.WarrantyClaim, error) {
		return tx.UpdateWarrantyClaim(cmd.ID, func(w *domain.WarrantyClaim) error {
			if err := w.Transition(cmd.Status); err != nil {
				return err
			}
			if cmd.ResolutionDetails != "" {
				w.ResolutionDetails = cmd.ResolutionDetails
			}
			return nil
		})
	})
}

// RecordServiceVisit appends a visit to a claim and consumes the materials it
// used. Any shortfall fails the whole visit with *domain.InsufficientStockError.
func (s *Service) RecordServiceVisit(ctx context.Context, cmd RecordServiceVisit) (domain.WarrantyClaim, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.WarrantyClaim, error) {
		visit := domain.ServiceVisit{
			ID:            tx.NewID(domain.PrefixServiceVisit),
			Date:          orDefault(cmd.Date, today(tx)),
			Technician:    cmd.Technician,
			Notes:         cmd.Notes,
			MaterialsUsed: make([]domain.MaterialUsage, len(cmd.MaterialsUsed)),
		}
		for i, m := range cmd.MaterialsUsed {
			visit.MaterialsUsed[i] = domain.MaterialUsage(m)
		}
		updated, err := tx.UpdateWarrantyClaim(cmd.ClaimID, func(w *domain.WarrantyClaim) error {
			w.ServiceVisits = append(w.ServiceVisits, visit)
			return nil
		})
		if err != nil {
			return updated, err
		}
		for _, m := range visit.MaterialsUsed {
			item, err := consume(tx, m.InventoryItemID, m.Quantity, domain.RoleInventoryRef)
			if err != nil {
				return updated, err
			}
			if err := logStockChange(ctx, tx, item); err != nil {
				return updated, err
			}
		}
		return updated, logActivity(ctx, tx, ActionServiceVisitRecorded, "Service visit %s recorded for claim #%s.", visit.ID, updated.ID)
	})
}
