package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upvcerp/internal/core"
	"upvcerp/pkg/domain"
)

func findOrder(t *testing.T, snap domain.Snapshot, id string) domain.SalesOrder {
	t.Helper()
	for _, o := range snap.SalesOrders {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("sales order %s not found", id)
	return domain.SalesOrder{}
}

// installed drives an order to Installed through a completed installation.
func (f *fixture) installed(t *testing.T) domain.SalesOrder {
	t.Helper()
	ctx := context.Background()
	order := f.order(t)
	inst, _, err := f.svc.ScheduleInstallation(ctx, core.ScheduleInstallation{OrderID: order.ID, ScheduledDate: "2024-05-10"})
	require.NoError(t, err)
	_, _, err = f.svc.TransitionInstallation(ctx, core.TransitionInstallation{ID: inst.ID, Status: domain.InstallationCompleted})
	require.NoError(t, err)
	return findOrder(t, f.snapshot(t), order.ID)
}

func TestCompletingInstallationInstallsOrderFromAnyStage(t *testing.T) {
	for _, stage := range domain.OrderStages[:len(domain.OrderStages)-1] {
		stage := stage
		t.Run(string(stage), func(t *testing.T) {
			f := seeded(t)
			ctx := context.Background()
			order := f.order(t)
			if stage != domain.OrderPending {
				_, _, err := f.svc.AdvanceSalesOrder(ctx, core.AdvanceSalesOrder{ID: order.ID, Status: stage})
				require.NoError(t, err)
			}
			inst, _, err := f.svc.ScheduleInstallation(ctx, core.ScheduleInstallation{
				OrderID: order.ID, ScheduledDate: "2024-05-10", Team: []string{"Ravi", "Suresh"},
			})
			require.NoError(t, err)
			before := len(f.snapshot(t).ActivityLog)

			done, _, err := f.svc.TransitionInstallation(ctx, core.TransitionInstallation{
				ID: inst.ID, Status: domain.InstallationCompleted, CustomerFeedback: "Neat work",
			})
			require.NoError(t, err)
			assert.Equal(t, "2024-05-06", done.CompletionDate)
			assert.Equal(t, "Neat work", done.CustomerFeedback)

			snap := f.snapshot(t)
			assert.Equal(t, domain.OrderInstalled, findOrder(t, snap, order.ID).Status)
			require.Len(t, snap.ActivityLog, before+1)
			assert.Equal(t, core.ActionInstallationCompleted, snap.ActivityLog[before].Action)
		})
	}
}

func TestInstallationProgressDoesNotTouchOrder(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	order := f.order(t)
	inst, _, err := f.svc.ScheduleInstallation(ctx, core.ScheduleInstallation{OrderID: order.ID, ScheduledDate: "2024-05-10"})
	require.NoError(t, err)

	_, _, err = f.svc.TransitionInstallation(ctx, core.TransitionInstallation{ID: inst.ID, Status: domain.InstallationDelayed})
	require.NoError(t, err)
	progress, _, err := f.svc.TransitionInstallation(ctx, core.TransitionInstallation{ID: inst.ID, Status: domain.InstallationInProgress})
	require.NoError(t, err)
	assert.Empty(t, progress.CompletionDate)
	assert.Equal(t, domain.OrderPending, findOrder(t, f.snapshot(t), order.ID).Status)

	_, _, err = f.svc.TransitionInstallation(ctx, core.TransitionInstallation{ID: inst.ID, Status: domain.InstallationCompleted, CompletionDate: "2024-05-12"})
	require.NoError(t, err)
	_, _, err = f.svc.TransitionInstallation(ctx, core.TransitionInstallation{ID: inst.ID, Status: domain.InstallationDelayed})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.EntityInstallation, invalid.Entity)
}

func TestScheduleInstallationRequiresDate(t *testing.T) {
	f := seeded(t)
	order := f.order(t)
	_, _, err := f.svc.ScheduleInstallation(context.Background(), core.ScheduleInstallation{OrderID: order.ID})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["scheduledDate"])
}

func TestCreateDispatchMarksOrderDelivered(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	order := f.order(t)

	d, _, err := f.svc.CreateDispatch(ctx, core.CreateDispatch{OrderID: order.ID, VehicleNumber: "MH12AB1234", DriverName: "Anil"})
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchScheduled, d.Status)
	assert.Equal(t, "2024-05-06", d.DispatchDate)
	assert.Equal(t, domain.OrderDelivered, findOrder(t, f.snapshot(t), order.ID).Status)

	_, _, err = f.svc.CreateDispatch(ctx, core.CreateDispatch{OrderID: order.ID})
	require.NoError(t, err, "a second dispatch for a delivered order is allowed")

	moved, _, err := f.svc.TransitionDispatch(ctx, core.TransitionDispatch{ID: d.ID, Status: domain.DispatchDelivered})
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchDelivered, moved.Status)
	_, _, err = f.svc.TransitionDispatch(ctx, core.TransitionDispatch{ID: d.ID, Status: domain.DispatchInTransit})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestCreateDispatchRejectsInstalledOrder(t *testing.T) {
	f := seeded(t)
	order := f.installed(t)
	before := f.snapshot(t)

	_, _, err := f.svc.CreateDispatch(context.Background(), core.CreateDispatch{OrderID: order.ID})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, string(domain.OrderInstalled), invalid.From)
	assert.Equal(t, before.Dispatches, f.snapshot(t).Dispatches)

	_, _, err = f.svc.CreateDispatch(context.Background(), core.CreateDispatch{OrderID: "SO-MISSING00"})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestWarrantyClaimRequiresInstalledOrder(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	pending := f.order(t)

	_, _, err := f.svc.OpenWarrantyClaim(ctx, core.OpenWarrantyClaim{OrderID: pending.ID, Description: "Leaking sill"})
	require.ErrorIs(t, err, core.ErrOrderNotInstalled)
	assert.Empty(t, f.snapshot(t).WarrantyClaims)

	order := f.installed(t)
	claim, _, err := f.svc.OpenWarrantyClaim(ctx, core.OpenWarrantyClaim{OrderID: order.ID, Description: "Leaking sill"})
	require.NoError(t, err)
	assert.Equal(t, domain.WarrantyOpen, claim.Status)
	assert.Regexp(t, `^WARR-`, claim.ID)

	resolved, _, err := f.svc.TransitionWarrantyClaim(ctx, core.TransitionWarrantyClaim{
		ID: claim.ID, Status: domain.WarrantyResolved, ResolutionDetails: "Resealed",
	})
	require.NoError(t, err)
	assert.Equal(t, "Resealed", resolved.ResolutionDetails)
	_, _, err = f.svc.TransitionWarrantyClaim(ctx, core.TransitionWarrantyClaim{ID: claim.ID, Status: domain.WarrantyClosed})
	require.NoError(t, err)
	_, _, err = f.svc.TransitionWarrantyClaim(ctx, core.TransitionWarrantyClaim{ID: claim.ID, Status: domain.WarrantyOpen})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestServiceVisitConsumesMaterials(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	order := f.installed(t)
	claim, _, err := f.svc.OpenWarrantyClaim(ctx, core.OpenWarrantyClaim{OrderID: order.ID, Description: "Handle loose"})
	require.NoError(t, err)

	updated, _, err := f.svc.RecordServiceVisit(ctx, core.RecordServiceVisit{
		ClaimID:       claim.ID,
		Technician:    "Vijay",
		Notes:         "Replaced handle",
		MaterialsUsed: []core.MaterialLine{{InventoryItemID: f.handle.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, updated.ServiceVisits, 1)
	visit := updated.ServiceVisits[0]
	assert.Regexp(t, `^SV-`, visit.ID)
	assert.Equal(t, "2024-05-06", visit.Date)
	assert.InDelta(t, 38, f.item(t, f.handle.ID).Quantity, 1e-9)

	log := f.snapshot(t).ActivityLog
	assert.Equal(t, []string{core.ActionInventoryUpdated, core.ActionServiceVisitRecorded}, actions(log[len(log)-2:]))
}

func TestServiceVisitShortfallRollsBack(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	order := f.installed(t)
	claim, _, err := f.svc.OpenWarrantyClaim(ctx, core.OpenWarrantyClaim{OrderID: order.ID, Description: "Cracked pane"})
	require.NoError(t, err)
	before := f.snapshot(t)

	_, _, err = f.svc.RecordServiceVisit(ctx, core.RecordServiceVisit{
		ClaimID:    claim.ID,
		Technician: "Vijay",
		MaterialsUsed: []core.MaterialLine{
			{InventoryItemID: f.handle.ID, Quantity: 1},
			{InventoryItemID: f.glass.ID, Quantity: 1000},
		},
	})
	var short *domain.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, f.glass.ID, short.ItemID)

	after := f.snapshot(t)
	assert.Empty(t, after.WarrantyClaims[0].ServiceVisits)
	assert.Equal(t, before.Inventory, after.Inventory)
	assert.Equal(t, before.ActivityLog, after.ActivityLog)

	_, _, err = f.svc.RecordServiceVisit(ctx, core.RecordServiceVisit{
		ClaimID:       claim.ID,
		Technician:    "Vijay",
		MaterialsUsed: []core.MaterialLine{{InventoryItemID: "INV-NOPE00000", Quantity: 1}},
	})
	var missing *domain.MissingReferenceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, domain.RoleInventoryRef, missing.Role)
}

func TestProductionJobLifecycle(t *testing.T) {
	f := seeded(t)
	ctx := context.Background()
	order := f.order(t)

	job, _, err := f.svc.StartProductionJob(ctx, core.StartProductionJob{OrderID: order.ID, AssignedTo: "Line 2"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCutting, job.Stage)
	assert.Equal(t, "2024-05-06", job.StartDate)
	assert.Regexp(t, `^PROD-`, job.ID)

	passed := true
	job, _, err = f.svc.AdvanceProductionJob(ctx, core.AdvanceProductionJob{
		ID: job.ID, Stage: domain.StageGlazing, EndDate: "2024-05-09", QCPassed: &passed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageGlazing, job.Stage)
	assert.True(t, job.QCPassed)
	assert.Equal(t, "2024-05-09", job.EndDate)

	_, _, err = f.svc.AdvanceProductionJob(ctx, core.AdvanceProductionJob{ID: job.ID, Stage: domain.StageWelding})
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	_, _, err = f.svc.StartProductionJob(ctx, core.StartProductionJob{OrderID: order.ID, Stage: "Painting"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "oneof", verr.Fields["stage"])

	_, _, err = f.svc.StartProductionJob(ctx, core.StartProductionJob{OrderID: "SO-MISSING00"})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	log := f.snapshot(t).ActivityLog
	assert.Equal(t, []string{core.ActionProductionJobStarted, core.ActionProductionJobUpdated}, actions(log[len(log)-2:]))
}
