package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"paperscreen/internal/activities"
	"paperscreen/internal/reconcile"
)

// ReconciliationWorkflow diffs two run sets and asks both models to
// arbitrate every paper they disagree on. Each model sees the mismatches
// from its own side, so a paper with disagreements produces two verdict
// records.
func ReconciliationWorkflow(ctx workflow.Context, input ReconciliationInput) (string, error) {
	progress := ReconciliationProgress{
		RunSetID: input.RunSetID,
		PerStudy: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetReconcileProgress, func() (ReconciliationProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var diffOut activities.DiffRunSetsOutput
	if err := workflow.ExecuteActivity(ctx, "DiffRunSetsActivity", activities.DiffRunSetsInput{
		Glob1:  input.Glob1,
		Glob2:  input.Glob2,
		Model1: input.Model1,
		Model2: input.Model2,
	}).Get(ctx, &diffOut); err != nil {
		return "", err
	}
	progress.Total = len(diffOut.Mismatches)

	sides := []struct {
		model string
		role  string
	}{
		{input.Model1, reconcile.RoleModel1},
		{input.Model2, reconcile.RoleModel2},
	}

	for i, study := range diffOut.Mismatches {
		progress.PerStudy[study.StudyNumber] = "processing"
		failed := false
		for _, side := range sides {
			if err := workflow.ExecuteActivity(ctx, "ReconcileStudyActivity", activities.ReconcileStudyInput{
				RunSetID:     input.RunSetID + "-" + side.model,
				Study:        study,
				Model:        side.model,
				Role:         side.role,
				Temperature:  input.Temperature,
				UsePDFReader: input.UsePDFReader,
			}).Get(ctx, nil); err != nil {
				failed = true
			}
		}
		if failed {
			progress.Failed++
			progress.PerStudy[study.StudyNumber] = "failed"
		} else {
			progress.PerStudy[study.StudyNumber] = "done"
		}
		progress.Done++

		if input.DelaySeconds > 0 && i < len(diffOut.Mismatches)-1 {
			if err := workflow.Sleep(ctx, time.Duration(input.DelaySeconds)*time.Second); err != nil {
				return "", err
			}
		}
	}
	return "completed", nil
}
