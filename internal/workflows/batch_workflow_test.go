package workflows

import (
	"context"
	"errors"
	"testing"

	"paperscreen/internal/activities"
	"paperscreen/internal/reconcile"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func batchEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(BatchReviewWorkflow)
	registerActivityName(env, "ListPDFsActivity", func(context.Context, activities.ListPDFsInput) (activities.ListPDFsOutput, error) {
		return activities.ListPDFsOutput{}, nil
	})
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "AskBatteryActivity", func(context.Context, activities.AskBatteryInput) (activities.AskBatteryOutput, error) {
		return activities.AskBatteryOutput{}, nil
	})
	registerActivityName(env, "SaveRunRecordActivity", func(context.Context, activities.SaveRunRecordInput) (activities.SaveRunRecordOutput, error) {
		return activities.SaveRunRecordOutput{}, nil
	})
	return env
}

func TestBatchReviewWorkflowSuccess(t *testing.T) {
	env := batchEnv(t)
	env.OnActivity("ListPDFsActivity", mock.Anything, mock.Anything).Return(activities.ListPDFsOutput{Paths: []string{"/papers/0001.pdf", "/papers/0002.pdf"}}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{Text: "paper body", ReaderVersion: "reader-1"}, nil)
	env.OnActivity("AskBatteryActivity", mock.Anything, mock.Anything).Return(activities.AskBatteryOutput{RawText: "1;yes;q\n", Prompt: "battery"}, nil)
	env.OnActivity("SaveRunRecordActivity", mock.Anything, mock.Anything).Return(activities.SaveRunRecordOutput{RunID: "r"}, nil)

	env.ExecuteWorkflow(BatchReviewWorkflow, BatchReviewInput{
		RunSetID:     "rs1",
		InputDir:     "/papers",
		Model:        "mock",
		UsePDFReader: true,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)

	resp, err := env.QueryWorkflow(QueryGetBatchProgress)
	require.NoError(t, err)
	var prog BatchReviewProgress
	require.NoError(t, resp.Get(&prog))
	require.Equal(t, 2, prog.Total)
	require.Equal(t, 2, prog.Done)
	require.Equal(t, 0, prog.Failed)
	require.Equal(t, "done", prog.PerPaper["0001.pdf"])
}

func TestBatchReviewWorkflowNoTextSkipsPaper(t *testing.T) {
	env := batchEnv(t)
	env.OnActivity("ListPDFsActivity", mock.Anything, mock.Anything).Return(activities.ListPDFsOutput{Paths: []string{"/papers/0001.pdf"}}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in PDF"))

	env.ExecuteWorkflow(BatchReviewWorkflow, BatchReviewInput{
		RunSetID:     "rs1",
		Model:        "mock",
		UsePDFReader: true,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	resp, err := env.QueryWorkflow(QueryGetBatchProgress)
	require.NoError(t, err)
	var prog BatchReviewProgress
	require.NoError(t, resp.Get(&prog))
	require.Equal(t, 1, prog.Failed)
	require.Equal(t, "failed", prog.PerPaper["0001.pdf"])
}

func TestBatchReviewWorkflowBatteryFailureStillSavesRecord(t *testing.T) {
	env := batchEnv(t)
	env.OnActivity("ListPDFsActivity", mock.Anything, mock.Anything).Return(activities.ListPDFsOutput{Paths: []string{"/papers/0001.pdf"}}, nil)
	env.OnActivity("AskBatteryActivity", mock.Anything, mock.Anything).Return(activities.AskBatteryOutput{}, errors.New("provider unavailable"))

	saved := false
	env.OnActivity("SaveRunRecordActivity", mock.Anything, mock.MatchedBy(func(in activities.SaveRunRecordInput) bool {
		saved = in.RawText == "ERROR: API REQUEST FAILED"
		return true
	})).Return(activities.SaveRunRecordOutput{}, nil)

	env.ExecuteWorkflow(BatchReviewWorkflow, BatchReviewInput{RunSetID: "rs1", Model: "mock"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.True(t, saved)

	resp, err := env.QueryWorkflow(QueryGetBatchProgress)
	require.NoError(t, err)
	var prog BatchReviewProgress
	require.NoError(t, resp.Get(&prog))
	require.Equal(t, 1, prog.Failed)
}

func TestReconciliationWorkflowArbitratesBothSides(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReconciliationWorkflow)
	registerActivityName(env, "DiffRunSetsActivity", func(context.Context, activities.DiffRunSetsInput) (activities.DiffRunSetsOutput, error) {
		return activities.DiffRunSetsOutput{}, nil
	})
	registerActivityName(env, "ReconcileStudyActivity", func(context.Context, activities.ReconcileStudyInput) (activities.ReconcileStudyOutput, error) {
		return activities.ReconcileStudyOutput{}, nil
	})

	mismatches := []reconcile.StudyMismatches{
		{StudyNumber: "5", Mismatches: []reconcile.Mismatch{{Number: "1"}}},
	}
	env.OnActivity("DiffRunSetsActivity", mock.Anything, mock.Anything).Return(activities.DiffRunSetsOutput{Mismatches: mismatches}, nil)

	roles := map[string]bool{}
	env.OnActivity("ReconcileStudyActivity", mock.Anything, mock.MatchedBy(func(in activities.ReconcileStudyInput) bool {
		roles[in.Role] = true
		return true
	})).Return(activities.ReconcileStudyOutput{}, nil)

	env.ExecuteWorkflow(ReconciliationWorkflow, ReconciliationInput{
		RunSetID: "rs1",
		Glob1:    "a/*.json",
		Glob2:    "b/*.json",
		Model1:   "m1",
		Model2:   "m2",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.True(t, roles[reconcile.RoleModel1])
	require.True(t, roles[reconcile.RoleModel2])

	resp, err := env.QueryWorkflow(QueryGetReconcileProgress)
	require.NoError(t, err)
	var prog ReconciliationProgress
	require.NoError(t, resp.Get(&prog))
	require.Equal(t, 1, prog.Total)
	require.Equal(t, "done", prog.PerStudy["5"])
}
