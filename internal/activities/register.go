package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.AskBatteryActivity)
	w.RegisterActivity(a.SaveRunRecordActivity)
	w.RegisterActivity(a.EvaluateRunSetActivity)
	w.RegisterActivity(a.DiffRunSetsActivity)
	w.RegisterActivity(a.ReconcileStudyActivity)
	w.RegisterActivity(a.ApplyVerdictsActivity)
}
