package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"paperscreen/internal/activities"
)

const (
	QueryGetBatchProgress     = "GetBatchProgress"
	QueryGetReconcileProgress = "GetReconcileProgress"
)

// BatchReviewWorkflow runs the question battery against every PDF in the
// input directory and persists one run record per paper.
func BatchReviewWorkflow(ctx workflow.Context, input BatchReviewInput) (string, error) {
	progress := BatchReviewProgress{
		RunSetID: input.RunSetID,
		PerPaper: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (BatchReviewProgress, error) {
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

	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	progress.Total = len(listOut.Paths)

	for i, path := range listOut.Paths {
		name := filepathBase(path)
		progress.PerPaper[name] = "processing"

		paperText := ""
		readerVersion := ""
		if input.UsePDFReader {
			var textOut activities.ExtractTextOutput
			if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{PaperPath: path}).Get(ctx, &textOut); err != nil {
				if isNoTextError(err) {
					progress.Failed++
					progress.PerPaper[name] = "failed"
					continue
				}
				return "", err
			}
			paperText = textOut.Text
			readerVersion = textOut.ReaderVersion
		}

		askIn := activities.AskBatteryInput{
			RunSetID:     input.RunSetID,
			Model:        input.Model,
			Temperature:  input.Temperature,
			ProcessAll:   input.ProcessAll,
			DelaySeconds: input.DelaySeconds,
		}
		if input.UsePDFReader {
			askIn.PaperText = paperText
		} else {
			askIn.PaperPath = path
		}

		var askOut activities.AskBatteryOutput
		rawText := ""
		prompt := ""
		status := "done"
		if err := workflow.ExecuteActivity(ctx, "AskBatteryActivity", askIn).Get(ctx, &askOut); err != nil {
			progress.Failed++
			status = "failed"
			rawText = "ERROR: API REQUEST FAILED"
			prompt = "request failed"
		} else {
			rawText = askOut.RawText
			prompt = askOut.Prompt
		}

		if err := workflow.ExecuteActivity(ctx, "SaveRunRecordActivity", activities.SaveRunRecordInput{
			RunSetID:      input.RunSetID,
			PDFName:       name,
			ModelName:     input.Model,
			RawText:       rawText,
			Temperature:   input.Temperature,
			PDFReader:     input.UsePDFReader,
			ReaderVersion: readerVersion,
			ProcessMode:   processMode(input.ProcessAll),
			Prompt:        prompt,
		}).Get(ctx, nil); err != nil {
			return "", err
		}

		progress.Done++
		progress.PerPaper[name] = status

		if input.DelaySeconds > 0 && i < len(listOut.Paths)-1 {
			if err := workflow.Sleep(ctx, time.Duration(input.DelaySeconds)*time.Second); err != nil {
				return "", err
			}
		}
	}
	return "completed", nil
}

func processMode(processAll bool) string {
	if processAll {
		return "all"
	}
	return "single"
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func filepathBase(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}
