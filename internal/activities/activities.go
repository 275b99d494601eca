package activities

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"paperscreen/internal/answers"
	"paperscreen/internal/config"
	"paperscreen/internal/eval"
	"paperscreen/internal/extract"
	"paperscreen/internal/prompts"
	"paperscreen/internal/providers"
	"paperscreen/internal/reconcile"
	"paperscreen/internal/runs"
	"paperscreen/internal/storage"
	"paperscreen/internal/truth"
	"paperscreen/internal/util"
)

// Activities holds the shared dependencies for all worker activities.
type Activities struct {
	cfg       config.Config
	runRepo   *storage.RunRepo
	auditRepo *storage.LLMAuditRepo
	providers *providers.Manager
	battery   *prompts.Battery
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	battery, err := prompts.Load(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	mgr, err := providers.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("init providers: %w", err)
	}
	a := &Activities{
		cfg:       cfg,
		providers: mgr,
		battery:   battery,
	}
	if db != nil {
		a.runRepo = storage.NewRunRepo(db)
		a.auditRepo = storage.NewLLMAuditRepo(db)
	}
	return a, nil
}

// ListPDFsActivity enumerates the PDF files under the input directory,
// sorted by name so run sets are deterministic.
func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	dir := in.InputDir
	if dir == "" {
		dir = a.cfg.PDFRoot
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ListPDFsOutput{}, fmt.Errorf("read pdf dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	text, err := extract.Text(in.PaperPath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract %s: %w", in.PaperPath, err)
	}
	return ExtractTextOutput{Text: text, ReaderVersion: extract.Version()}, nil
}

// AskBatteryActivity sends the question battery to the model, either as one
// combined prompt or question by question with a delay between requests.
func (a *Activities) AskBatteryActivity(ctx context.Context, in AskBatteryInput) (AskBatteryOutput, error) {
	provider, err := a.providerFor(in.Model)
	if err != nil {
		return AskBatteryOutput{}, err
	}

	if in.ProcessAll {
		req := providers.GenerateRequest{
			Operation:   "battery",
			Prompt:      a.battery.FullPrompt(),
			PaperText:   in.PaperText,
			PaperPath:   in.PaperPath,
			Temperature: in.Temperature,
		}
		resp, info, err := provider.Generate(ctx, req)
		a.audit(ctx, "battery", in.RunSetID, in.PaperPath, info, err)
		if err != nil {
			return AskBatteryOutput{}, fmt.Errorf("battery request (%s): %w", info.Name, err)
		}
		return AskBatteryOutput{
			RawText:   resp.Text,
			Prompt:    a.battery.FullPrompt(),
			Provider:  info.Name,
			ModelUsed: info.Model,
		}, nil
	}

	var lines []string
	lastInfo := providers.ProviderInfo{}
	for i := 0; i < a.battery.Len(); i++ {
		single, _ := a.battery.SinglePrompt(i)
		req := providers.GenerateRequest{
			Operation:   "battery",
			Prompt:      single,
			PaperText:   in.PaperText,
			PaperPath:   in.PaperPath,
			Temperature: in.Temperature,
		}
		resp, info, err := provider.Generate(ctx, req)
		lastInfo = info
		a.audit(ctx, "battery", in.RunSetID, in.PaperPath, info, err)
		if err != nil {
			log.Printf("activities: question %d failed for %s: %v", i+1, in.PaperPath, err)
			lines = append(lines, "ERROR: SINGLE PROMPT REQUEST")
		} else {
			lines = append(lines, strings.TrimSpace(resp.Text))
		}
		if in.DelaySeconds > 0 && i < a.battery.Len()-1 {
			select {
			case <-ctx.Done():
				return AskBatteryOutput{}, ctx.Err()
			case <-time.After(time.Duration(in.DelaySeconds) * time.Second):
			}
		}
	}
	return AskBatteryOutput{
		RawText:   strings.Join(lines, "\n"),
		Prompt:    "splitted prompt request",
		Provider:  lastInfo.Name,
		ModelUsed: lastInfo.Model,
	}, nil
}

// SaveRunRecordActivity writes a versioned run record to disk and archives
// its location in Postgres when a pool is configured.
func (a *Activities) SaveRunRecordActivity(ctx context.Context, in SaveRunRecordInput) (SaveRunRecordOutput, error) {
	now := time.Now()
	runID := uuid.NewString()
	rec := runs.NewRecord(runs.NewRecordParams{
		ID:               runID,
		Date:             now.Format("2006-01-02 15:04:05"),
		PDFName:          in.PDFName,
		ModelName:        in.ModelName,
		RawData:          in.RawText,
		Temperature:      in.Temperature,
		PDFReader:        in.PDFReader,
		PDFReaderVersion: in.ReaderVersion,
		ProcessMode:      in.ProcessMode,
		Prompt:           in.Prompt,
	})

	study := answers.NormalizeStudyNumber(in.PDFName)
	dir := filepath.Join(a.cfg.ResultsRoot, in.RunSetID)
	if err := util.EnsureDir(dir); err != nil {
		return SaveRunRecordOutput{}, err
	}
	name := fmt.Sprintf("raw-%s-%s.json", study, now.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := util.WriteJSONAtomic(path, rec); err != nil {
		return SaveRunRecordOutput{}, fmt.Errorf("write run record: %w", err)
	}

	if a.runRepo != nil {
		row := storage.RunRow{
			RunID:    runID,
			RunSetID: in.RunSetID,
			Study:    study,
			Model:    in.ModelName,
			Version:  runs.CurrentVersion,
			FilePath: path,
		}
		if err := a.runRepo.Insert(ctx, row); err != nil {
			return SaveRunRecordOutput{}, fmt.Errorf("archive run record: %w", err)
		}
	}
	return SaveRunRecordOutput{RunID: runID, Path: path}, nil
}

func (a *Activities) EvaluateRunSetActivity(ctx context.Context, in EvaluateRunSetInput) (EvaluateRunSetOutput, error) {
	table, err := a.loadTruth(in.TruthCSV, in.IgnoreNA)
	if err != nil {
		return EvaluateRunSetOutput{}, err
	}
	loaded, err := runs.LoadGlob(in.DataGlob, in.Combine7ABC)
	if err != nil {
		return EvaluateRunSetOutput{}, fmt.Errorf("load runs: %w", err)
	}
	if len(loaded) == 0 {
		return EvaluateRunSetOutput{}, fmt.Errorf("%w: %s", util.ErrNoRunsFound, in.DataGlob)
	}
	sets := runs.AnswerSets(loaded)
	report := eval.Aggregate(sets, table, in.RequiredPapers)
	return EvaluateRunSetOutput{Report: report}, nil
}

func (a *Activities) DiffRunSetsActivity(ctx context.Context, in DiffRunSetsInput) (DiffRunSetsOutput, error) {
	first, err := runs.LoadGlob(in.Glob1, false)
	if err != nil {
		return DiffRunSetsOutput{}, fmt.Errorf("load first run set: %w", err)
	}
	second, err := runs.LoadGlob(in.Glob2, false)
	if err != nil {
		return DiffRunSetsOutput{}, fmt.Errorf("load second run set: %w", err)
	}
	if len(first) == 0 || len(second) == 0 {
		return DiffRunSetsOutput{}, fmt.Errorf("%w: both run sets must contain records", util.ErrNoRunsFound)
	}
	mismatches := reconcile.Diff(runs.CanonicalSets(first), runs.CanonicalSets(second), in.Model1, in.Model2)
	return DiffRunSetsOutput{Mismatches: mismatches}, nil
}

// ReconcileStudyActivity asks one model to arbitrate the mismatching answers
// for a single paper and stores the verdict as a run record.
func (a *Activities) ReconcileStudyActivity(ctx context.Context, in ReconcileStudyInput) (ReconcileStudyOutput, error) {
	provider, err := a.providerFor(in.Model)
	if err != nil {
		return ReconcileStudyOutput{}, err
	}

	prompt := reconcile.BuildArbitrationPrompt(in.Study, a.battery, in.Role)

	req := providers.GenerateRequest{
		Operation:   "arbitration",
		Prompt:      prompt,
		Temperature: in.Temperature,
	}
	pdfPath := a.paperPath(in.Study.StudyNumber)
	readerVersion := ""
	if in.UsePDFReader {
		text, err := extract.Text(pdfPath)
		if err != nil {
			return ReconcileStudyOutput{}, fmt.Errorf("extract %s: %w", pdfPath, err)
		}
		req.PaperText = text
		readerVersion = extract.Version()
	} else {
		req.PaperPath = pdfPath
	}

	resp, info, err := provider.Generate(ctx, req)
	a.audit(ctx, "arbitration", in.RunSetID, in.Study.StudyNumber, info, err)
	if err != nil {
		return ReconcileStudyOutput{}, fmt.Errorf("arbitration request (%s): %w", info.Name, err)
	}

	saved, err := a.SaveRunRecordActivity(ctx, SaveRunRecordInput{
		RunSetID:      in.RunSetID,
		PDFName:       in.Study.StudyNumber,
		ModelName:     in.Model,
		RawText:       resp.Text,
		Temperature:   in.Temperature,
		PDFReader:     in.UsePDFReader,
		ReaderVersion: readerVersion,
		ProcessMode:   "reconciliation",
		Prompt:        prompt,
	})
	if err != nil {
		return ReconcileStudyOutput{}, err
	}
	return ReconcileStudyOutput{Path: saved.Path, Response: resp.Text}, nil
}

// ApplyVerdictsActivity folds one or two rounds of arbitration verdicts into
// a run set and re-scores the corrected answers against ground truth.
func (a *Activities) ApplyVerdictsActivity(ctx context.Context, in ApplyVerdictsInput) (ApplyVerdictsOutput, error) {
	table, err := a.loadTruth(in.TruthCSV, in.IgnoreNA)
	if err != nil {
		return ApplyVerdictsOutput{}, err
	}
	loaded, err := runs.LoadGlob(in.DataGlob, false)
	if err != nil {
		return ApplyVerdictsOutput{}, fmt.Errorf("load runs: %w", err)
	}
	if len(loaded) == 0 {
		return ApplyVerdictsOutput{}, fmt.Errorf("%w: %s", util.ErrNoRunsFound, in.DataGlob)
	}
	verdicts, err := reconcile.LoadVerdicts(in.VerdictGlob)
	if err != nil {
		return ApplyVerdictsOutput{}, fmt.Errorf("load verdicts: %w", err)
	}
	if in.SecondGlob != "" {
		second, err := reconcile.LoadVerdicts(in.SecondGlob)
		if err != nil {
			return ApplyVerdictsOutput{}, fmt.Errorf("load second-round verdicts: %w", err)
		}
		verdicts = reconcile.Combine(verdicts, second)
	}

	corrections := 0
	for _, v := range verdicts {
		corrections += len(v.Mistakes)
	}
	corrected := reconcile.Apply(verdicts, runs.CanonicalSets(loaded))
	report := eval.Aggregate(corrected, table, nil)
	return ApplyVerdictsOutput{Corrections: corrections, Report: report}, nil
}

func (a *Activities) loadTruth(path string, ignoreNA bool) (truth.Table, error) {
	if path == "" {
		path = a.cfg.TruthCSV
	}
	table, err := truth.LoadFile(path, ignoreNA)
	if err != nil {
		return nil, fmt.Errorf("load truth table: %w", err)
	}
	return table, nil
}

// providerFor routes a model name to a configured provider. Known model
// prefixes map onto their vendors, anything else falls back to the first
// configured provider.
func (a *Activities) providerFor(model string) (providers.LLMProvider, error) {
	if a.providers.Count() == 0 {
		return nil, fmt.Errorf("no llm providers configured")
	}
	name := ""
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini"):
		name = "gemini"
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"), m == "deepseek-chat":
		name = "openai"
	case strings.HasPrefix(m, "deepseek"), strings.HasPrefix(m, "llama"), strings.HasPrefix(m, "qwen"):
		name = "ollama"
	case strings.HasPrefix(m, "mock"):
		name = "mock"
	}
	if name != "" {
		if p, _, ok := a.providers.FindByName(name); ok {
			return p, nil
		}
	}
	p, _ := a.providers.First()
	return p, nil
}

func (a *Activities) paperPath(study string) string {
	padded := study
	for len(padded) < 4 {
		padded = "0" + padded
	}
	return util.SafeJoin(a.cfg.PDFRoot, padded+".pdf")
}

func (a *Activities) audit(ctx context.Context, op, runSetID, study string, info providers.ProviderInfo, callErr error) {
	if a.auditRepo == nil {
		return
	}
	rec := storage.LLMCallRecord{
		Operation:    op,
		RunSetID:     runSetID,
		Study:        answers.NormalizeStudyNumber(filepath.Base(study)),
		ProviderName: info.Name,
		Model:        info.Model,
		Status:       "ok",
	}
	if callErr != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(callErr))
	}
	if err := a.auditRepo.Insert(ctx, rec); err != nil {
		log.Printf("activities: audit insert failed: %v", err)
	}
}
