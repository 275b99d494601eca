package activities

import (
	"paperscreen/internal/eval"
	"paperscreen/internal/reconcile"
)

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ExtractTextInput struct {
	PaperPath string `json:"paper_path"`
}

type ExtractTextOutput struct {
	Text          string `json:"text"`
	ReaderVersion string `json:"reader_version"`
}

type AskBatteryInput struct {
	RunSetID     string  `json:"run_set_id"`
	PaperPath    string  `json:"paper_path"`
	PaperText    string  `json:"paper_text,omitempty"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	ProcessAll   bool    `json:"process_all"`
	DelaySeconds int     `json:"delay_seconds"`
}

type AskBatteryOutput struct {
	RawText   string `json:"raw_text"`
	Prompt    string `json:"prompt"`
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
}

type SaveRunRecordInput struct {
	RunSetID      string  `json:"run_set_id"`
	PDFName       string  `json:"pdf_name"`
	ModelName     string  `json:"model_name"`
	RawText       string  `json:"raw_text"`
	Temperature   float64 `json:"temperature"`
	PDFReader     bool    `json:"pdf_reader"`
	ReaderVersion string  `json:"reader_version"`
	ProcessMode   string  `json:"process_mode"`
	Prompt        string  `json:"prompt"`
}

type SaveRunRecordOutput struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
}

type EvaluateRunSetInput struct {
	DataGlob       string   `json:"data_glob"`
	TruthCSV       string   `json:"truth_csv,omitempty"`
	Combine7ABC    bool     `json:"combine_7abc"`
	IgnoreNA       bool     `json:"ignore_na"`
	RequiredPapers []string `json:"required_papers,omitempty"`
}

type EvaluateRunSetOutput struct {
	Report eval.Report `json:"report"`
}

type DiffRunSetsInput struct {
	Glob1  string `json:"glob1"`
	Glob2  string `json:"glob2"`
	Model1 string `json:"model1"`
	Model2 string `json:"model2"`
}

type DiffRunSetsOutput struct {
	Mismatches []reconcile.StudyMismatches `json:"mismatches"`
}

type ReconcileStudyInput struct {
	RunSetID     string                    `json:"run_set_id"`
	Study        reconcile.StudyMismatches `json:"study"`
	Model        string                    `json:"model"`
	Role         string                    `json:"role"`
	Temperature  float64                   `json:"temperature"`
	UsePDFReader bool                      `json:"use_pdf_reader"`
}

type ReconcileStudyOutput struct {
	Path     string `json:"path"`
	Response string `json:"response"`
}

type ApplyVerdictsInput struct {
	DataGlob    string `json:"data_glob"`
	VerdictGlob string `json:"verdict_glob"`
	SecondGlob  string `json:"second_glob,omitempty"`
	TruthCSV    string `json:"truth_csv,omitempty"`
	IgnoreNA    bool   `json:"ignore_na"`
}

type ApplyVerdictsOutput struct {
	Corrections int         `json:"corrections"`
	Report      eval.Report `json:"report"`
}
