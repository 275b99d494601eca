package workflows

type BatchReviewInput struct {
	RunSetID     string  `json:"run_set_id"`
	InputDir     string  `json:"input_dir"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	ProcessAll   bool    `json:"process_all"`
	UsePDFReader bool    `json:"use_pdf_reader"`
	DelaySeconds int     `json:"delay_seconds"`
}

type BatchReviewProgress struct {
	RunSetID string            `json:"run_set_id"`
	Total    int               `json:"total"`
	Done     int               `json:"done"`
	Failed   int               `json:"failed"`
	PerPaper map[string]string `json:"per_paper_status"`
}

type ReconciliationInput struct {
	RunSetID     string  `json:"run_set_id"`
	Glob1        string  `json:"glob1"`
	Glob2        string  `json:"glob2"`
	Model1       string  `json:"model1"`
	Model2       string  `json:"model2"`
	Temperature  float64 `json:"temperature"`
	UsePDFReader bool    `json:"use_pdf_reader"`
	DelaySeconds int     `json:"delay_seconds"`
}

type ReconciliationProgress struct {
	RunSetID string            `json:"run_set_id"`
	Total    int               `json:"total"`
	Done     int               `json:"done"`
	Failed   int               `json:"failed"`
	PerStudy map[string]string `json:"per_study_status"`
}
