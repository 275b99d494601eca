package runs

import (
	"bytes"
	"encoding/json"

	"paperscreen/internal/answers"
)

// Sentinel fills every metadata field a record's version cannot supply.
const Sentinel = "-"

// apiUploadMarker is the v0/v1 legacy literal in PDF_Reader meaning the
// paper went up through the provider's file API instead of a local reader.
const apiUploadMarker = "api-upload"

// Run is the uniform surface every record version normalizes onto. All
// metadata is stringly with Sentinel standing in for anything the record's
// version did not carry.
type Run struct {
	Version          float64            `json:"version"`
	ID               string             `json:"id"`
	Study            string             `json:"study"`
	Model            string             `json:"model"`
	Temperature      string             `json:"temperature"`
	Date             string             `json:"date"`
	PDFReader        string             `json:"pdf_reader"`
	PDFReaderVersion string             `json:"pdf_reader_version"`
	ProcessMode      string             `json:"process_mode"`
	Prompt           string             `json:"prompt"`
	RawText          string             `json:"raw_text"`
	Answers          []answers.Answered `json:"answers"`
}

// Normalize lifts a persisted record of any known version onto the Run
// surface, delegating the raw answer block to the parser. ok is false when
// a mandatory field is missing so batch loaders can skip the file and keep
// going. Version handling is a chain: the v0 baseline of sentinels, then the
// v1 fields with the reader-name quirk, then the v2 fields on top.
func Normalize(rec Record, combineComposite bool) (Run, bool) {
	if rec.RawData == nil || rec.PDFName == nil || rec.ModelName == nil {
		return Run{}, false
	}
	run := Run{
		Version:          rec.Version,
		ID:               Sentinel,
		Study:            *rec.PDFName,
		Model:            *rec.ModelName,
		Temperature:      Sentinel,
		Date:             Sentinel,
		PDFReader:        Sentinel,
		PDFReaderVersion: Sentinel,
		ProcessMode:      Sentinel,
		Prompt:           Sentinel,
		RawText:          *rec.RawData,
	}
	if id := scalarString(rec.ID); id != "" {
		run.ID = id
	}
	if rec.Version >= 1 {
		applyV1(rec, &run)
	}
	if rec.Version >= 2 {
		applyV2(rec, &run)
	}
	run.Answers = answers.Parse(run.RawText, combineComposite)
	return run, true
}

func applyV1(rec Record, run *Run) {
	if t := scalarString(rec.Temperature); t != "" {
		run.Temperature = t
	}
	if rec.Date != "" {
		run.Date = rec.Date
	}
	if rec.ProcessMode != "" {
		run.ProcessMode = rec.ProcessMode
	}
	if rec.Version <= 1 {
		// Up to v1 the reader name rode in PDF_Reader itself.
		name := scalarString(rec.PDFReader)
		if name == "" {
			name = Sentinel
		}
		if name == apiUploadMarker {
			run.PDFReader = "false"
			run.PDFReaderVersion = Sentinel
		} else {
			run.PDFReader = "true"
			run.PDFReaderVersion = name
		}
	}
}

func applyV2(rec Record, run *Run) {
	if rec.Prompt != "" {
		run.Prompt = rec.Prompt
	}
	run.PDFReaderVersion = Sentinel
	if rec.PDFReaderVersion != "" {
		run.PDFReaderVersion = rec.PDFReaderVersion
	}
	run.PDFReader = readerFlag(rec.PDFReader)
}

func readerFlag(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Sentinel
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true"
		}
		return "false"
	}
	if s := scalarString(raw); s != "" {
		return s
	}
	return Sentinel
}

// scalarString renders a scalar JSON value (string, number or bool) as the
// string the uniform metadata surface wants. Anything else is empty.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true"
		}
		return "false"
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
