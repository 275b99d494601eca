package runs

import "encoding/json"

// Record is the persisted JSON shape of one model run over one paper.
// Raw_Data, PDF_Name and Model_Name are mandatory in every version; the
// Version field gates which of the remaining fields can be trusted. Fields
// whose JSON type drifted across versions (PDF_Reader held the reader name
// up to v1 and a bool from v2) stay raw here and are interpreted during
// normalization.
type Record struct {
	Version          float64         `json:"Version,omitempty"`
	ID               json.RawMessage `json:"ID,omitempty"`
	RawData          *string         `json:"Raw_Data,omitempty"`
	PDFName          *string         `json:"PDF_Name,omitempty"`
	ModelName        *string         `json:"Model_Name,omitempty"`
	Temperature      json.RawMessage `json:"Temperature,omitempty"`
	Date             string          `json:"Date,omitempty"`
	PDFReader        json.RawMessage `json:"PDF_Reader,omitempty"`
	PDFReaderVersion string          `json:"PDF_Reader_Version,omitempty"`
	ProcessMode      string          `json:"Process_Mode,omitempty"`
	Prompt           string          `json:"Prompt,omitempty"`
}

// CurrentVersion is what freshly persisted records carry.
const CurrentVersion = 2

// NewRecordParams collects everything a current-version record persists.
type NewRecordParams struct {
	ID               string
	PDFName          string
	ModelName        string
	RawData          string
	Temperature      float64
	Date             string
	PDFReader        bool
	PDFReaderVersion string
	ProcessMode      string
	Prompt           string
}

// NewRecord builds a current-version record for persisting a fresh run.
func NewRecord(p NewRecordParams) Record {
	id, _ := json.Marshal(p.ID)
	temperature, _ := json.Marshal(p.Temperature)
	reader, _ := json.Marshal(p.PDFReader)
	return Record{
		Version:          CurrentVersion,
		ID:               id,
		RawData:          &p.RawData,
		PDFName:          &p.PDFName,
		ModelName:        &p.ModelName,
		Temperature:      temperature,
		Date:             p.Date,
		PDFReader:        reader,
		PDFReaderVersion: p.PDFReaderVersion,
		ProcessMode:      p.ProcessMode,
		Prompt:           p.Prompt,
	}
}
