package runs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"paperscreen/internal/answers"
)

func decodeRecord(t *testing.T, raw string) Record {
	t.Helper()
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func TestNormalizeV0Defaults(t *testing.T) {
	rec := decodeRecord(t, `{"Raw_Data":"1;yes;q\n","PDF_Name":"0005.pdf","Model_Name":"gpt-4o"}`)
	run, ok := Normalize(rec, false)
	if !ok {
		t.Fatal("expected ok")
	}
	if run.Study != "0005.pdf" || run.Model != "gpt-4o" {
		t.Fatalf("mandatory fields mangled: %+v", run)
	}
	for name, got := range map[string]string{
		"ID":               run.ID,
		"Temperature":      run.Temperature,
		"Date":             run.Date,
		"PDFReader":        run.PDFReader,
		"PDFReaderVersion": run.PDFReaderVersion,
		"ProcessMode":      run.ProcessMode,
		"Prompt":           run.Prompt,
	} {
		if got != Sentinel {
			t.Fatalf("%s: expected sentinel, got %q", name, got)
		}
	}
	if len(run.Answers) == 0 {
		t.Fatal("raw data was not parsed")
	}
}

func TestNormalizeV1ReaderName(t *testing.T) {
	rec := decodeRecord(t, `{"Version":1,"Raw_Data":"1;yes;q\n","PDF_Name":"12","Model_Name":"m","Temperature":0.2,"Date":"2024-01-01","PDF_Reader":"pypdf-3.1","Process_Mode":"all"}`)
	run, ok := Normalize(rec, false)
	if !ok {
		t.Fatal("expected ok")
	}
	if run.PDFReader != "true" {
		t.Fatalf("expected reader flag true, got %q", run.PDFReader)
	}
	if run.PDFReaderVersion != "pypdf-3.1" {
		t.Fatalf("expected reader name carried over, got %q", run.PDFReaderVersion)
	}
	if run.Temperature != "0.2" || run.Date != "2024-01-01" || run.ProcessMode != "all" {
		t.Fatalf("v1 metadata lost: %+v", run)
	}
	if run.Prompt != Sentinel {
		t.Fatalf("prompt is a v2 field, got %q", run.Prompt)
	}
}

func TestNormalizeV1APIUpload(t *testing.T) {
	rec := decodeRecord(t, `{"Version":1,"Raw_Data":"1;yes;q\n","PDF_Name":"12","Model_Name":"m","PDF_Reader":"api-upload"}`)
	run, ok := Normalize(rec, false)
	if !ok {
		t.Fatal("expected ok")
	}
	if run.PDFReader != "false" {
		t.Fatalf("api-upload must mean no local reader, got %q", run.PDFReader)
	}
	if run.PDFReaderVersion != Sentinel {
		t.Fatalf("api-upload carries no reader version, got %q", run.PDFReaderVersion)
	}
}

func TestNormalizeV2(t *testing.T) {
	rec := decodeRecord(t, `{"Version":2,"ID":"abc","Raw_Data":"1;yes;q\n","PDF_Name":"12","Model_Name":"m","Temperature":0,"Date":"2024-05-01","PDF_Reader":true,"PDF_Reader_Version":"reader-2","Process_Mode":"single","Prompt":"full battery"}`)
	run, ok := Normalize(rec, false)
	if !ok {
		t.Fatal("expected ok")
	}
	if run.ID != "abc" {
		t.Fatalf("expected ID carried, got %q", run.ID)
	}
	if run.PDFReader != "true" || run.PDFReaderVersion != "reader-2" {
		t.Fatalf("v2 reader fields wrong: %+v", run)
	}
	if run.Prompt != "full battery" {
		t.Fatalf("expected prompt carried, got %q", run.Prompt)
	}
	if run.Temperature != "0" {
		t.Fatalf("expected temperature 0, got %q", run.Temperature)
	}
}

func TestNormalizeMissingMandatoryField(t *testing.T) {
	for _, raw := range []string{
		`{"PDF_Name":"12","Model_Name":"m"}`,
		`{"Raw_Data":"x","Model_Name":"m"}`,
		`{"Raw_Data":"x","PDF_Name":"12"}`,
	} {
		rec := decodeRecord(t, raw)
		if _, ok := Normalize(rec, false); ok {
			t.Fatalf("expected not ok for %s", raw)
		}
	}
}

func TestNewRecordRoundTrip(t *testing.T) {
	rec := NewRecord(NewRecordParams{
		ID:               "id-1",
		PDFName:          "0007.pdf",
		ModelName:        "gpt-4o",
		RawData:          "1;yes;q\n",
		Temperature:      0.2,
		Date:             "2024-06-01 10:00:00",
		PDFReader:        true,
		PDFReaderVersion: "reader-1",
		ProcessMode:      "all",
		Prompt:           "p",
	})
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	run, ok := Normalize(decodeRecord(t, string(b)), false)
	if !ok {
		t.Fatal("expected ok")
	}
	if run.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %v", CurrentVersion, run.Version)
	}
	if run.ID != "id-1" || run.PDFReader != "true" || run.PDFReaderVersion != "reader-1" {
		t.Fatalf("round trip lost fields: %+v", run)
	}
}

func TestLoadGlobSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := `{"Version":2,"Raw_Data":"1;yes;q\n","PDF_Name":"0005.pdf","Model_Name":"m"}`
	if err := os.WriteFile(filepath.Join(dir, "good.json"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "incomplete.json"), []byte(`{"PDF_Name":"1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadGlob(filepath.Join(dir, "*.json"), false)
	if err != nil {
		t.Fatalf("LoadGlob: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 loaded run, got %d", len(loaded))
	}
	if loaded[0].Study != "0005.pdf" {
		t.Fatalf("wrong run loaded: %+v", loaded[0])
	}
}

func TestAnswerSetsNormalizeStudy(t *testing.T) {
	runs := []Run{{Study: "0005.pdf"}, {Study: "12"}}
	sets := AnswerSets(runs)
	if sets[0].StudyNumber != "5" || sets[1].StudyNumber != "12" {
		t.Fatalf("study numbers not normalized: %+v", sets)
	}
}

func TestCanonicalSets(t *testing.T) {
	runs := []Run{{
		Study: "5",
		Answers: []answers.Answered{
			{Number: "1", Answer: "Yes", Quote: "a"},
			{Number: "2", Answer: "no", Quote: "b"},
			{Number: "3", Answer: "not-existent", Quote: "c"},
		},
	}}
	sets := CanonicalSets(runs)
	got := sets[0].Answers
	if got[0].Answer != "1" || got[1].Answer != "0" || got[2].Answer != "" {
		t.Fatalf("canonical mapping wrong: %+v", got)
	}
}
