package truth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"paperscreen/internal/answers"
)

// NA marks a ground-truth row where the curators could not decide.
const NA = "NA"

type Key struct {
	Study    string
	Question string
}

// Table maps (study, question) to the curated canonical answer. A pair
// absent from the table means "no ground truth available", never "NA".
type Table map[Key]string

// Load reads semicolon-delimited ground truth with a
// study_number;prompt_number;answer header. Study numbers are normalized the
// same way model output is. With ignoreNA set, NA rows are dropped so the
// table only defines comparable pairs.
func Load(r io.Reader, ignoreNA bool) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read ground truth header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{"study_number", "prompt_number", "answer"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("ground truth is missing column %q", col)
		}
	}

	t := Table{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ground truth row: %w", err)
		}
		if len(row) <= idx["answer"] || len(row) <= idx["study_number"] || len(row) <= idx["prompt_number"] {
			continue
		}
		answer := strings.TrimSpace(row[idx["answer"]])
		if ignoreNA && answer == NA {
			continue
		}
		key := Key{
			Study:    answers.NormalizeStudyNumber(strings.TrimSpace(row[idx["study_number"]])),
			Question: strings.TrimSpace(row[idx["prompt_number"]]),
		}
		t[key] = answer
	}
	return t, nil
}

func LoadFile(path string, ignoreNA bool) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer f.Close()
	return Load(f, ignoreNA)
}

func (t Table) Lookup(study, question string) (string, bool) {
	answer, ok := t[Key{Study: study, Question: question}]
	return answer, ok
}
