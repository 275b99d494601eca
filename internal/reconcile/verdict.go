package reconcile

import (
	"bytes"
	"encoding/json"
	"regexp"

	"paperscreen/internal/answers"
	"paperscreen/internal/runs"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Mistake is one confirmed correction out of an arbitration verdict. Models
// emit the number as a JSON int or a string like "7a"; both decode.
type Mistake struct {
	Number string `json:"number"`
	Reason string `json:"reason,omitempty"`
}

func (m *Mistake) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Number json.RawMessage `json:"number"`
			Reason string          `json:"reason"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		m.Number = scalarString(obj.Number)
		m.Reason = obj.Reason
		return nil
	}
	// Early verdict files carried plain number lists.
	m.Number = scalarString(trimmed)
	return nil
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Verdict is one study's confirmed mistakes.
type Verdict struct {
	StudyNumber string    `json:"study_number"`
	Mistakes    []Mistake `json:"mistakes"`
}

// ParseVerdict pulls the first fenced JSON block out of an arbitration
// response. A missing block, decode failure or mistake without a number all
// degrade to an empty list, never an error: a model that did not follow the
// format simply confirmed nothing.
func ParseVerdict(text string) []Mistake {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var payload struct {
		Mistakes []Mistake `json:"mistakes"`
	}
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil
	}
	out := make([]Mistake, 0, len(payload.Mistakes))
	for _, mistake := range payload.Mistakes {
		if mistake.Number != "" {
			out = append(out, mistake)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LoadVerdicts reads arbitration responses back out of persisted run
// records: the response text rides in Raw_Data and the study in PDF_Name.
// Files without a usable verdict are skipped. Study numbers are normalized
// so verdicts line up with the run sets they correct.
func LoadVerdicts(pattern string) ([]Verdict, error) {
	list, err := runs.LoadGlob(pattern, false)
	if err != nil {
		return nil, err
	}
	var out []Verdict
	for _, run := range list {
		mistakes := ParseVerdict(run.RawText)
		if len(mistakes) == 0 {
			continue
		}
		out = append(out, Verdict{
			StudyNumber: answers.NormalizeStudyNumber(run.Study),
			Mistakes:    mistakes,
		})
	}
	return out, nil
}
