package reconcile

import "paperscreen/internal/answers"

// Side is one model's stance on a disagreeing question.
type Side struct {
	Answer string `json:"answer"`
	Quote  string `json:"quote"`
	Model  string `json:"model"`
}

type Mismatch struct {
	Number string `json:"number"`
	Model1 Side   `json:"model1"`
	Model2 Side   `json:"model2"`
}

type StudyMismatches struct {
	StudyNumber string     `json:"study_number"`
	Mismatches  []Mismatch `json:"mismatches"`
}

// Diff reports every question where two canonicalized run sets over the same
// studies reach opposite conclusions. Only directly comparable answers
// count: a question absent from b, or unparseable on either side, is
// skipped. Studies without mismatches are omitted entirely. Inputs must be
// canonical sets (runs.CanonicalSets), with empty answers meaning absent.
func Diff(a, b []answers.StudySet, model1, model2 string) []StudyMismatches {
	var out []StudyMismatches
	for _, study := range a {
		var mismatches []Mismatch
		for _, entry := range study.Answers {
			other, ok := findAnswer(b, study.StudyNumber, entry.Number)
			if !ok {
				continue
			}
			if entry.Answer == "" || other.Answer == "" {
				continue
			}
			if entry.Answer != other.Answer {
				mismatches = append(mismatches, Mismatch{
					Number: entry.Number,
					Model1: Side{Answer: entry.Answer, Quote: entry.Quote, Model: model1},
					Model2: Side{Answer: other.Answer, Quote: other.Quote, Model: model2},
				})
			}
		}
		if len(mismatches) > 0 {
			out = append(out, StudyMismatches{StudyNumber: study.StudyNumber, Mismatches: mismatches})
		}
	}
	return out
}

func findAnswer(sets []answers.StudySet, study, number string) (answers.Answered, bool) {
	for _, set := range sets {
		if set.StudyNumber != study {
			continue
		}
		for _, entry := range set.Answers {
			if entry.Number == number {
				return entry, true
			}
		}
	}
	return answers.Answered{}, false
}
