package eval

import (
	"paperscreen/internal/answers"
	"paperscreen/internal/truth"
)

type QuestionStats struct {
	Matches int `json:"matches"`
	Total   int `json:"total"`
}

// BiasStats counts directional disagreement: YesToNo is ground truth yes
// answered no (a false negative), NoToYes the inverse.
type BiasStats struct {
	YesToNo int `json:"yes_to_no"`
	NoToYes int `json:"no_to_yes"`
}

// BiasStudies records which studies produced each bias event.
type BiasStudies struct {
	YesToNo []string `json:"yes_to_no"`
	NoToYes []string `json:"no_to_yes"`
}

// Comparison is the outcome of checking one study against ground truth.
type Comparison struct {
	Study          string                   `json:"study_number"`
	Matches        int                      `json:"matches"`
	Total          int                      `json:"total"`
	SkippedFormat  int                      `json:"skipped_format"`
	SkippedNoTruth int                      `json:"skipped_no_ground_truth"`
	FormatErrors   []answers.Answered       `json:"format_errors,omitempty"`
	PerQuestion    map[string]QuestionStats `json:"per_question"`
	Bias           map[string]BiasStats     `json:"bias"`
	BiasStudies    map[string]BiasStudies   `json:"bias_studies"`
	GlobalBias     BiasStats                `json:"global_bias"`
}

// Compare checks one study's answers against ground truth. Answers that do
// not canonicalize are skipped as format errors, answers without a ground
// truth entry are skipped separately; neither counts against the match rate.
// Everything else is a valid comparison that either matches or lands in one
// of the two bias buckets.
func Compare(set answers.StudySet, table truth.Table) Comparison {
	c := Comparison{
		Study:       set.StudyNumber,
		PerQuestion: map[string]QuestionStats{},
		Bias:        map[string]BiasStats{},
		BiasStudies: map[string]BiasStudies{},
	}
	for _, entry := range set.Answers {
		predicted, ok := answers.Canonical(entry.Answer)
		if !ok {
			c.SkippedFormat++
			c.FormatErrors = append(c.FormatErrors, entry)
			continue
		}
		want, ok := table.Lookup(set.StudyNumber, entry.Number)
		if !ok {
			c.SkippedNoTruth++
			continue
		}

		q := c.PerQuestion[entry.Number]
		q.Total++
		if predicted == want {
			c.Matches++
			q.Matches++
		} else {
			b := c.Bias[entry.Number]
			s := c.BiasStudies[entry.Number]
			switch {
			case want == answers.AnswerYes && predicted == answers.AnswerNo:
				b.YesToNo++
				c.GlobalBias.YesToNo++
				s.YesToNo = append(s.YesToNo, set.StudyNumber)
			case want == answers.AnswerNo && predicted == answers.AnswerYes:
				b.NoToYes++
				c.GlobalBias.NoToYes++
				s.NoToYes = append(s.NoToYes, set.StudyNumber)
			}
			c.Bias[entry.Number] = b
			c.BiasStudies[entry.Number] = s
		}
		c.PerQuestion[entry.Number] = q
		c.Total++
	}
	return c
}

// Valid reports whether the study produced at least one comparable answer.
// A paper with only format errors or only missing ground truth is not valid
// no matter how many rows it had.
func (c Comparison) Valid() bool { return c.Total > 0 }
