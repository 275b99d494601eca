package eval

import (
	"regexp"
	"sort"
	"strconv"

	"paperscreen/internal/answers"
	"paperscreen/internal/truth"
)

// PaperSummary is one run's line in the report. Percent is -1 when the paper
// produced no valid comparisons, which also sorts it to the end.
type PaperSummary struct {
	Study   string  `json:"study_number"`
	Matches int     `json:"matches"`
	Total   int     `json:"total"`
	Percent float64 `json:"match_percent"`
}

type QuestionSummary struct {
	Number      string      `json:"number"`
	Matches     int         `json:"matches"`
	Total       int         `json:"total"`
	Bias        BiasStats   `json:"bias"`
	BiasStudies BiasStudies `json:"bias_studies"`
}

// FormatError tags a skipped answer with the study it came from so noisy
// output stays traceable.
type FormatError struct {
	Study string           `json:"study_number"`
	Entry answers.Answered `json:"entry"`
}

type Report struct {
	GlobalMatches  int               `json:"global_matches"`
	GlobalTotal    int               `json:"global_total"`
	GlobalBias     BiasStats         `json:"global_bias"`
	SkippedFormat  int               `json:"skipped_format"`
	SkippedNoTruth int               `json:"skipped_no_ground_truth"`
	FormatErrors   []FormatError     `json:"format_errors,omitempty"`
	FailedPapers   []string          `json:"failed_papers,omitempty"`
	MissingPapers  []string          `json:"missing_papers,omitempty"`
	Papers         []PaperSummary    `json:"papers"`
	Questions      []QuestionSummary `json:"questions"`
}

// Aggregate drives Compare across a whole run set and merges the results.
// Merging is a plain reduction - counter sums and list concatenation - so
// the order of runs never changes the totals. When a required-paper roster
// is given, whatever it expects but the run set never produced comes back as
// missing papers.
func Aggregate(sets []answers.StudySet, table truth.Table, requiredPapers []string) Report {
	var report Report
	perQuestion := map[string]QuestionStats{}
	perBias := map[string]BiasStats{}
	perBiasStudies := map[string]BiasStudies{}

	remaining := make(map[string]struct{}, len(requiredPapers))
	for _, paper := range requiredPapers {
		remaining[answers.NormalizeStudyNumber(paper)] = struct{}{}
	}

	for _, set := range sets {
		c := Compare(set, table)

		report.GlobalMatches += c.Matches
		report.GlobalTotal += c.Total
		report.GlobalBias.YesToNo += c.GlobalBias.YesToNo
		report.GlobalBias.NoToYes += c.GlobalBias.NoToYes
		report.SkippedFormat += c.SkippedFormat
		report.SkippedNoTruth += c.SkippedNoTruth
		for _, entry := range c.FormatErrors {
			report.FormatErrors = append(report.FormatErrors, FormatError{Study: c.Study, Entry: entry})
		}
		for number, stats := range c.PerQuestion {
			q := perQuestion[number]
			q.Matches += stats.Matches
			q.Total += stats.Total
			perQuestion[number] = q
		}
		for number, bias := range c.Bias {
			b := perBias[number]
			b.YesToNo += bias.YesToNo
			b.NoToYes += bias.NoToYes
			perBias[number] = b
		}
		for number, studies := range c.BiasStudies {
			s := perBiasStudies[number]
			s.YesToNo = append(s.YesToNo, studies.YesToNo...)
			s.NoToYes = append(s.NoToYes, studies.NoToYes...)
			perBiasStudies[number] = s
		}

		if !c.Valid() {
			report.FailedPapers = append(report.FailedPapers, c.Study)
		}

		percent := -1.0
		if c.Total > 0 {
			percent = float64(c.Matches) / float64(c.Total) * 100
		}
		report.Papers = append(report.Papers, PaperSummary{
			Study:   c.Study,
			Matches: c.Matches,
			Total:   c.Total,
			Percent: percent,
		})

		delete(remaining, c.Study)
	}

	for paper := range remaining {
		report.MissingPapers = append(report.MissingPapers, paper)
	}
	sort.Strings(report.MissingPapers)

	sort.SliceStable(report.Papers, func(i, j int) bool {
		return report.Papers[i].Percent > report.Papers[j].Percent
	})

	numbers := make([]string, 0, len(perQuestion))
	for number := range perQuestion {
		numbers = append(numbers, number)
	}
	sortQuestionNumbers(numbers)
	for _, number := range numbers {
		stats := perQuestion[number]
		report.Questions = append(report.Questions, QuestionSummary{
			Number:      number,
			Matches:     stats.Matches,
			Total:       stats.Total,
			Bias:        perBias[number],
			BiasStudies: perBiasStudies[number],
		})
	}

	return report
}

var questionKeyPattern = regexp.MustCompile(`^(\d+)([a-zA-Z]*)`)

// sortQuestionNumbers orders by numeric prefix then alphabetic suffix, so
// 7a < 7b < 10 instead of the lexical "10" < "7a". Numbers that do not match
// the pattern at all go last.
func sortQuestionNumbers(numbers []string) {
	sort.SliceStable(numbers, func(i, j int) bool {
		ni, si, oki := questionKey(numbers[i])
		nj, sj, okj := questionKey(numbers[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return numbers[i] < numbers[j]
		}
		if ni != nj {
			return ni < nj
		}
		return si < sj
	})
}

func questionKey(number string) (int, string, bool) {
	m := questionKeyPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}
