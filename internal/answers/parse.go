package answers

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"regexp"
	"slices"
	"strings"
)

var questionNumberPattern = regexp.MustCompile(`^(\d+[a-zA-Z]?)`)

var compositeNumbers = []string{"7a", "7b", "7c"}

// Parse turns a raw delimited answer block into one Answered entry per known
// question number. Rows are `number;answer;quote...` with a double-quote
// quoting character; any fields after the second rejoin into the quote, so
// quotes may legitimately contain the delimiter. Questions the model never
// answered come back as not-existent, unknown numbers are dropped, and a
// block in which nothing was recognized degrades to the error placeholder.
// Parse never fails.
func Parse(raw string, combineComposite bool) []Answered {
	byNumber := make(map[string]Answered, len(QuestionNumbers))
	for _, num := range QuestionNumbers {
		byNumber[num] = Answered{Number: num, Answer: NotExistent, Quote: NotExistent}
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	recognized := false
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("answers: skipping unreadable row: %v", err)
			continue
		}
		if len(row) < 3 {
			if blankRow(row) {
				continue
			}
			log.Printf("answers: row has wrong format, ignored: %q", row)
			continue
		}
		m := questionNumberPattern.FindStringSubmatch(strings.TrimSpace(row[0]))
		if m == nil {
			continue
		}
		number := m[1]
		if _, known := byNumber[number]; !known {
			continue
		}
		byNumber[number] = Answered{
			Number: number,
			Answer: strings.TrimSpace(row[1]),
			Quote:  strings.TrimSpace(strings.Join(row[2:], ";")),
		}
		recognized = true
	}

	if !recognized {
		return errorPlaceholder()
	}

	if combineComposite {
		combineSubQuestions(byNumber)
	}

	out := make([]Answered, 0, len(QuestionNumbers))
	for _, num := range QuestionNumbers {
		if entry, ok := byNumber[num]; ok {
			out = append(out, entry)
		}
	}
	return out
}

// combineSubQuestions merges 7a/7b/7c into a single question 7 under a
// conservative rule: any "no" wins, only three times "yes" makes a yes, and
// partial evidence stays not-existent. The merged entry takes 7a's slot.
func combineSubQuestions(byNumber map[string]Answered) {
	subAnswers := make([]string, 0, len(compositeNumbers))
	subQuotes := make([]string, 0, len(compositeNumbers))
	for _, num := range compositeNumbers {
		entry := byNumber[num]
		subAnswers = append(subAnswers, strings.ToLower(entry.Answer))
		subQuotes = append(subQuotes, strings.ToLower(entry.Quote))
	}

	combined := NotExistent
	switch {
	case slices.Contains(subAnswers, "no"):
		combined = "no"
	case subAnswers[0] == "yes" && subAnswers[1] == "yes" && subAnswers[2] == "yes":
		combined = "yes"
	}

	byNumber["7a"] = Answered{
		Number: "7",
		Answer: combined,
		Quote:  "(combined 7a, 7b, 7c): " + strings.Join(subQuotes, ";"),
	}
	delete(byNumber, "7b")
	delete(byNumber, "7c")
}

// errorPlaceholder keeps downstream aggregation iterating a non-empty
// structure when an entire block failed to parse; the paper then counts as
// failed instead of disappearing.
func errorPlaceholder() []Answered {
	out := make([]Answered, 0, 3)
	for _, num := range []string{"1", "2", "3"} {
		out = append(out, Answered{Number: num, Answer: "error", Quote: "error"})
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
