package runs

import "paperscreen/internal/answers"

// AnswerSets projects normalized runs onto per-study answer sets keyed by
// the normalized study number, answers left raw.
func AnswerSets(list []Run) []answers.StudySet {
	out := make([]answers.StudySet, 0, len(list))
	for _, run := range list {
		out = append(out, answers.StudySet{
			StudyNumber: answers.NormalizeStudyNumber(run.Study),
			Answers:     run.Answers,
		})
	}
	return out
}

// CanonicalSets additionally maps every answer onto the comparison alphabet.
// Unparseable answers become empty strings so later stages can tell absent
// from "no".
func CanonicalSets(list []Run) []answers.StudySet {
	out := make([]answers.StudySet, 0, len(list))
	for _, run := range list {
		set := answers.StudySet{
			StudyNumber: answers.NormalizeStudyNumber(run.Study),
			Answers:     make([]answers.Answered, 0, len(run.Answers)),
		}
		for _, entry := range run.Answers {
			canonical, _ := answers.Canonical(entry.Answer)
			set.Answers = append(set.Answers, answers.Answered{
				Number: entry.Number,
				Answer: canonical,
				Quote:  entry.Quote,
			})
		}
		out = append(out, set)
	}
	return out
}
