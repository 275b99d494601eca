package reconcile

import (
	"log"

	"paperscreen/internal/answers"
)

// Apply writes confirmed corrections onto a canonicalized run set and
// returns a new set; the input is never mutated. A confirmed mistake flips
// the answer's polarity. Answers that never parsed stay absent - there is
// nothing to flip.
func Apply(verdicts []Verdict, sets []answers.StudySet) []answers.StudySet {
	out := make([]answers.StudySet, 0, len(sets))
	for _, study := range sets {
		corrected := answers.StudySet{
			StudyNumber: study.StudyNumber,
			Answers:     make([]answers.Answered, 0, len(study.Answers)),
		}
		for _, entry := range study.Answers {
			if entry.Answer != "" && confirmed(verdicts, study.StudyNumber, entry.Number) {
				log.Printf("reconcile: corrected %s | %s", study.StudyNumber, entry.Number)
				entry.Answer = flip(entry.Answer)
			}
			corrected.Answers = append(corrected.Answers, entry)
		}
		out = append(out, corrected)
	}
	return out
}

func flip(answer string) string {
	if answer == answers.AnswerYes {
		return answers.AnswerNo
	}
	return answers.AnswerYes
}

func confirmed(verdicts []Verdict, study, number string) bool {
	for _, v := range verdicts {
		if v.StudyNumber != study {
			continue
		}
		for _, m := range v.Mistakes {
			if m.Number == number {
				return true
			}
		}
	}
	return false
}

// Combine folds a second arbitration round into the first. A mistake the
// second round also confirmed is settled and removed from round one rather
// than corrected twice; a mistake only the second round found is carried
// over. The subtraction compares mistake numbers globally across studies,
// matching how the verdict rounds were produced.
func Combine(first, second []Verdict) []Verdict {
	secondNumbers := map[string]struct{}{}
	for _, v := range second {
		for _, m := range v.Mistakes {
			secondNumbers[m.Number] = struct{}{}
		}
	}
	firstNumbers := map[string]struct{}{}
	for _, v := range first {
		for _, m := range v.Mistakes {
			firstNumbers[m.Number] = struct{}{}
		}
	}

	var out []Verdict
	for _, v := range first {
		kept := make([]Mistake, 0, len(v.Mistakes))
		for _, m := range v.Mistakes {
			if _, settled := secondNumbers[m.Number]; !settled {
				kept = append(kept, m)
			}
		}
		if len(kept) > 0 {
			out = append(out, Verdict{StudyNumber: v.StudyNumber, Mistakes: kept})
		}
	}
	for _, v := range second {
		novel := make([]Mistake, 0, len(v.Mistakes))
		for _, m := range v.Mistakes {
			if _, seen := firstNumbers[m.Number]; !seen {
				novel = append(novel, m)
			}
		}
		if len(novel) > 0 {
			out = append(out, Verdict{StudyNumber: v.StudyNumber, Mistakes: novel})
		}
	}
	return out
}
