package answers

import (
	"strings"
	"testing"
)

func TestParseFullBattery(t *testing.T) {
	var b strings.Builder
	for _, num := range QuestionNumbers {
		b.WriteString(num + ";yes;some quote for " + num + "\n")
	}
	got := Parse(b.String(), false)
	if len(got) != len(QuestionNumbers) {
		t.Fatalf("expected %d answers, got %d", len(QuestionNumbers), len(got))
	}
	for i, entry := range got {
		if entry.Number != QuestionNumbers[i] {
			t.Fatalf("answer %d: expected number %s, got %s", i, QuestionNumbers[i], entry.Number)
		}
		if entry.Answer != "yes" {
			t.Fatalf("answer %s: expected yes, got %q", entry.Number, entry.Answer)
		}
	}
}

func TestParseMissingQuestionsAreNotExistent(t *testing.T) {
	got := Parse("1;yes;q1\n2;no;q2\n", false)
	if len(got) != len(QuestionNumbers) {
		t.Fatalf("expected %d answers, got %d", len(QuestionNumbers), len(got))
	}
	for _, entry := range got[2:] {
		if entry.Answer != NotExistent || entry.Quote != NotExistent {
			t.Fatalf("question %s: expected not-existent, got %+v", entry.Number, entry)
		}
	}
}

func TestParseRejoinsSplitQuote(t *testing.T) {
	got := Parse("3;yes;first part; second part; third\n", false)
	for _, entry := range got {
		if entry.Number == "3" {
			if entry.Quote != "first part; second part; third" {
				t.Fatalf("expected rejoined quote, got %q", entry.Quote)
			}
			return
		}
	}
	t.Fatal("question 3 missing from output")
}

func TestParseIgnoresUnknownAndMalformedRows(t *testing.T) {
	raw := "99;yes;unknown number\nnot a row at all\n1;no;kept\n"
	got := Parse(raw, false)
	for _, entry := range got {
		if entry.Number == "99" {
			t.Fatal("unknown question number leaked into output")
		}
		if entry.Number == "1" && entry.Answer != "no" {
			t.Fatalf("question 1: expected no, got %q", entry.Answer)
		}
	}
}

func TestParseTotalFailure(t *testing.T) {
	got := Parse("the model refused to answer", false)
	if len(got) != 3 {
		t.Fatalf("expected 3 placeholder entries, got %d", len(got))
	}
	for _, entry := range got {
		if entry.Answer != "error" || entry.Quote != "error" {
			t.Fatalf("expected error placeholder, got %+v", entry)
		}
	}
}

func TestParseCombineSubQuestions(t *testing.T) {
	cases := []struct {
		name string
		a7a  string
		a7b  string
		a7c  string
		want string
	}{
		{"no dominates", "Yes", "No", "Yes", "no"},
		{"all yes", "yes", "Yes", "yes", "yes"},
		{"partial stays unknown", "yes", "not-existent", "yes", NotExistent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := "7a;" + tc.a7a + ";QA\n7b;" + tc.a7b + ";QB\n7c;" + tc.a7c + ";QC\n"
			got := Parse(raw, true)
			if len(got) != len(QuestionNumbers)-2 {
				t.Fatalf("expected %d answers after combining, got %d", len(QuestionNumbers)-2, len(got))
			}
			var combined *Answered
			for i := range got {
				if got[i].Number == "7" {
					combined = &got[i]
				}
				if got[i].Number == "7b" || got[i].Number == "7c" {
					t.Fatalf("sub-question %s survived combining", got[i].Number)
				}
			}
			if combined == nil {
				t.Fatal("combined question 7 missing")
			}
			if combined.Answer != tc.want {
				t.Fatalf("expected combined answer %q, got %q", tc.want, combined.Answer)
			}
			if !strings.HasPrefix(combined.Quote, "(combined 7a, 7b, 7c): ") {
				t.Fatalf("combined quote missing prefix: %q", combined.Quote)
			}
			if combined.Quote != "(combined 7a, 7b, 7c): qa;qb;qc" {
				t.Fatalf("combined quote not lowercased sub-quotes: %q", combined.Quote)
			}
		})
	}
}

func TestParseCombinedSlotOrdering(t *testing.T) {
	var b strings.Builder
	for _, num := range QuestionNumbers {
		b.WriteString(num + ";yes;q\n")
	}
	got := Parse(b.String(), true)
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	if len(got) != len(want) {
		t.Fatalf("expected %d answers, got %d", len(want), len(got))
	}
	for i, entry := range got {
		if entry.Number != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], entry.Number)
		}
	}
}

func TestCanonical(t *testing.T) {
	yes := []string{"Yes", "yes", "1"}
	for _, raw := range yes {
		if got, ok := Canonical(raw); !ok || got != AnswerYes {
			t.Fatalf("Canonical(%q) = %q, %v", raw, got, ok)
		}
	}
	no := []string{"No", "no", "0"}
	for _, raw := range no {
		if got, ok := Canonical(raw); !ok || got != AnswerNo {
			t.Fatalf("Canonical(%q) = %q, %v", raw, got, ok)
		}
	}
	for _, raw := range []string{NotExistent, "error", "maybe", "", "YES"} {
		if _, ok := Canonical(raw); ok {
			t.Fatalf("Canonical(%q) unexpectedly ok", raw)
		}
	}
}

func TestNormalizeStudyNumber(t *testing.T) {
	cases := map[string]string{
		"0005.pdf": "5",
		"0005":     "5",
		"5":        "5",
		"0123":     "123",
		"1200":     "1200",
		"12.pdf":   "12",
	}
	for in, want := range cases {
		if got := NormalizeStudyNumber(in); got != want {
			t.Fatalf("NormalizeStudyNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
