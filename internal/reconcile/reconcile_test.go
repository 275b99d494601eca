package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperscreen/internal/answers"
	"paperscreen/internal/prompts"
)

func canonicalSet(study string, pairs map[string]string) answers.StudySet {
	set := answers.StudySet{StudyNumber: study}
	for _, num := range []string{"1", "2", "3", "4"} {
		if answer, ok := pairs[num]; ok {
			set.Answers = append(set.Answers, answers.Answered{Number: num, Answer: answer, Quote: "quote " + num})
		}
	}
	return set
}

func TestDiffSelfIsEmpty(t *testing.T) {
	a := []answers.StudySet{canonicalSet("5", map[string]string{"1": "1", "2": "0"})}
	if got := Diff(a, a, "m1", "m2"); len(got) != 0 {
		t.Fatalf("diffing a set against itself must be empty, got %+v", got)
	}
}

func TestDiffFindsOppositeAnswers(t *testing.T) {
	a := []answers.StudySet{canonicalSet("5", map[string]string{"1": "1", "2": "0", "3": ""})}
	b := []answers.StudySet{canonicalSet("5", map[string]string{"1": "0", "2": "0", "3": "1"})}
	got := Diff(a, b, "m1", "m2")
	if len(got) != 1 {
		t.Fatalf("expected one study with mismatches, got %d", len(got))
	}
	if got[0].StudyNumber != "5" || len(got[0].Mismatches) != 1 {
		t.Fatalf("unexpected mismatches: %+v", got[0])
	}
	m := got[0].Mismatches[0]
	if m.Number != "1" || m.Model1.Answer != "1" || m.Model2.Answer != "0" {
		t.Fatalf("mismatch content wrong: %+v", m)
	}
	if m.Model1.Model != "m1" || m.Model2.Model != "m2" {
		t.Fatalf("model labels wrong: %+v", m)
	}
}

func TestDiffSkipsStudiesAbsentFromSecondSet(t *testing.T) {
	a := []answers.StudySet{canonicalSet("5", map[string]string{"1": "1"})}
	b := []answers.StudySet{canonicalSet("6", map[string]string{"1": "0"})}
	if got := Diff(a, b, "m1", "m2"); len(got) != 0 {
		t.Fatalf("expected no mismatches, got %+v", got)
	}
}

func TestParseVerdictVariants(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			"object entries",
			"thinking...\n```json\n{\"mistakes\": [{\"number\": 2, \"reason\": \"overlooked\"}, {\"number\": \"7a\", \"reason\": \"wrong\"}]}\n```\ndone",
			[]string{"2", "7a"},
		},
		{
			"bare number list",
			"```json\n{\"mistakes\": [3, 12]}\n```",
			[]string{"3", "12"},
		},
		{
			"empty mistakes",
			"```json\n{\"mistakes\": []}\n```",
			nil,
		},
		{
			"no fenced block",
			"I made no mistakes.",
			nil,
		},
		{
			"broken json",
			"```json\n{\"mistakes\": [\n```",
			nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseVerdict(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d mistakes, got %+v", len(tc.want), got)
			}
			for i, m := range got {
				if m.Number != tc.want[i] {
					t.Fatalf("mistake %d: expected %s, got %s", i, tc.want[i], m.Number)
				}
			}
		})
	}
}

func TestLoadVerdictsFromRunRecords(t *testing.T) {
	dir := t.TempDir()
	verdict := `{"Version":2,"PDF_Name":"0005.pdf","Model_Name":"judge",` +
		`"Raw_Data":"Checked both sides.\n` + "```" + `json\n{\"mistakes\": [{\"number\": 2, \"reason\": \"quote contradicts\"}, {\"number\": \"7a\"}]}\n` + "```" + `\n"}`
	noVerdict := `{"Version":2,"PDF_Name":"0006.pdf","Model_Name":"judge",` +
		`"Raw_Data":"I found no mistakes worth confirming."}`
	if err := os.WriteFile(filepath.Join(dir, "raw-5.json"), []byte(verdict), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "raw-6.json"), []byte(noVerdict), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadVerdicts(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("LoadVerdicts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one verdict, got %+v", got)
	}
	if got[0].StudyNumber != "5" {
		t.Fatalf("study number not normalized: %q", got[0].StudyNumber)
	}
	if len(got[0].Mistakes) != 2 || got[0].Mistakes[0].Number != "2" || got[0].Mistakes[1].Number != "7a" {
		t.Fatalf("mistakes not parsed: %+v", got[0].Mistakes)
	}
	if got[0].Mistakes[0].Reason != "quote contradicts" {
		t.Fatalf("reason lost: %+v", got[0].Mistakes[0])
	}
}

func TestApplyFlipsConfirmedMistakes(t *testing.T) {
	sets := []answers.StudySet{
		{StudyNumber: "5", Answers: []answers.Answered{
			{Number: "1", Answer: "1"},
			{Number: "2", Answer: "0"},
			{Number: "3", Answer: ""},
		}},
	}
	verdicts := []Verdict{{StudyNumber: "5", Mistakes: []Mistake{{Number: "1"}, {Number: "3"}}}}
	got := Apply(verdicts, sets)
	if got[0].Answers[0].Answer != "0" {
		t.Fatalf("confirmed yes must flip to no, got %q", got[0].Answers[0].Answer)
	}
	if got[0].Answers[1].Answer != "0" {
		t.Fatalf("unconfirmed answer must not change, got %q", got[0].Answers[1].Answer)
	}
	if got[0].Answers[2].Answer != "" {
		t.Fatalf("absent answer must stay absent, got %q", got[0].Answers[2].Answer)
	}
	if sets[0].Answers[0].Answer != "1" {
		t.Fatal("input set was mutated")
	}
}

func TestApplyIgnoresOtherStudies(t *testing.T) {
	sets := []answers.StudySet{
		{StudyNumber: "6", Answers: []answers.Answered{{Number: "1", Answer: "1"}}},
	}
	verdicts := []Verdict{{StudyNumber: "5", Mistakes: []Mistake{{Number: "1"}}}}
	got := Apply(verdicts, sets)
	if got[0].Answers[0].Answer != "1" {
		t.Fatalf("verdict for another study leaked: %+v", got[0])
	}
}

func TestCombineSubtractsSettledAndAddsNovel(t *testing.T) {
	first := []Verdict{{StudyNumber: "5", Mistakes: []Mistake{{Number: "1"}, {Number: "2"}}}}
	second := []Verdict{{StudyNumber: "5", Mistakes: []Mistake{{Number: "2"}, {Number: "9"}}}}
	got := Combine(first, second)
	if len(got) != 2 {
		t.Fatalf("expected 2 verdicts, got %+v", got)
	}
	if len(got[0].Mistakes) != 1 || got[0].Mistakes[0].Number != "1" {
		t.Fatalf("settled mistake not removed: %+v", got[0])
	}
	if len(got[1].Mistakes) != 1 || got[1].Mistakes[0].Number != "9" {
		t.Fatalf("novel second-round mistake not carried: %+v", got[1])
	}
}

func TestBuildArbitrationPrompt(t *testing.T) {
	battery := prompts.Default()
	study := StudyMismatches{
		StudyNumber: "5",
		Mismatches: []Mismatch{
			{Number: "7a", Model1: Side{Answer: "1", Model: "m1"}, Model2: Side{Answer: "0", Model: "m2"}},
			{Number: "8", Model1: Side{Answer: "0", Model: "m1"}, Model2: Side{Answer: "1", Model: "m2"}},
		},
	}
	p1 := BuildArbitrationPrompt(study, battery, RoleModel1)
	if !strings.Contains(p1, "You are 'model1'") {
		t.Fatalf("role line missing: %s", p1)
	}
	if !strings.Contains(p1, "```json") {
		t.Fatal("format instruction missing")
	}
	q7a, _ := battery.Question(6)
	q8, _ := battery.Question(9)
	if !strings.Contains(p1, q7a) || !strings.Contains(p1, q8) {
		t.Fatal("prompt must carry the disagreeing question texts")
	}
	p2 := BuildArbitrationPrompt(study, battery, RoleModel2)
	if !strings.Contains(p2, "You are 'model2'") {
		t.Fatalf("role line missing for model2: %s", p2)
	}
}

func TestQuestionIndex(t *testing.T) {
	cases := map[string]int{
		"1": 0, "6": 5, "7a": 6, "7b": 7, "7c": 8, "8": 9, "12": 13,
	}
	for number, want := range cases {
		got, ok := questionIndex(number)
		if !ok || got != want {
			t.Fatalf("questionIndex(%s) = %d, %v; want %d", number, got, ok, want)
		}
	}
	if _, ok := questionIndex("7x"); ok {
		t.Fatal("unknown suffix must not map")
	}
}
