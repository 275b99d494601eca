package prompts

import (
	"strings"
	"testing"
)

func TestDefaultBattery(t *testing.T) {
	b := Default()
	if b.Len() != 14 {
		t.Fatalf("expected 14 questions, got %d", b.Len())
	}
	q, ok := b.Question(6)
	if !ok || !strings.HasPrefix(q, "7a.") {
		t.Fatalf("position 6 must be question 7a, got %q", q)
	}
	if _, ok := b.Question(14); ok {
		t.Fatal("out-of-range position must not resolve")
	}
}

func TestFullPromptContainsEveryQuestion(t *testing.T) {
	b := Default()
	full := b.FullPrompt()
	for i := 0; i < b.Len(); i++ {
		q, _ := b.Question(i)
		if !strings.Contains(full, q) {
			t.Fatalf("full prompt missing question %d", i)
		}
	}
}

func TestSinglePromptFramesOneQuestion(t *testing.T) {
	b := Default()
	single, ok := b.SinglePrompt(0)
	if !ok {
		t.Fatal("position 0 must resolve")
	}
	q0, _ := b.Question(0)
	q1, _ := b.Question(1)
	if !strings.Contains(single, q0) {
		t.Fatal("single prompt missing its question")
	}
	if strings.Contains(single, q1) {
		t.Fatal("single prompt leaked another question")
	}
}

func TestParseRejectsEmptyBattery(t *testing.T) {
	if _, err := Parse([]byte(`{"system_prompt":"s","closing_prompt":"c","prompts":[]}`)); err == nil {
		t.Fatal("expected error for empty question list")
	}
}
