package reconcile

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"paperscreen/internal/prompts"
)

const (
	RoleModel1 = "model1"
	RoleModel2 = "model2"
)

// The wording is part of the protocol: the responder must put its mistake
// list in a fenced JSON block for ParseVerdict to find it.
const arbitrationInstruction = "Answer in JSON format. " +
	"Make a list of all the numbers where you made mistakes. " +
	"Below you will find a list of answers that you submitted based on the PDF. " +
	"Another LLM has come to different conclusions. Check the evidence of the other model " +
	"and if you come to the conclusion that you have made a mistake in your own answer, then " +
	"add the number of the question to the JSON list together with a reason. " +
	"Format: ```json {\"mistakes\": [ { \"number\": int, \"reason\": string } ]} ```"

// BuildArbitrationPrompt assembles the request that asks one of the two
// models to re-examine a study's disagreements: the fenced-JSON instruction,
// the original question texts for exactly the disagreeing ids, which side
// the recipient is, and both models' prior answers and quotes.
func BuildArbitrationPrompt(study StudyMismatches, battery *prompts.Battery, role string) string {
	roleLine := "You are 'model1', the other LLM is 'model2'!"
	if role == RoleModel2 {
		roleLine = "You are 'model2', the other LLM is 'model1'!"
	}

	questions := make([]string, 0, len(study.Mismatches))
	for _, m := range study.Mismatches {
		idx, ok := questionIndex(m.Number)
		if !ok {
			log.Printf("reconcile: no battery position for question %q", m.Number)
			continue
		}
		q, ok := battery.Question(idx)
		if !ok {
			log.Printf("reconcile: battery has no question at position %d", idx)
			continue
		}
		questions = append(questions, q)
	}

	answersJSON, _ := json.Marshal(study.Mismatches)
	return fmt.Sprintf("[Prompt]%s\n[Questions]\n%s\n%s\n[Answers]%s",
		arbitrationInstruction, strings.Join(questions, "\n"), roleLine, answersJSON)
}

// questionIndex maps an external question number onto its zero-based
// position in the full ordered battery. 7a/7b/7c sit at positions 7/8/9, so
// plain numbers above 7 shift by two before the shift to zero-based. This
// offset is load-bearing; changing it points arbitration at the wrong
// question texts.
func questionIndex(number string) (int, bool) {
	switch number {
	case "7a":
		return 6, true
	case "7b":
		return 7, true
	case "7c":
		return 8, true
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return 0, false
	}
	if n > 7 {
		n += 2
	}
	return n - 1, true
}
