package answers

// QuestionNumbers is the closed set of question ids the review battery uses.
// 7a/7b/7c are the sub-questions of the composite question 7.
var QuestionNumbers = []string{"1", "2", "3", "4", "5", "6", "7a", "7b", "7c", "8", "9", "10", "11", "12"}

const (
	AnswerYes = "1"
	AnswerNo  = "0"

	// NotExistent marks a question the model never answered.
	NotExistent = "not-existent"
)

type Answered struct {
	Number string `json:"number"`
	Answer string `json:"answer"`
	Quote  string `json:"quote"`
}

type StudySet struct {
	StudyNumber string     `json:"study_number"`
	Answers     []Answered `json:"answers"`
}
