package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/crackr/internal/errors"
	"github.com/hpungsan/crackr/internal/practice"
	"github.com/hpungsan/crackr/internal/review"
)

// PracticeQuestionInput contains parameters for the PracticeQuestion operation.
type PracticeQuestionInput struct {
	ID    string // optional; takes precedence over Index
	Index int    // position in the bank, cycles
}

// PracticeQuestionOutput contains the result of the PracticeQuestion operation.
// The answer is not included.
type PracticeQuestionOutput struct {
	Question practice.Question `json:"question"`
	Index    int               `json:"index"`
	Total    int               `json:"total"`
}

// PracticeQuestion serves a question from the built-in bank.
func PracticeQuestion(input PracticeQuestionInput) (*PracticeQuestionOutput, error) {
	bank := practice.Bank()
	if id := strings.TrimSpace(input.ID); id != "" {
		for i, q := range bank {
			if q.ID == id {
				return &PracticeQuestionOutput{Question: q, Index: i, Total: len(bank)}, nil
			}
		}
		return nil, errors.NewNotFound("question", id)
	}

	n := len(bank)
	i := ((input.Index % n) + n) % n
	return &PracticeQuestionOutput{Question: practice.At(i), Index: i, Total: n}, nil
}

// PracticeAnswerInput contains parameters for the PracticeAnswer operation.
type PracticeAnswerInput struct {
	QuestionID string // required
	Picked     string // required
	Save       bool   // add the question to the review queue
}

// PracticeAnswerOutput contains the result of the PracticeAnswer operation.
type PracticeAnswerOutput struct {
	Correct  bool         `json:"correct"`
	Picked   string       `json:"picked"`
	Answer   string       `json:"answer"`
	Solution string       `json:"solution"`
	Card     *review.Card `json:"card,omitempty"`
	Warning  string       `json:"warning,omitempty"`
}

// PracticeAnswer checks an answer and optionally saves the question as a
// review card: box 2 when correct, box 0 otherwise, due today either way.
func PracticeAnswer(ctx context.Context, s *review.Scheduler, input PracticeAnswerInput) (*PracticeAnswerOutput, error) {
	id := strings.TrimSpace(input.QuestionID)
	if id == "" {
		return nil, errors.NewInvalidRequest("question_id is required")
	}
	if strings.TrimSpace(input.Picked) == "" {
		return nil, errors.NewInvalidRequest("picked is required")
	}
	q, ok := practice.Find(id)
	if !ok {
		return nil, errors.NewNotFound("question", id)
	}

	attempt := practice.Check(q, input.Picked)
	out := &PracticeAnswerOutput{
		Correct:  attempt.Correct,
		Picked:   attempt.Picked,
		Answer:   q.Answer,
		Solution: q.Solution,
	}
	if !input.Save {
		return out, nil
	}

	c, err := attempt.Card(s.Today(), s.MaxBox())
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	warning, err := softFail(s.AddCard(ctx, c))
	if err != nil {
		return nil, err
	}
	out.Card = &c
	out.Warning = warning
	return out, nil
}
