// Package practice holds the quick-practice question bank and turns answered
// questions into review cards.
package practice

import (
	"strconv"
	"strings"

	"github.com/hpungsan/crackr/internal/review"
)

// Initial boxes for cards saved from practice.
const (
	BoxWrong   = 0 // due again today
	BoxCorrect = 2 // saved anyway, reviewed later
)

// Question is a multiple-choice practice question.
type Question struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	Topic    string   `json:"topic"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Answer   string   `json:"-"`
	Solution string   `json:"-"`
}

var bank = []Question{
	{
		ID:       "q-quadratic-1",
		Subject:  "math",
		Topic:    "Quadratic",
		Text:     "If α and β are roots of x^2 - 5x + 6 = 0, find α^2 + β^2.",
		Options:  []string{"10", "13", "25", "37"},
		Answer:   "13",
		Solution: "For ax^2+bx+c: α+β=5, αβ=6 ⇒ α^2+β^2=(α+β)^2-2αβ=25-12=13.",
	},
	{
		ID:       "q-kinematics-1",
		Subject:  "phy",
		Topic:    "Kinematics",
		Text:     "A particle starts with u=5 m/s and a=2 m/s². Distance in 4 s?",
		Options:  []string{"28 m", "36 m", "44 m", "48 m"},
		Answer:   "36 m",
		Solution: "s = ut + 1/2 a t^2 = 5*4 + 0.5*2*16 = 20 + 16 = 36 m.",
	},
	{
		ID:       "q-mole-1",
		Subject:  "chem",
		Topic:    "Mole Concept",
		Text:     "Moles in 11 g of CO2? (M=44 g/mol)",
		Options:  []string{"0.125", "0.25", "0.5", "2"},
		Answer:   "0.25",
		Solution: "n = m/M = 11/44 = 0.25 mol.",
	},
}

// Bank returns the built-in questions.
func Bank() []Question {
	out := make([]Question, len(bank))
	copy(out, bank)
	return out
}

// At returns the question at index, cycling through the bank.
func At(index int) Question {
	n := len(bank)
	return bank[((index%n)+n)%n]
}

// Find looks up a question by ID.
func Find(id string) (Question, bool) {
	for _, q := range bank {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Attempt is an answered question.
type Attempt struct {
	Question Question `json:"question"`
	Picked   string   `json:"picked"`
	Correct  bool     `json:"correct"`
}

// Check grades picked against the question's answer.
func Check(q Question, picked string) Attempt {
	return Attempt{Question: q, Picked: picked, Correct: sameAnswer(q.Answer, picked)}
}

// Card turns the attempt into a review card due today: box 2 when answered
// correctly, box 0 otherwise. maxBox caps the initial box for short tables.
func (a Attempt) Card(today review.Date, maxBox int) (review.Card, error) {
	c, err := review.NewCard(a.Question.Subject, a.Question.Topic, a.Question.Text, a.Question.Solution, today)
	if err != nil {
		return review.Card{}, err
	}
	if a.Correct {
		c.Box = min(BoxCorrect, maxBox)
	}
	return c, nil
}

// sameAnswer compares trimmed strings exactly. When both sides are plain
// numbers they are compared by value, so "0.250" matches "0.25".
func sameAnswer(want, got string) bool {
	want, got = strings.TrimSpace(want), strings.TrimSpace(got)
	if got == "" {
		return false
	}
	if want == got {
		return true
	}
	wn, werr := strconv.ParseFloat(want, 64)
	gn, gerr := strconv.ParseFloat(got, 64)
	return werr == nil && gerr == nil && wn == gn
}
