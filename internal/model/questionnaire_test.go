package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionsFixedSet(t *testing.T) {
	t.Parallel()

	require.Len(t, Questions, 14)
	for _, q := range Questions {
		assert.NotEmpty(t, q.Text)
		assert.NotEmpty(t, q.Label)
	}
}

func TestParseAnswers(t *testing.T) {
	t.Parallel()

	text := `Sure, here you go:
[
  {"question": "What is the full legal name of the company?", "answer": "Acme Inc."},
  {"question": "What is the current estimated employee count?", "answer": 120},
  {"question": "", "answer": "dropped"}
]
Let me know if you need more.`
	got, err := ParseAnswers(text)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme Inc.", got[0].Answer)
	assert.Equal(t, "120", got[1].Answer)
}

func TestParseAnswers_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseAnswers("no array here")
	assert.Error(t, err)

	_, err = ParseAnswers("[not json]")
	assert.Error(t, err)
}

func TestQuestionnaireOrderedAndNested(t *testing.T) {
	t.Parallel()

	q := Questionnaire{Company: "Acme", Answers: []Answer{
		{Question: Questions[2].Text, Answer: "Austin, US"},
		{Question: Questions[0].Text, Answer: "Acme Inc."},
	}}

	ordered := q.Ordered()
	require.Len(t, ordered, len(Questions))
	assert.Equal(t, "Acme Inc.", ordered[0])
	assert.Equal(t, MissingAnswer, ordered[1])
	assert.Equal(t, "Austin, US", ordered[2])

	nested := q.Nested()
	assert.Equal(t, Questions[0].Text, nested["question_1"])
	assert.Equal(t, "Acme Inc.", nested["answer_1"])
	assert.Equal(t, Questions[2].Text, nested["question_2"])
	assert.Len(t, nested, 4)
}

func TestQuestionnaireFromNested(t *testing.T) {
	t.Parallel()

	q := Questionnaire{Answers: []Answer{
		{Question: Questions[0].Text, Answer: "Acme Inc."},
		{Question: Questions[5].Text, Answer: "Jane Doe"},
	}}

	back := QuestionnaireFromNested(q.Nested())
	assert.Equal(t, q.Ordered(), back.Ordered())
	assert.Empty(t, QuestionnaireFromNested(nil).Answers)
}
