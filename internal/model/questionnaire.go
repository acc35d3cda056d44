package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Question is one account-qualification question. Label is the shorter form
// used as the outreach list custom field name.
type Question struct {
	Text  string
	Label string
}

// Questions is the fixed questionnaire asked about every ICP company.
var Questions = []Question{
	{"What is the full legal name of the company?", "What is the full legal name of the company?"},
	{"What industry or niche do they primarily operate in?", "What industry or niche do they primarily operate in?"},
	{"Where is the company headquartered (city & country)?", "Where is the company headquartered (city & country)?"},
	{"What is the current estimated employee count?", "What is the current estimated employee count?"},
	{"What is the company website URL as mentioned in the LinkedIn Data?", "What is the company website URL as mentioned in the LinkedIn Data?"},
	{"Name of the individual", "Name of the individual"},
	{"Their job title or designation", "Their job title or designation"},
	{"Are they likely a decision-maker (e.g., manager, VP, director, CXO)?", "Are they likely a decision-maker (e.g., manager, VP, director, CXO)?"},
	{"Are they hiring for roles that suggest growth, scaling, or specific operational challenges? If yes, mention the roles.", "Are they hiring for roles that suggest growth, scaling, or specific operational challenges?"},
	{"Based on the company's industry, employee size, and growth stage, does it align with the Ideal Customer Profile (ICP) outlined in the ICP definition? Provide a brief rationale for your assessment.", "Based on the company's industry, employee size, and growth stage, does it align with the ICP?"},
	{"Are they likely to have the budget and maturity to engage with our service/product?", "Are they likely to have the budget and maturity to engage with our service/product?"},
	{"Have they posted or reshared any content that shows their pain points or areas of focus? Summarize relevant content if available.", "Have they posted or reshared any content that shows their pain points or areas of focus?"},
	{"Mention any known external tools or platforms the company uses (e.g., CRMs, marketing automation, cloud platforms, AI tools).", "Mention any known external tools or platforms the company uses."},
	{"Can you derive a clear value proposition we might be able to offer, based on their context?", "Can you derive a clear value proposition we might be able to offer, based on their context?"},
}

// MissingAnswer is pushed for questions without an answer.
const MissingAnswer = "N/A"

// Answer is one question/answer pair returned by the model.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Questionnaire holds the answers for one company.
type Questionnaire struct {
	Company string   `json:"company"`
	Answers []Answer `json:"answers"`
}

// Lookup returns the answer for question text, matched exactly after trimming.
func (q Questionnaire) Lookup(question string) (string, bool) {
	question = strings.TrimSpace(question)
	for _, a := range q.Answers {
		if strings.TrimSpace(a.Question) == question {
			return a.Answer, true
		}
	}
	return "", false
}

// Ordered returns one answer per entry of Questions, MissingAnswer where the
// model gave none.
func (q Questionnaire) Ordered() []string {
	out := make([]string, len(Questions))
	for i, qu := range Questions {
		if a, ok := q.Lookup(qu.Text); ok && strings.TrimSpace(a) != "" {
			out[i] = a
		} else {
			out[i] = MissingAnswer
		}
	}
	return out
}

// Nested returns the question_N/answer_N map stored on final records. Only
// answered questions are included and numbering is contiguous.
func (q Questionnaire) Nested() map[string]string {
	out := make(map[string]string)
	n := 1
	for _, qu := range Questions {
		a, ok := q.Lookup(qu.Text)
		if !ok {
			continue
		}
		out["question_"+strconv.Itoa(n)] = qu.Text
		out["answer_"+strconv.Itoa(n)] = a
		n++
	}
	return out
}

// ParseAnswers extracts the JSON array between the first "[" and the last "]"
// of a model response. Non-string answers are rendered as JSON text.
func ParseAnswers(text string) ([]Answer, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.New("model: no JSON array in questionnaire response")
	}
	var raw []map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "model: parse questionnaire answers")
	}
	out := make([]Answer, 0, len(raw))
	for _, r := range raw {
		a := Answer{Question: AsString(r["question"])}
		switch v := r["answer"].(type) {
		case string:
			a.Answer = strings.TrimSpace(v)
		case nil:
		default:
			b, _ := json.Marshal(v)
			a.Answer = string(b)
		}
		if a.Question != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

// QuestionnaireFromNested rebuilds a Questionnaire from the question_N and
// answer_N pairs produced by Nested.
func QuestionnaireFromNested(m map[string]string) Questionnaire {
	var q Questionnaire
	for n := 1; ; n++ {
		question, ok := m["question_"+strconv.Itoa(n)]
		if !ok {
			break
		}
		q.Answers = append(q.Answers, Answer{Question: question, Answer: m["answer_"+strconv.Itoa(n)]})
	}
	return q
}
