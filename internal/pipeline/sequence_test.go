package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

func TestParseSequence_ThreeItems(t *testing.T) {
	items := ParseSequence(sequenceXML)
	require.Len(t, items, 3)
	assert.Equal(t, model.EmailSequenceItem{
		Sequence: "1",
		Subject:  "Scaling Acme's backend team",
		Body:     "Hi Jane,Saw the Backend Engineer opening.",
	}, items[0])
	assert.Equal(t, "2", items[1].Sequence)
	assert.Equal(t, "Following up", items[1].Subject)
	assert.Equal(t, "An idea for Acme.", items[2].Body)
}

func TestParseSequence_MissingBody(t *testing.T) {
	items := ParseSequence(`<emails><email><sequence>1</sequence><subject>Hello</subject></email></emails>`)
	require.Len(t, items, 1)
	assert.Equal(t, "Hello", items[0].Subject)
	assert.Equal(t, "", items[0].Body)
}

func TestParseSequence_NoItems(t *testing.T) {
	assert.Empty(t, ParseSequence("<emails></emails>"))
	assert.Empty(t, ParseSequence("I cannot write these emails."))
}

func TestParseSequence_WithPrefillAndNoWrapper(t *testing.T) {
	text := "Here is the honest and hallucination free emails in XML as requested.\n" +
		"<email>\n<sequence>1</sequence>\n<subject>Hi</subject>\n<body>Line one\nLine two</body>\n</email>"
	items := ParseSequence(text)
	require.Len(t, items, 1)
	assert.Equal(t, "Line oneLine two", items[0].Body)
}

func TestGenerateSequences_SkipsEmptyResponses(t *testing.T) {
	f := newFixture(t)
	f.ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 2 && req.Messages[0].Role == "user" &&
			req.Messages[1].Role == "assistant" && *req.Temperature == 0 && req.MaxTokens == 5000
	})).Return(textResponse("<emails></emails>"), nil).Once()

	r := newTestRun(f.pipeline(t))
	out := r.generateSequences(context.Background(), []model.Contact{
		{ProfileURL: janeProfileURL, FirstName: "Jane", Company: "Acme"},
	}, nil)

	assert.Empty(t, out)
	assert.Equal(t, 0, r.q.Counts.Sequences)
	phase := r.ledger.Phase(StageSequence)
	assert.Equal(t, 1, phase.Calls)
	assert.Equal(t, int64(1000), phase.InputTokens)
}

func TestGenerateSequences_OneContactAtATime(t *testing.T) {
	f := newFixture(t)
	var (
		order    []string
		inFlight int
	)
	f.ai.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			inFlight++
			defer func() { inFlight-- }()
			require.Equal(t, 1, inFlight)
			req := args.Get(1).(anthropic.MessageRequest)
			for _, name := range []string{"Jane", "Omar", "Lena"} {
				if strings.Contains(req.Messages[0].Content, name) {
					order = append(order, name)
				}
			}
		}).
		Return(textResponse(sequenceXML), nil).Times(3)

	r := newTestRun(f.pipeline(t))
	out := r.generateSequences(context.Background(), []model.Contact{
		{ProfileURL: janeProfileURL, FirstName: "Jane", Company: "Acme"},
		{ProfileURL: "https://www.linkedin.com/in/omar", FirstName: "Omar", Company: "Acme"},
		{ProfileURL: "https://www.linkedin.com/in/lena", FirstName: "Lena", Company: "Acme"},
	}, nil)

	assert.Len(t, out, 3)
	assert.Equal(t, []string{"Jane", "Omar", "Lena"}, order)
	assert.Equal(t, 3, r.q.Counts.Sequences)
}
