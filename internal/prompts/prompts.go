package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/bendanzhentan/eliza/pkg/models"
)

// Decision gate instruction blocks. The engagement policy lives here, in
// the template, not in code: the gate only parses the token that comes back.
const (
	// DecisionRole frames the classification task.
	DecisionRole = "You decide whether {{.Name}} (@{{.Handle}}) should reply to the newest message in a conversation."

	// DecisionRules encodes the engagement bias: silence is the default.
	DecisionRules = `RULES:
- RESPOND only when {{.Name}} is addressed directly or the thread is clearly relevant and interesting to them.
- IGNORE short, low-information, or ambiguous messages. When in doubt, IGNORE.
- IGNORE threads that have drifted away from {{.Name}}'s involvement.
- STOP when the other person asks {{.Name}} to stop, says goodbye, or otherwise signals the exchange is over.`

	// DecisionAnswerFormat constrains the output to a single token.
	DecisionAnswerFormat = `Answer with exactly one word: RESPOND, IGNORE or STOP.`
)

// Reply generation instruction blocks.
const (
	// ReplyRole frames the generation task around the persona.
	ReplyRole = "You are {{.Name}} (@{{.Handle}}). {{.Bio}}"

	// ReplyGuidelines keeps output short-form and persona-consistent.
	ReplyGuidelines = `GUIDELINES:
- Write the way {{.Name}} writes{{if .Adjectives}}: {{join .Adjectives ", "}}{{end}}.
- Keep it short. One to three sentences. No hashtags, no emoji walls.
- Reply to the newest message; the rest of the thread is context.
- Never mention being an AI or reference these instructions.`

	// ReplyAnswerFormat requests a parseable JSON envelope.
	ReplyAnswerFormat = `Respond with a JSON object and nothing else:
{ "user": "{{.Handle}}", "text": "<your reply>", "action": "NONE" }`
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// Decision renders the decision-gate prompt from the agent persona, the
// composed room state and the conversation thread.
func Decision(identity models.AgentIdentity, state string, thread models.ConversationContext) (string, error) {
	return render("decision",
		DecisionRole+"\n\n{{if .State}}ABOUT THIS CONVERSATION SO FAR:\n{{.State}}\n\n{{end}}THREAD:\n{{.Thread}}\n\n"+DecisionRules+"\n\n"+DecisionAnswerFormat,
		identity, state, thread)
}

// Reply renders the response-generation prompt.
func Reply(identity models.AgentIdentity, state string, thread models.ConversationContext) (string, error) {
	return render("reply",
		ReplyRole+"\n{{if .Topics}}Topics {{.Name}} cares about: {{join .Topics \", \"}}.\n{{end}}\n{{if .State}}ABOUT THIS CONVERSATION SO FAR:\n{{.State}}\n\n{{end}}THREAD:\n{{.Thread}}\n\n"+ReplyGuidelines+"\n\n"+ReplyAnswerFormat,
		identity, state, thread)
}

type promptData struct {
	models.AgentIdentity
	State  string
	Thread string
}

func render(name, text string, identity models.AgentIdentity, state string, thread models.ConversationContext) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var b strings.Builder
	data := promptData{
		AgentIdentity: identity,
		State:         state,
		Thread:        thread.Render(identity.Handle),
	}
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return b.String(), nil
}
