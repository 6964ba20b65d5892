package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

// Fabricator is the offline Provider variant. It fabricates plausible,
// schema-valid JSON by lightweight keyword matching against the prompt:
// the requested question count, the allowed question types, and the topic
// list are detected from the prompt text and echoed back in the payload
// shape the caller asked for. Output is a pure function of the prompt, so
// repeated requests are reproducible, but different prompts vary.
//
// It never performs network I/O and is exempt from cost accounting.
type Fabricator struct{}

// NewFabricator creates the offline provider variant.
func NewFabricator() *Fabricator {
	return &Fabricator{}
}

func (f *Fabricator) Generate(_ context.Context, req Request) (*Response, error) {
	prompt := joinMessages(req.Messages)

	var content json.RawMessage
	if req.Schema != nil {
		switch req.Schema.Name {
		case "style-profile":
			content = f.fabricateProfile(prompt)
		case "quiz-draft":
			content = f.fabricateDraft(prompt)
		case "quiz-critique":
			content = f.fabricateCritique()
		default:
			content = json.RawMessage(`{}`)
		}
		// Fabricated output must survive the same validation real
		// providers run, so the pipeline stays provider-agnostic.
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	} else {
		text, _ := json.Marshal("Fabricated response for: " + firstLine(prompt))
		content = text
	}

	inTok := len(prompt) / 4
	outTok := len(content) / 4
	return &Response{
		Content:    content,
		Usage:      Usage{InputTokens: inTok, OutputTokens: outTok, TotalTokens: inTok + outTok},
		Model:      ProviderFabricator,
		StopReason: "end",
	}, nil
}

func (f *Fabricator) ModelID() string { return ProviderFabricator }

func (f *Fabricator) Billable() bool { return false }

var (
	countRe = regexp.MustCompile(`(?i)(?:question count|questions requested|exactly)\D{0,3}(\d{1,2})`)
	topicRe = regexp.MustCompile(`(?i)topics?[^:\n]*:\s*([^\n]+)`)
)

// knownTypes is the closed set of question type tags the fabricator can
// detect in a prompt and emit in a draft.
var knownTypes = []string{
	"multiple_choice", "true_false", "matching",
	"ordering", "short_answer", "fill_in_blank",
}

func (f *Fabricator) fabricateProfile(prompt string) json.RawMessage {
	count := detectCount(prompt)
	types := detectTypes(prompt)

	dist := make(map[string]float64, len(types))
	share := 1.0 / float64(len(types))
	total := 0.0
	for i, t := range types {
		p := share
		if i == len(types)-1 {
			p = 1.0 - total // absorb rounding so the proportions sum to 1
		}
		dist[t] = round2(p)
		total += round2(p)
	}

	out := map[string]any{
		"question_count":        count,
		"type_distribution":     dist,
		"image_ratio":           0.0,
		"difficulty_descriptor": pickOne(prompt, []string{"foundational recall", "grade-level application", "stretch analysis"}),
	}
	raw, _ := json.Marshal(out)
	return raw
}

func (f *Fabricator) fabricateDraft(prompt string) json.RawMessage {
	count := detectCount(prompt)
	types := detectTypes(prompt)
	topics := detectTopics(prompt)
	seed := hashString(prompt)

	questions := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		topic := topics[(i+int(seed))%len(topics)]
		qType := types[i%len(types)]
		questions = append(questions, fabricateQuestion(qType, topic, i))
	}

	raw, _ := json.Marshal(map[string]any{"questions": questions})
	return raw
}

func (f *Fabricator) fabricateCritique() json.RawMessage {
	return json.RawMessage(`{"approved": true, "violations": []}`)
}

func fabricateQuestion(qType, topic string, n int) map[string]any {
	q := map[string]any{
		"type":              qType,
		"stem":              "",
		"options":           []map[string]any{},
		"answer":            "",
		"explanation":       fmt.Sprintf("Reviewed in the lesson on %s.", topic),
		"cognitive_level":   cognitiveLevels[n%len(cognitiveLevels)],
		"image_description": "",
	}

	switch qType {
	case "multiple_choice":
		q["stem"] = fmt.Sprintf("Which statement about %s is accurate?", topic)
		q["options"] = []map[string]any{
			{"text": fmt.Sprintf("The definition of %s covered in class", topic), "correct": true},
			{"text": fmt.Sprintf("A common misconception about %s", topic), "correct": false},
			{"text": fmt.Sprintf("An unrelated fact resembling %s", topic), "correct": false},
			{"text": fmt.Sprintf("A partially true claim about %s", topic), "correct": false},
		}
	case "true_false":
		q["stem"] = fmt.Sprintf("True or false: %s works the way the lesson described.", topic)
		q["options"] = []map[string]any{
			{"text": "True", "correct": true},
			{"text": "False", "correct": false},
		}
	case "matching":
		q["stem"] = fmt.Sprintf("Match each term related to %s with its definition.", topic)
		q["answer"] = "1-A; 2-B; 3-C"
	case "ordering":
		q["stem"] = fmt.Sprintf("Place the steps of %s in the correct order.", topic)
		q["answer"] = "first step; second step; third step"
	case "short_answer":
		q["stem"] = fmt.Sprintf("In one or two sentences, explain %s.", topic)
		q["answer"] = fmt.Sprintf("A concise explanation of %s as taught in class.", topic)
	case "fill_in_blank":
		q["stem"] = fmt.Sprintf("The key property of %s is ____.", topic)
		q["answer"] = "the property emphasized in the lesson"
	}
	return q
}

var cognitiveLevels = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}

func detectCount(prompt string) int {
	if m := countRe.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 5
}

func detectTypes(prompt string) []string {
	var found []string
	for _, t := range knownTypes {
		if strings.Contains(prompt, t) {
			found = append(found, t)
		}
	}
	if len(found) == 0 {
		return []string{"multiple_choice", "true_false", "short_answer"}
	}
	return found
}

func detectTopics(prompt string) []string {
	if m := topicRe.FindStringSubmatch(prompt); m != nil {
		parts := strings.Split(m[1], ",")
		topics := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				topics = append(topics, t)
			}
		}
		if len(topics) > 0 {
			return topics
		}
	}
	return []string{"the lesson material"}
}

func pickOne(prompt string, options []string) string {
	return options[int(hashString(prompt))%len(options)]
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func joinMessages(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
