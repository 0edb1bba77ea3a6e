package grading

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Answer is the decoded form of a student's serialized response. Exactly one
// payload field is populated, selected by Type; unrecognized types keep the
// original document in Raw so nothing is silently dropped.
type Answer struct {
	Type       string
	Selected   string
	Entered    string
	Selections []string
	Order      []string
	Placements map[string]string
	Raw        json.RawMessage
}

type answerEnvelope struct {
	Type       string            `json:"type"`
	Selected   json.RawMessage   `json:"selected,omitempty"`
	Entered    *string           `json:"entered,omitempty"`
	Order      []string          `json:"order,omitempty"`
	Placements map[string]string `json:"placements,omitempty"`
	Raw        json.RawMessage   `json:"raw,omitempty"`
}

var answerSchemas = compileAnswerSchemas(map[string]string{
	"multiple_choice": `{"type":"object","required":["type","selected"],"properties":{"type":{"const":"multiple_choice"},"selected":{"type":"string"}}}`,
	"short_answer":    `{"type":"object","required":["type","entered"],"properties":{"type":{"const":"short_answer"},"entered":{"type":"string"}}}`,
	"multi_select":    `{"type":"object","required":["type","selected"],"properties":{"type":{"const":"multi_select"},"selected":{"type":"array","items":{"type":"string"}}}}`,
	"ordering":        `{"type":"object","required":["type","order"],"properties":{"type":{"const":"ordering"},"order":{"type":"array","items":{"type":"string"}}}}`,
	"placement":       `{"type":"object","required":["type","placements"],"properties":{"type":{"const":"placement"},"placements":{"type":"object","additionalProperties":{"type":"string"}}}}`,
})

func compileAnswerSchemas(raw map[string]string) map[string]*jsonschema.Schema {
	compiled := make(map[string]*jsonschema.Schema, len(raw))
	for tag, schema := range raw {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(tag+".json", bytes.NewReader([]byte(schema))); err != nil {
			panic(fmt.Sprintf("add answer schema %s: %v", tag, err))
		}
		compiled[tag] = compiler.MustCompile(tag + ".json")
	}
	return compiled
}

// DecodeAnswer parses a serialized answer document, validating known shapes
// against their JSON Schema first.
func DecodeAnswer(data []byte) (Answer, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Answer{}, fmt.Errorf("%w: malformed answer document: %v", ErrValidation, err)
	}
	if probe.Type == "" {
		return Answer{}, fmt.Errorf("%w: answer type missing", ErrValidation)
	}

	schema, known := answerSchemas[probe.Type]
	if !known {
		var envelope answerEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		raw := envelope.Raw
		if len(raw) == 0 {
			raw = append(json.RawMessage(nil), data...)
		}
		return Answer{Type: probe.Type, Raw: raw}, nil
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Answer{}, fmt.Errorf("%w: malformed answer document: %v", ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var envelope answerEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	answer := Answer{Type: envelope.Type}
	switch envelope.Type {
	case "multiple_choice":
		if err := json.Unmarshal(envelope.Selected, &answer.Selected); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	case "short_answer":
		if envelope.Entered != nil {
			answer.Entered = *envelope.Entered
		}
	case "multi_select":
		if err := json.Unmarshal(envelope.Selected, &answer.Selections); err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	case "ordering":
		answer.Order = envelope.Order
	case "placement":
		answer.Placements = envelope.Placements
	}

	return answer, nil
}

// EncodeAnswer serializes an answer back into its tagged document form.
// Decode followed by Encode preserves content.
func EncodeAnswer(answer Answer) ([]byte, error) {
	switch answer.Type {
	case "multiple_choice":
		return json.Marshal(struct {
			Type     string `json:"type"`
			Selected string `json:"selected"`
		}{answer.Type, answer.Selected})
	case "short_answer":
		return json.Marshal(struct {
			Type    string `json:"type"`
			Entered string `json:"entered"`
		}{answer.Type, answer.Entered})
	case "multi_select":
		return json.Marshal(struct {
			Type     string   `json:"type"`
			Selected []string `json:"selected"`
		}{answer.Type, emptyIfNil(answer.Selections)})
	case "ordering":
		return json.Marshal(struct {
			Type  string   `json:"type"`
			Order []string `json:"order"`
		}{answer.Type, emptyIfNil(answer.Order)})
	case "placement":
		placements := answer.Placements
		if placements == nil {
			placements = map[string]string{}
		}
		return json.Marshal(struct {
			Type       string            `json:"type"`
			Placements map[string]string `json:"placements"`
		}{answer.Type, placements})
	default:
		// Unknown types keep the original payload under "raw" so nothing is
		// silently lost.
		raw := answer.Raw
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		return json.Marshal(struct {
			Type string          `json:"type"`
			Raw  json.RawMessage `json:"raw"`
		}{answer.Type, raw})
	}
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
