package extract

import (
	"encoding/json"
	"fmt"
)

// Completion providers answer in one of two envelope shapes: the
// structured /v1/responses layout (output[0].content[0].text) and the
// legacy chat-completions layout (choices[0].message.content). Batch
// output files mix both depending on which endpoint the batch targeted,
// so the decoder sniffs the shape instead of trusting configuration.

type responseEnvelope struct {
	Model string `json:"model"`

	// /v1/responses shape.
	Output []struct {
		Content json.RawMessage `json:"content"`
	} `json:"output"`

	// Legacy chat-completions shape.
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type contentBlock struct {
	Text string `json:"text"`
}

// DecodeEnvelope pulls the assistant text and the responding model name
// out of a raw response body, whichever envelope variant it uses.
func DecodeEnvelope(body []byte) (text, model string, err error) {
	var env responseEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", "", fmt.Errorf("parsing response body: %w", err)
	}

	switch {
	case len(env.Output) > 0:
		text, err = decodeOutputContent(env.Output[0].Content)
		if err != nil {
			return "", "", err
		}
	case len(env.Choices) > 0:
		text = env.Choices[0].Message.Content
	default:
		return "", "", fmt.Errorf("unknown response format: neither output nor choices present")
	}

	if text == "" {
		return "", "", fmt.Errorf("empty assistant message in response")
	}
	return text, env.Model, nil
}

// decodeOutputContent handles the two content encodings seen in
// /v1/responses bodies: a list of typed blocks, or a bare string.
func decodeOutputContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("response output has no content")
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		if len(blocks) == 0 {
			return "", fmt.Errorf("response output content is empty")
		}
		return blocks[0].Text, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("unexpected content format in response output")
}
