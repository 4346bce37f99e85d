package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	engdomain "github.com/plantvision/leafscan/internal/domain/engine"
	"github.com/plantvision/leafscan/internal/imaging"
	"github.com/plantvision/leafscan/internal/infra/engine/prompt"
)

const maxTokens = 256

// Client adapts the OpenAI vision API to the prediction-engine port.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// PredictOne classifies one decoded leaf image. The image is sent as a
// base64 JPEG data URL; the model answers with a JSON object holding
// label and confidence.
func (c *Client) PredictOne(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o"
	}

	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}
	dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(data))

	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.GetUserPrompt()},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", engdomain.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return parsePrediction(resp.Choices[0].Message.Content, model)
}

// parsePrediction decodes the model's JSON answer into the engine
// prediction shape. The configured model name is recorded as the
// picked candidate's provenance.
func parsePrediction(content, model string) (*engdomain.Prediction, error) {
	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse engine response: %w", err)
	}
	if out.Label == "" {
		return nil, fmt.Errorf("engine response missing label")
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("engine confidence %f out of range", out.Confidence)
	}

	picked := engdomain.Candidate{Label: out.Label, Model: model, Confidence: out.Confidence}
	return &engdomain.Prediction{
		Picked:     picked,
		Candidates: []engdomain.Candidate{picked},
	}, nil
}
