package summarizer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"pdfdigest/internal/domain"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	DefaultModel = "gpt-5-mini"

	baseMaxOutputTokens  int64 = 2048
	limitMaxOutputTokens int64 = 8192

	textInstructions = `Summarize this text clearly and concisely.

Rules:
- Keep critical context (dates, numbers, names, conclusions).
- Use plain paragraphs separated by line breaks, no markdown.
- Answer in the same language as the input.`

	imageInstructions = `Describe this image in detail for a PDF report.

Rules:
- Start with one line stating what the image is.
- Mention any text, labels, axes or values visible in charts and diagrams.
- If the image is blank or a solid color, say so plainly.
- Use plain paragraphs, no markdown.`
)

// OpenAISummarizer calls OpenAI's Responses API to produce summaries and image descriptions.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer builds a new summarizer instance.
func NewOpenAISummarizer(apiKey string, model string) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Summarize produces a summary of one text chunk.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}

	userPromptBuilder := strings.Builder{}
	if sourceName := strings.TrimSpace(input.SourceName); sourceName != "" {
		userPromptBuilder.WriteString("Source:\n")
		userPromptBuilder.WriteString(sourceName)
		userPromptBuilder.WriteString("\n")
	}
	userPromptBuilder.WriteString("Content:\n")
	userPromptBuilder.WriteString(text)

	return s.respond(ctx, textInstructions, responses.ResponseNewParamsInputUnion{
		OfString: openai.String(userPromptBuilder.String()),
	})
}

// Describe produces a detailed description of one image.
func (s *OpenAISummarizer) Describe(
	ctx context.Context,
	input ImageInput,
) (string, error) {
	if len(input.Data) == 0 {
		return "", fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}

	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		mimeType = http.DetectContentType(input.Data)
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(input.Data)

	return s.respond(ctx, imageInstructions, responses.ResponseNewParamsInputUnion{
		OfInputItemList: responses.ResponseInputParam{
			responses.ResponseInputItemParamOfMessage(
				responses.ResponseInputMessageContentListParam{
					responses.ResponseInputContentParamOfInputText("Describe the attached image."),
					responses.ResponseInputContentUnionParam{
						OfInputImage: &responses.ResponseInputImageParam{
							ImageURL: openai.String(dataURL),
							Detail:   responses.ResponseInputImageDetailAuto,
						},
					},
				},
				"user",
			),
		},
	})
}

func (s *OpenAISummarizer) respond(
	ctx context.Context,
	instructions string,
	input responses.ResponseNewParamsInputUnion,
) (string, error) {
	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModel(s.model),
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(instructions),
			Input:        input,
		})
		if err != nil {
			return "", fmt.Errorf("%w: do request: %w", domain.ErrRemoteService, err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens *= 2
				if maxOutputTokens > limitMaxOutputTokens {
					maxOutputTokens = limitMaxOutputTokens
				}
				continue
			}
			return "", fmt.Errorf(
				"%w: response is incomplete (reason = %s, maxOutputTokens = %d)",
				domain.ErrRemoteService,
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		output := strings.TrimSpace(resp.OutputText())
		if output == "" {
			return "", fmt.Errorf("%w: output text is missing (status = %s)", domain.ErrRemoteService, resp.Status)
		}
		return output, nil
	}
}
