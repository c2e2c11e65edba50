package generator

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/siherrmann/docqa/helper"
)

const systemPrompt = `You are an expert document analysis AI.
Your task is to analyze document context and provide accurate answers to specific questions.

Key guidelines:
1. Always base your answers strictly on the provided document context
2. If information is not available in the context, clearly state "Information not available in the provided documents"
3. Provide clear, concise answers with specific details when available
4. Include relevant clause references or section numbers when mentioned in the context`

// OpenAIGenerator creates a generator backed by the OpenAI chat completions
// API. A low temperature keeps answers factual.
func OpenAIGenerator(apiKey string, chatModel string) (GenerateFunc, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is empty", helper.ErrConfiguration)
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	client := openai.NewClient(apiKey)

	return func(ctx context.Context, contextBlock string, question string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       chatModel,
			Temperature: 0.1,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: BuildPrompt(contextBlock, question),
				},
			},
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return "", fmt.Errorf("%w: %v", helper.ErrTimeout, err)
			}
			return "", fmt.Errorf("%w: %v", helper.ErrGeneration, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: no completion choices returned", helper.ErrGeneration)
		}

		return resp.Choices[0].Message.Content, nil
	}, nil
}

// BuildPrompt renders the user prompt handed to the chat model
func BuildPrompt(contextBlock string, question string) string {
	return fmt.Sprintf(`DOCUMENT CONTEXT:
%s

QUESTION: %s

Analyze the provided document context and answer the question accurately. Provide a direct answer based solely on the document context. If the information is not available, state so clearly.

ANSWER:`, contextBlock, question)
}
