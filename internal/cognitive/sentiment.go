package cognitive

import (
	"context"
	"errors"
	"fmt"
)

const sentimentPath = "/text/analytics/v3.1/sentiment"

var ErrNoSentiment = errors.New("no sentiment in response")

type TextAnalyticsClient struct {
	client   *Client
	language string
}

func NewTextAnalyticsClient(endpoint, key string) (*TextAnalyticsClient, error) {
	client, err := NewClient(ClientConfig{
		Name:     "text analytics",
		Endpoint: endpoint,
		Key:      key,
	})
	if err != nil {
		return nil, err
	}
	return newTextAnalyticsClient(client), nil
}

func newTextAnalyticsClient(client *Client) *TextAnalyticsClient {
	return &TextAnalyticsClient{client: client, language: "en"}
}

// AnalyzeSentiment labels a single document.
func (c *TextAnalyticsClient) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	req := SentimentRequest{
		Documents: []SentimentDocument{{ID: "1", Language: c.language, Text: text}},
	}

	var resp SentimentResponse
	if err := c.client.PostJSON(ctx, sentimentPath, nil, req, &resp); err != nil {
		return "", fmt.Errorf("analyze sentiment: %w", err)
	}

	if len(resp.Errors) > 0 {
		e := resp.Errors[0].Error
		return "", fmt.Errorf("analyze sentiment: document %s: %s: %s", resp.Errors[0].ID, e.Code, e.Message)
	}
	if len(resp.Documents) == 0 {
		return "", fmt.Errorf("analyze sentiment: %w", ErrNoSentiment)
	}
	return resp.Documents[0].Sentiment, nil
}
