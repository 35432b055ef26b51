package cognitive

import (
	"context"
	"fmt"
	"net/url"
)

const (
	answersPath       = "/language/:query-knowledgebases"
	answersAPIVersion = "2021-10-01"
)

// QuestionAnsweringClient queries one deployed knowledge base project.
type QuestionAnsweringClient struct {
	client     *Client
	project    string
	deployment string
}

func NewQuestionAnsweringClient(endpoint, key, project, deployment string) (*QuestionAnsweringClient, error) {
	client, err := NewClient(ClientConfig{
		Name:     "question answering",
		Endpoint: endpoint,
		Key:      key,
	})
	if err != nil {
		return nil, err
	}
	return newQuestionAnsweringClient(client, project, deployment), nil
}

func newQuestionAnsweringClient(client *Client, project, deployment string) *QuestionAnsweringClient {
	return &QuestionAnsweringClient{
		client:     client,
		project:    project,
		deployment: deployment,
	}
}

// GetAnswers returns the candidate answers for question exactly as ranked by
// the service. The slice may be empty.
func (c *QuestionAnsweringClient) GetAnswers(ctx context.Context, question string) ([]Answer, error) {
	query := url.Values{}
	query.Set("projectName", c.project)
	query.Set("deploymentName", c.deployment)
	query.Set("api-version", answersAPIVersion)

	var resp AnswersResponse
	if err := c.client.PostJSON(ctx, answersPath, query, AnswersRequest{Question: question}, &resp); err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return resp.Answers, nil
}
