package cognitive

import "strings"

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnswersRequest is the body of a knowledge base query.
type AnswersRequest struct {
	Question string `json:"question"`
	Top      int    `json:"top,omitempty"`
}

type AnswersResponse struct {
	Answers []Answer `json:"answers"`
}

// Answer is one candidate returned for a question, in service order.
type Answer struct {
	Questions       []string          `json:"questions"`
	Answer          string            `json:"answer"`
	ConfidenceScore float64           `json:"confidenceScore"`
	ID              int               `json:"id"`
	Source          string            `json:"source"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type SentimentRequest struct {
	Documents []SentimentDocument `json:"documents"`
}

type SentimentDocument struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

type SentimentResponse struct {
	Documents    []DocumentSentiment `json:"documents"`
	Errors       []DocumentError     `json:"errors"`
	ModelVersion string              `json:"modelVersion"`
}

type DocumentSentiment struct {
	ID               string          `json:"id"`
	Sentiment        Sentiment       `json:"sentiment"`
	ConfidenceScores SentimentScores `json:"confidenceScores"`
}

type SentimentScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type DocumentError struct {
	ID    string      `json:"id"`
	Error ErrorDetail `json:"error"`
}

// Sentiment is the coarse label of a piece of text as sent by the service
// ("positive", "negative", "neutral", "mixed").
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// String returns the display form of the label, e.g. "Neutral".
func (s Sentiment) String() string {
	switch Sentiment(strings.ToLower(string(s))) {
	case SentimentPositive:
		return "Positive"
	case SentimentNegative:
		return "Negative"
	case SentimentNeutral:
		return "Neutral"
	case SentimentMixed:
		return "Mixed"
	default:
		return string(s)
	}
}
