package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"eventadmission/internal/domain"
)

type httpScorer struct {
	client  *http.Client
	baseURL string
}

// NewHTTPScorer returns a FreeTextScorer that asks an external classifier
// whether a free-text answer is acceptable.
func NewHTTPScorer(client *http.Client, baseURL string) domain.FreeTextScorer {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpScorer{client: client, baseURL: baseURL}
}

type scoreRequest struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

type scoreResponse struct {
	Passed  bool   `json:"passed"`
	Comment string `json:"comment"`
}

func (s *httpScorer) Evaluate(ctx context.Context, question *domain.Question, answer *domain.Answer) (bool, string, error) {
	body, err := json.Marshal(scoreRequest{Prompt: question.Prompt, Answer: answer.Text})
	if err != nil {
		return false, "", fmt.Errorf("failed to encode score request: %w", err)
	}

	url := s.baseURL + "/v1/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("failed to reach scoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("scoring service returned status: %d", resp.StatusCode)
	}

	var data scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, "", fmt.Errorf("failed to decode score response: %w", err)
	}
	return data.Passed, data.Comment, nil
}

// pendingScorer fails every free-text answer with a review note, which pushes
// AUTOMATIC questionnaires containing free text toward human review policies.
// Used when no classifier is configured.
type pendingScorer struct{}

func NewPendingScorer() domain.FreeTextScorer {
	return &pendingScorer{}
}

func (pendingScorer) Evaluate(ctx context.Context, question *domain.Question, answer *domain.Answer) (bool, string, error) {
	return false, "needs human review", nil
}
