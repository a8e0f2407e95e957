package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"eventadmission/internal/domain"
)

type httpGateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPGateway returns a PaymentGateway that opens checkout sessions against
// the payment provider's REST API.
func NewHTTPGateway(client *http.Client, baseURL, apiKey string) domain.PaymentGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpGateway{client: client, baseURL: baseURL, apiKey: apiKey}
}

type checkoutRequest struct {
	Reference   string `json:"reference"`
	AmountCents int    `json:"amount_cents"`
	TicketID    string `json:"ticket_id"`
}

type checkoutResponse struct {
	CheckoutRef string `json:"checkout_ref"`
}

func (g *httpGateway) CreateCheckout(ctx context.Context, payment *domain.Payment, ticket *domain.Ticket) (string, error) {
	body, err := json.Marshal(checkoutRequest{
		Reference:   payment.CheckoutRef,
		AmountCents: payment.AmountCents,
		TicketID:    ticket.ID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	url := g.baseURL + "/v1/checkouts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach payment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment provider returned status: %d", resp.StatusCode)
	}

	var data checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if data.CheckoutRef == "" {
		return "", fmt.Errorf("payment provider returned empty checkout reference")
	}
	return data.CheckoutRef, nil
}

type noopGateway struct{}

// NewNoopGateway returns a gateway that echoes the prepared reference back.
// Used in development where no payment provider is configured.
func NewNoopGateway() domain.PaymentGateway {
	return &noopGateway{}
}

func (noopGateway) CreateCheckout(ctx context.Context, payment *domain.Payment, ticket *domain.Ticket) (string, error) {
	log.Println("[PAYMENTS] Checkout would be created (noop)", "ref", payment.CheckoutRef, "ticket", ticket.ID)
	return payment.CheckoutRef, nil
}
