package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned before any request leaves the process
	ErrInvalidAmount = errors.New("transaction amount must be greater than zero")
	// ErrMissingPayer is returned when the charge has no payer email
	ErrMissingPayer = errors.New("payer email is required")
	// ErrUnavailable wraps network and timeout failures. The caller may retry
	// with the same idempotency key; nothing was necessarily created upstream.
	ErrUnavailable = errors.New("mercado pago unreachable")
)

// APIError is a non-success response from Mercado Pago
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercado pago: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client is a Mercado Pago payments API client
type Client struct {
	BaseURL         string
	AccessToken     string
	NotificationURL string
	client          *http.Client
}

// NewClient creates a new Mercado Pago client
func NewClient(baseURL, accessToken, notificationURL string) *Client {
	return &Client{
		BaseURL:         baseURL,
		AccessToken:     accessToken,
		NotificationURL: notificationURL,
		client:          &http.Client{Timeout: 10 * time.Second},
	}
}

// Payer identifies who pays a charge
type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ChargeRequest describes a PIX charge to create
type ChargeRequest struct {
	Amount            decimal.Decimal
	Description       string
	Payer             Payer
	ExternalReference string
	// IdempotencyKey must be reused verbatim when retrying the same charge,
	// otherwise a retry can create a duplicate payment.
	IdempotencyKey string
}

type paymentRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	Description       string      `json:"description"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Payer             Payer       `json:"payer"`
	ExternalReference string      `json:"external_reference"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

// TransactionData carries the scannable PIX payload
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

// PointOfInteraction nests the transaction data in the v1 payments response
type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

// Payment is an external payment record as reported by the gateway
type Payment struct {
	ID                 json.Number        `json:"id"`
	Status             string             `json:"status"`
	TransactionAmount  decimal.Decimal    `json:"transaction_amount"`
	ExternalReference  string             `json:"external_reference"`
	PointOfInteraction PointOfInteraction `json:"point_of_interaction"`
	// Older webhook test payloads put the QR fields at the top level
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// StatusApproved is the terminal status that confirms a payment
const StatusApproved = "approved"

// QR returns the QR payload wherever the response carried it
func (p *Payment) QR() (code, base64, ticketURL string) {
	code = p.PointOfInteraction.TransactionData.QRCode
	if code == "" {
		code = p.QRCode
	}
	base64 = p.PointOfInteraction.TransactionData.QRCodeBase64
	if base64 == "" {
		base64 = p.QRCodeBase64
	}
	return code, base64, p.PointOfInteraction.TransactionData.TicketURL
}

// CreatePayment creates a PIX charge
func (c *Client) CreatePayment(ctx context.Context, req ChargeRequest) (*Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Payer.Email == "" {
		return nil, ErrMissingPayer
	}

	payer := req.Payer
	if payer.FirstName == "" {
		payer.FirstName = "Cliente"
	}
	if payer.LastName == "" {
		payer.LastName = "PIX"
	}
	description := req.Description
	if description == "" {
		description = "Pagamento PIX"
	}

	body := paymentRequest{
		TransactionAmount: json.Number(req.Amount.String()),
		Description:       description,
		PaymentMethodID:   "pix",
		Payer:             payer,
		ExternalReference: req.ExternalReference,
		NotificationURL:   c.NotificationURL,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)
	}

	return c.do(httpReq)
}

// GetPayment fetches a payment record by id
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)

	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*Payment, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = "unreadable error response"
		}
		return nil, apiErr
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &payment, nil
}
