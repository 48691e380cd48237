package models

// NotificationKind classifies an inbound gateway notification
type NotificationKind string

const (
	NotificationKindPayment NotificationKind = "payment"
	NotificationKindOther   NotificationKind = "other"
)

// Notification is the normalized form of a webhook delivery. The gateway
// sends several wire shapes; all of them reduce to this before any
// reconciliation logic runs.
type Notification struct {
	PaymentID string
	Kind      NotificationKind
}

// Empty reports whether no payment identifier could be extracted
func (n Notification) Empty() bool {
	return n.PaymentID == ""
}

// PixChargeResponse is what the payment screen needs to render the QR code
type PixChargeResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	TransactionAmount string `json:"transaction_amount"`
	QRCode            string `json:"qr_code"`
	QRCodeBase64      string `json:"qr_code_base64"`
	TicketURL         string `json:"ticket_url,omitempty"`
}
