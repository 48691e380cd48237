package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus represents the payment lifecycle state of a sale
type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusWaitingPayment PaymentStatus = "waiting_payment"
	PaymentStatusApproved       PaymentStatus = "approved"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusExpired        PaymentStatus = "expired"
)

// InFlightStatuses are the statuses that hold a claim on raffle numbers.
// Sales in any of these states block the same numbers from being sold again.
var InFlightStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusWaitingPayment,
	PaymentStatusApproved,
}

// ConfirmedStatuses are the terminal paid states. "paid" is kept alongside
// "approved" for rows written by older imports.
var ConfirmedStatuses = []PaymentStatus{PaymentStatusApproved, "paid"}

// Sale represents one buyer's claim on a set of numbers within a raffle
type Sale struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleID       primitive.ObjectID `bson:"raffleId" json:"raffle_id"`
	UserID         string             `bson:"userId,omitempty" json:"user_id,omitempty"`
	BuyerName      string             `bson:"buyerName" json:"buyer_name"`
	BuyerPhone     string             `bson:"buyerPhone,omitempty" json:"buyer_phone,omitempty"`
	BuyerEmail     string             `bson:"buyerEmail" json:"buyer_email"`
	Numbers        []int              `bson:"numbers" json:"numbers"`
	PaymentAmount  Money              `bson:"paymentAmount" json:"payment_amount"`
	PaymentStatus  PaymentStatus      `bson:"paymentStatus" json:"payment_status"`
	PaymentID      string             `bson:"paymentId,omitempty" json:"payment_id,omitempty"`
	IdempotencyKey string             `bson:"idempotencyKey,omitempty" json:"-"`
	PaidAt         *time.Time         `bson:"paidAt,omitempty" json:"paid_at,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}

// NumberAllocation is one claimed number inside a raffle. A unique index on
// (raffleId, number) is what makes two concurrent reservations of the same
// number impossible.
type NumberAllocation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RaffleID  primitive.ObjectID `bson:"raffleId"`
	Number    int                `bson:"number"`
	SaleID    primitive.ObjectID `bson:"saleId"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// CreateSaleRequest is the purchase payload from the number picker
type CreateSaleRequest struct {
	UserID     string `json:"user_id"`
	BuyerName  string `json:"buyer_name" binding:"required"`
	BuyerPhone string `json:"buyer_phone"`
	BuyerEmail string `json:"buyer_email" binding:"required,email"`
	Numbers    []int  `json:"numbers" binding:"required,min=1"`
}
