package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Raffle represents a configured drawing with a fixed pool of purchasable numbers
type Raffle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
	PricePerNum  Money              `bson:"pricePerNumber" json:"price_per_number"`
	TotalNumbers int                `bson:"totalNumbers" json:"total_numbers"`
	Active       bool               `bson:"active" json:"active"`
	Archived     bool               `bson:"archived" json:"archived"`
	WinnerNumber *int               `bson:"winnerNumber,omitempty" json:"winner_number,omitempty"`
	WinnerUser   string             `bson:"winnerUser,omitempty" json:"winner_user,omitempty"`
	FinishedAt   *time.Time         `bson:"finishedAt,omitempty" json:"finished_at,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// CreateRaffleRequest is the admin payload for creating a raffle
type CreateRaffleRequest struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	ImageURL       string `json:"image_url"`
	PricePerNumber string `json:"price_per_number" binding:"required"`
	TotalNumbers   int    `json:"total_numbers" binding:"required,gt=0"`
}

// UpdateRaffleRequest is the admin payload for editing a raffle.
// TotalNumbers is deliberately absent: the number pool is fixed after
// creation because sold numbers reference it.
type UpdateRaffleRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	ImageURL       *string `json:"image_url"`
	PricePerNumber *string `json:"price_per_number"`
	Active         *bool   `json:"active"`
}

// FinalizeRaffleRequest carries the drawn number
type FinalizeRaffleRequest struct {
	Number int `json:"number" binding:"required"`
}
