package models

import "time"

// SubscriptionStatus represents the user's plan tier.
type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "Free"
	SubscriptionPremium SubscriptionStatus = "Premium"
)

// User represents an application user stored in the users table.
type User struct {
	ID                 string             `db:"id" json:"id"`
	Email              string             `db:"email" json:"email"`
	PasswordHash       string             `db:"password_hash" json:"-"`
	Name               string             `db:"name" json:"name"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	IsAdmin            bool               `db:"is_admin" json:"is_admin"`
	ProfilePictureURL  *string            `db:"profile_picture_url" json:"profile_picture_url,omitempty"`
	MobileNumber       *string            `db:"mobile_number" json:"mobile_number,omitempty"`
	LastLogin          *time.Time         `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
