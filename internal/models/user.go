package models

import "time"

// User is the profile kept for a candidate, keyed by email. Number is the
// phone number.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	FullName  string    `bson:"fullname" json:"fullname"`
	Email     string    `bson:"email" json:"email"`
	Number    string    `bson:"number,omitempty" json:"number,omitempty"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
