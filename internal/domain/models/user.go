package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	FullName      string    `db:"full_name" json:"full_name"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url"`
	CoverImageURL string    `db:"cover_image_url" json:"cover_image_url"`
	Password      []byte    `db:"password" json:"-"`
	RefreshToken  string    `db:"refresh_token" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastLogin     time.Time `db:"last_login" json:"last_login"`
}

// Sanitized strips credential material before the user leaves the service
// layer. Password and RefreshToken are already json:"-", but handlers must
// never rely on serialization alone.
func (u User) Sanitized() User {
	u.Password = nil
	u.RefreshToken = ""
	return u
}
