package dto

import (
	"strings"

	"vidstream/internal/domain/models"
)

type UserRegisterInput struct {
	FullName string `form:"full_name" validate:"required,min=2,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Username string `form:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `form:"password" validate:"required,min=8,max=64"`

	// Filled by the handler after the uploads succeed, never by the client.
	AvatarURL     string `form:"-"`
	CoverImageURL string `form:"-"`
}

// ToDomain lowercases the lookup identifiers; the store only ever holds the
// normalized form.
func (input UserRegisterInput) ToDomain(passwordHash []byte) *models.User {
	return &models.User{
		Username:      strings.ToLower(input.Username),
		Email:         strings.ToLower(input.Email),
		FullName:      input.FullName,
		AvatarURL:     input.AvatarURL,
		CoverImageURL: input.CoverImageURL,
		Password:      passwordHash,
	}
}
