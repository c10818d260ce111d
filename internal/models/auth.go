package models

import "github.com/golang-jwt/jwt/v5"

// InstructorClaims is the payload of an instructor access token.
type InstructorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueTokenRequest describes a token to mint for an instructor.
type IssueTokenRequest struct {
	Subject string `validate:"required,max=128"`
	Name    string `validate:"max=255"`
}
