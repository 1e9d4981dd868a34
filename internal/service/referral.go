package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/repository"
)

const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReferralCode() (string, error) {
	code := make([]byte, config.ReferralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("random int: %w", err)
		}
		code[i] = referralCodeCharset[n.Int64()]
	}
	return string(code), nil
}

func generateUniqueReferralCode(ctx context.Context, accounts repository.AccountStore) (string, error) {
	for i := 0; i < config.ReferralCodeAttempts; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = accounts.GetAccountByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate unique referral code after %d attempts: %w", config.ReferralCodeAttempts, domain.ErrConflict)
}
