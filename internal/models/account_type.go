package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AccountType is the closed set of account roles.
type AccountType uint8

const (
	AccountTypeAdmin AccountType = iota
	AccountTypeCreator
	AccountTypeConsumer
)

var accountTypeLabels = map[AccountType]string{
	AccountTypeAdmin:    "Admin",
	AccountTypeCreator:  "Creator",
	AccountTypeConsumer: "Consumer",
}

func (t AccountType) Valid() bool {
	_, ok := accountTypeLabels[t]
	return ok
}

func (t AccountType) Label() string {
	if label, ok := accountTypeLabels[t]; ok {
		return label
	}
	return "Unknown"
}

// SocialSignupType identifies the provider an account was created through.
type SocialSignupType uint8

const (
	SocialSignupNone SocialSignupType = iota
	SocialSignupKakao
	SocialSignupNaver
	SocialSignupFacebook
	SocialSignupGoogle
	SocialSignupApple
)

var socialSignupLabels = map[SocialSignupType]string{
	SocialSignupNone:     "None",
	SocialSignupKakao:    "Kakao",
	SocialSignupNaver:    "Naver",
	SocialSignupFacebook: "Facebook",
	SocialSignupGoogle:   "Google",
	SocialSignupApple:    "Apple",
}

var ErrUnknownSocialSignupType = errors.New("unknown social signup type")

func (t SocialSignupType) Valid() bool {
	_, ok := socialSignupLabels[t]
	return ok
}

func (t SocialSignupType) Label() string {
	if label, ok := socialSignupLabels[t]; ok {
		return label
	}
	return "Unknown"
}

// IsSocial is false only for password accounts.
func (t SocialSignupType) IsSocial() bool {
	return t != SocialSignupNone
}

// ParseSocialSignupType accepts the decoded JSON value of social_signup_type:
// an integral number or a numeric string.
func ParseSocialSignupType(raw any) (SocialSignupType, error) {
	var code int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", ErrUnknownSocialSignupType, v)
		}
		code = int64(v)
	case int:
		code = int64(v)
	case int64:
		code = v
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnknownSocialSignupType, v)
		}
		code = n
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownSocialSignupType, raw)
	}

	if code < 0 || code > math.MaxUint8 || !SocialSignupType(code).Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSocialSignupType, code)
	}
	return SocialSignupType(code), nil
}
