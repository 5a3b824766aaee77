package dto

// AccountRequest is the body of sign-up and sign-in. Pointer fields tell a
// missing key apart from an empty value. SocialSignupType stays undecoded
// because clients send both 1 and "1".
type AccountRequest struct {
	Email            *string `json:"email"`
	Password         *string `json:"password"`
	SocialSignupType any     `json:"social_signup_type"`
}

// AccountResponse is the read-only projection of a user. It never carries the password.
type AccountResponse struct {
	ID                   uint64 `json:"id"`
	Email                string `json:"email"`
	IsDeleted            bool   `json:"is_deleted"`
	AccountTypeName      string `json:"user_account_type_name"`
	SocialSignupTypeName string `json:"social_signup_type_name"`
}

type AccountPage struct {
	Count    int64             `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Results  []AccountResponse `json:"results"`
}

type KakaoTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type KakaoProfileRequest struct {
	AccessToken *string `json:"access_token"`
}

type KakaoProfileResponse struct {
	Email string `json:"email"`
}

// Response is the success envelope.
type Response struct {
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	ErrMsg string `json:"err_msg"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
