package response_models

import (
	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/request_models"
)

// AccountListing backs the admin dashboard.
type AccountListing struct {
	Accounts     []db_models.Account
	Query        string
	Total        int64
	Verified     int64
	Unverified   int64
	PendingCodes []db_models.EmailVerificationCode
}

// LoginOutcome tells the controller which session to establish.
type LoginOutcome struct {
	Admin         bool
	AdminUsername string
	Account       *db_models.Account
}

// RegistrationState is where an email stands in the sign-up flow.
type RegistrationState int

const (
	// RegistrationPending: nothing issued yet, or the last code expired.
	RegistrationPending RegistrationState = iota
	// RegistrationAwaitingOtp: an unused, unexpired code is outstanding.
	RegistrationAwaitingOtp
	// RegistrationVerified: a verified account exists.
	RegistrationVerified
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationAwaitingOtp:
		return "awaiting_otp"
	case RegistrationVerified:
		return "verified"
	default:
		return "pending"
	}
}

// RegistrationOutcome is the result of a successful Register call.
type RegistrationOutcome struct {
	// AlreadyIssued means a valid code was outstanding and nothing new was sent.
	AlreadyIssued bool
	Pending       *request_models.PendingRegistration
	Delivery      DeliveryResult
}

// ResetRequestOutcome is returned for every well-formed forgot-password request.
type ResetRequestOutcome struct {
	// Link is empty when no account exists for the email.
	Link     string
	Delivery DeliveryResult
}

// ObservationOutcome is what the result page renders after a submission.
type ObservationOutcome struct {
	Observation *db_models.Observation
	BMI         float64
	ImagePath   string
	Analysis    AnalysisResult
}
