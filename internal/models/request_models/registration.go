package request_models

// PendingRegistration is the profile held in the session between Register and VerifyOtp.
// The password is already hashed; the account row does not exist yet.
type PendingRegistration struct {
	Email        string `json:"email"`
	Number       string `json:"number"`
	Name         string `json:"name"`
	Gender       string `json:"gender"`
	PasswordHash string `json:"password_hash"`
}
