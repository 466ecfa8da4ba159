package response_models

type DeliveryFailure string

const (
	DeliveryOK            DeliveryFailure = ""
	DeliveryNotConfigured DeliveryFailure = "not_configured"
	DeliveryTimeout       DeliveryFailure = "timeout"
	DeliveryTransport     DeliveryFailure = "transport"
	DeliveryRejected      DeliveryFailure = "rejected"
)

// DeliveryResult reports the outcome of one outbound email.
type DeliveryResult struct {
	Sent    bool
	Failure DeliveryFailure
	Detail  string
}

func Delivered() DeliveryResult { return DeliveryResult{Sent: true} }

func DeliveryFailed(kind DeliveryFailure, detail string) DeliveryResult {
	return DeliveryResult{Failure: kind, Detail: detail}
}

// MailCheck is one line of the admin mail diagnostics page.
type MailCheck struct {
	Name    string
	Passed  bool
	Warning bool
	Message string
}
