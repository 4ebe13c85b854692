package identity

import "fmt"

// ProviderError is a structured error returned by the hosted identity
// provider. Codes follow the provider's exception naming.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %s: %s", e.Code, e.Message)
}

// Fixed human-readable strings for known provider error codes. Authentication
// errors are always recoverable — the user retries the form.
var providerErrorMessages = map[string]string{
	"NotAuthorizedException":         "Incorrect email or password.",
	"UserNotConfirmedException":      "Your account is not confirmed yet. Check your email for the confirmation code.",
	"UserNotFoundException":          "No account exists for that email.",
	"UsernameExistsException":        "An account with that email already exists.",
	"CodeMismatchException":          "That confirmation code is not correct.",
	"ExpiredCodeException":           "That confirmation code has expired. Request a new one.",
	"PasswordResetRequiredException": "A password reset is required before you can sign in.",
	"InvalidPasswordException":       "Password does not meet the requirements.",
	"LimitExceededException":         "Too many attempts. Wait a moment and try again.",
	"TooManyRequestsException":       "Too many attempts. Wait a moment and try again.",
}

// UserMessage maps a provider error to its fixed display string. Unknown codes
// fall back to the provider's own message.
func UserMessage(err error) string {
	if pe, ok := err.(*ProviderError); ok {
		if msg, found := providerErrorMessages[pe.Code]; found {
			return msg
		}
		if pe.Message != "" {
			return pe.Message
		}
	}
	return "Something went wrong. Please try again."
}
