package flow

// Fallback texts used when the API gives no message of its own.
const (
	MsgLoginFailed        = "Login failed. Please check your credentials and try again."
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgInvalidCode        = "Invalid verification code. Please try again."
	MsgForgotFailed       = "Failed to send reset code. Please try again."
	MsgResendVerifyFailed = "Failed to resend verification code. Please try again."
	MsgResendResetFailed  = "Failed to resend password reset code. Please try again."
	MsgGoogleLoginFailed  = "Failed to authenticate with Google. Please try again."
	MsgGoogleRegFailed    = "Failed to register with Google. Please try again."
)

const (
	MsgVerifyCodeSent = "New verification code sent to your email!"
	MsgResetCodeSent  = "New password reset code sent to your email!"
)
