package mailxses

import "github.com/Abraxas-365/bulkmailer/pkg/errx"

var sesErrors = errx.NewRegistry("MAIL_SES")

var (
	ErrMissingSender = sesErrors.Register("MISSING_SENDER", errx.TypeValidation, 400, "Sender address is required")
	ErrVerifyFailed  = sesErrors.Register("VERIFY_FAILED", errx.TypeExternal, 502, "SES account verification failed")
	ErrSendFailed    = sesErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "SES send email failed")
	ErrBuildMessage  = sesErrors.Register("BUILD_MESSAGE", errx.TypeInternal, 500, "Failed to build SES message")
)
