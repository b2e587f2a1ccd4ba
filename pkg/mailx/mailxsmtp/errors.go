package mailxsmtp

import "github.com/Abraxas-365/bulkmailer/pkg/errx"

var smtpErrors = errx.NewRegistry("MAIL_SMTP")

var (
	ErrConnectFailed = smtpErrors.Register("CONNECT_FAILED", errx.TypeExternal, 502, "Failed to connect to SMTP host")
	ErrVerifyFailed  = smtpErrors.Register("VERIFY_FAILED", errx.TypeExternal, 502, "SMTP verification failed")
	ErrSendFailed    = smtpErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "SMTP send failed")
	ErrBuildMessage  = smtpErrors.Register("BUILD_MESSAGE", errx.TypeInternal, 500, "Failed to build SMTP message")
	ErrHandleClosed  = smtpErrors.Register("HANDLE_CLOSED", errx.TypeInternal, 500, "SMTP handle already closed")
)
