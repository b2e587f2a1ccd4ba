package mailx

import "github.com/Abraxas-365/bulkmailer/pkg/errx"

var mailxErrors = errx.NewRegistry("MAIL")

var (
	ErrInvalidConfig     = mailxErrors.Register("INVALID_CONFIG", errx.TypeValidation, 400, "Invalid transport configuration")
	ErrAttachmentResolve = mailxErrors.Register("ATTACHMENT_RESOLVE", errx.TypeInternal, 500, "Failed to resolve attachment")
)
