package bulkx

import "github.com/Abraxas-365/bulkmailer/pkg/errx"

var bulkxErrors = errx.NewRegistry("BULK")

var (
	ErrInvalidInput  = bulkxErrors.Register("INVALID_INPUT", errx.TypeValidation, 400, "Invalid bulk send request")
	ErrJobNotFound   = bulkxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrTransportTest = bulkxErrors.Register("TRANSPORT_TEST_FAILED", errx.TypeValidation, 400, "Email configuration test failed")
)
