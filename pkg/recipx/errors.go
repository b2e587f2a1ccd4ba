package recipx

import "github.com/Abraxas-365/bulkmailer/pkg/errx"

var recipxErrors = errx.NewRegistry("RECIP")

var (
	ErrUnsupportedFormat = recipxErrors.Register("UNSUPPORTED_FORMAT", errx.TypeValidation, 400, "Unsupported recipient file format")
	ErrParseFailed       = recipxErrors.Register("PARSE_FAILED", errx.TypeValidation, 400, "Failed to parse recipient file")
	ErrNoFile            = recipxErrors.Register("NO_FILE", errx.TypeValidation, 400, "No recipient file uploaded")
)
