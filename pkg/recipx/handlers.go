package recipx

import (
	"github.com/gofiber/fiber/v2"
)

// sampleCSV is the downloadable template showing the expected column
// layout. Extra columns become personalization fields.
const sampleCSV = `email,name,company
john.doe@example.com,John Doe,Acme Corp
jane.smith@example.com,Jane Smith,Globex Inc
bob.wilson@example.com,Bob Wilson,Initech
`

// Handlers exposes recipient file upload and preview over HTTP.
type Handlers struct{}

// NewHandlers creates the upload HTTP layer.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// RegisterRoutes mounts the upload endpoints on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/upload")

	api.Post("/csv", h.handleUpload)
	api.Get("/sample-csv", h.handleSampleCSV)
}

// handleUpload parses an uploaded recipient file and returns a preview:
// full counts, sampled recipients and sampled row errors. The client
// re-submits the recipient list with the send request, so nothing is
// stored server-side.
func (h *Handlers) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("csvFile")
	if err != nil {
		return recipxErrors.New(ErrNoFile)
	}

	file, err := header.Open()
	if err != nil {
		return recipxErrors.NewWithCause(ErrParseFailed, err).
			WithDetail("filename", header.Filename)
	}
	defer file.Close()

	columns, rows, err := ParseFile(file, header.Filename)
	if err != nil {
		return err
	}

	result := Normalize(rows)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "File processed successfully",
		"data": fiber.Map{
			"totalRows":         len(rows),
			"validRecipients":   len(result.Recipients),
			"duplicatesRemoved": result.Duplicates,
			"errors":            len(result.Errors),
			"errorDetails":      result.SampleErrors(),
			"recipients":        result.SampleRecipients(),
			"columns":           columns,
		},
	})
}

// handleSampleCSV serves the canned template file.
func (h *Handlers) handleSampleCSV(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="sample-recipients.csv"`)
	return c.SendString(sampleCSV)
}
