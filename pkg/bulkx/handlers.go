package bulkx

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/Abraxas-365/bulkmailer/pkg/fsx"
	"github.com/Abraxas-365/bulkmailer/pkg/mailx"
	"github.com/Abraxas-365/bulkmailer/pkg/recipx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes the dispatch service over HTTP.
type Handlers struct {
	service *Service
	files   fsx.FileSystem
}

// NewHandlers creates the HTTP layer for the dispatch service. files is
// used to stage multipart attachments before the job picks them up.
func NewHandlers(service *Service, files fsx.FileSystem) *Handlers {
	return &Handlers{service: service, files: files}
}

// RegisterRoutes mounts the email endpoints on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/email")

	api.Post("/send-bulk", h.handleSendBulk)
	api.Post("/test-config", h.handleTestConfig)
	api.Get("/status/:jobId", h.handleStatus)
	api.Get("/history", h.handleHistory)
}

// sendBulkRequest is the wire shape of a bulk-send submission. Recipient
// rows arrive as free-form objects so callers can attach arbitrary
// personalization columns.
type sendBulkRequest struct {
	Transport   mailx.TransportConfig `json:"emailConfig"`
	Subject     string                `json:"emailSubject"`
	Body        string                `json:"emailBody"`
	Recipients  []map[string]any      `json:"recipients"`
	Personalize bool                  `json:"personalizeEmails"`
	Attachments []mailx.Attachment    `json:"attachments"`
}

func (h *Handlers) handleSendBulk(c *fiber.Ctx) error {
	var req sendBulkRequest

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		staged, err := h.parseMultipartSubmission(c, &req)
		if err != nil {
			return err
		}
		req.Attachments = append(req.Attachments, staged...)
	} else if err := c.BodyParser(&req); err != nil {
		return bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("reason", "malformed request body")
	}

	normalized := recipx.Normalize(stringifyRows(req.Recipients))
	if len(normalized.Recipients) == 0 {
		return bulkxErrors.NewWithMessage(ErrInvalidInput, "No valid recipients in request").
			WithDetail("rejectedRows", len(normalized.Errors))
	}

	job, err := h.service.Submit(Submission{
		Transport: req.Transport,
		Template: Template{
			Subject:     req.Subject,
			BodyHTML:    req.Body,
			Attachments: req.Attachments,
		},
		Recipients:  normalized.Recipients,
		Personalize: req.Personalize,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Bulk email sending started",
		"jobId":       job.ID,
		"totalEmails": job.TotalRecipients,
	})
}

type testConfigRequest struct {
	Transport   mailx.TransportConfig `json:"emailConfig"`
	Attachments []mailx.Attachment    `json:"attachments"`
}

func (h *Handlers) handleTestConfig(c *fiber.Ctx) error {
	var req testConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("reason", "malformed request body")
	}

	if err := h.service.TestTransport(c.Context(), req.Transport, req.Attachments); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Test email sent successfully! Check your inbox.",
	})
}

func (h *Handlers) handleStatus(c *fiber.Ctx) error {
	snapshot, err := h.service.Status(c.Params("jobId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"job":     snapshot,
	})
}

func (h *Handlers) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	page := h.service.History(limit, offset)
	return c.JSON(fiber.Map{
		"success": true,
		"history": page.Items,
		"total":   page.Page.Total,
	})
}

// parseMultipartSubmission reads the JSON payload field and stages every
// uploaded attachment through the file system, returning path-backed
// attachment references for the job to resolve later.
func (h *Handlers) parseMultipartSubmission(c *fiber.Ctx, req *sendBulkRequest) ([]mailx.Attachment, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("reason", "malformed multipart form")
	}

	payloads := form.Value["payload"]
	if len(payloads) == 0 {
		return nil, bulkxErrors.NewWithMessage(ErrInvalidInput, "Missing payload field")
	}
	if err := json.Unmarshal([]byte(payloads[0]), req); err != nil {
		return nil, bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("reason", "malformed payload field")
	}

	var staged []mailx.Attachment
	for _, header := range form.File["attachments"] {
		att, err := h.stageAttachment(c, header)
		if err != nil {
			return nil, err
		}
		staged = append(staged, att)
	}
	return staged, nil
}

func (h *Handlers) stageAttachment(c *fiber.Ctx, header *multipart.FileHeader) (mailx.Attachment, error) {
	file, err := header.Open()
	if err != nil {
		return mailx.Attachment{}, bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("filename", header.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return mailx.Attachment{}, bulkxErrors.NewWithCause(ErrInvalidInput, err).
			WithDetail("filename", header.Filename)
	}

	// Unique prefix keeps concurrent uploads of the same filename apart.
	path := h.files.Join("attachments", uuid.NewString()+"-"+header.Filename)
	if err := h.files.WriteFile(c.Context(), path, data); err != nil {
		return mailx.Attachment{}, err
	}

	return mailx.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Path:        path,
	}, nil
}

// stringifyRows flattens free-form JSON recipient rows into the string
// maps normalization operates on. Nested values are dropped; scalars are
// rendered with their default formatting.
func stringifyRows(rows []map[string]any) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		flat := make(map[string]string, len(row))
		for k, v := range row {
			switch value := v.(type) {
			case nil:
			case string:
				flat[k] = value
			case map[string]any, []any:
			default:
				flat[k] = fmt.Sprint(value)
			}
		}
		out = append(out, flat)
	}
	return out
}
