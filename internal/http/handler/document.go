package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"complianceapi/internal/service"
)

// ReviewerHeader carries the reviewer identity for approve/reject calls.
// Authentication happens upstream; the engine only records the id.
const ReviewerHeader = "X-Reviewer-ID"

// ActorHeader identifies who performed a submission; falls back to owner_id.
const ActorHeader = "X-Actor-ID"

// HealthCheck reports DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is the bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// SubmitDocument accepts a multipart submission: owner_id, document_type_id,
// optional issue_date/expiry_date (YYYY-MM-DD), optional extensions (JSON
// object), and the file itself.
func SubmitDocument(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		in := service.SubmitInput{
			OwnerID:        c.FormValue("owner_id"),
			DocumentTypeID: c.FormValue("document_type_id"),
			ActorID:        c.Get(ActorHeader),
			Reader:         f,
			Filename:       fh.Filename,
			ContentType:    fh.Header.Get("Content-Type"),
			Size:           fh.Size,
		}
		if in.ContentType == "" {
			in.ContentType = "application/octet-stream"
		}
		if in.ActorID == "" {
			in.ActorID = in.OwnerID
		}

		if in.IssueDate, err = parseDate(c.FormValue("issue_date")); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "issue_date must be YYYY-MM-DD")
		}
		if in.ExpiryDate, err = parseDate(c.FormValue("expiry_date")); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "expiry_date must be YYYY-MM-DD")
		}
		if raw := c.FormValue("extensions"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in.Extensions); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EXTENSIONS", "extensions must be a JSON object of strings")
			}
		}

		rec, err := svc.Submit(c.UserContext(), in)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// GetDocument returns a record by id.
func GetDocument(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(rec)
	}
}

// GetHistory returns every version of the record's (owner, type) document
// and the full audit trail.
func GetHistory(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.History(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// DownloadDocument returns a presigned URL for the record's file.
func DownloadDocument(svc service.SubmissionService, urlExpiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.DownloadURL(c.UserContext(), id, urlExpiry)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"url": u, "expires_in_seconds": int(urlExpiry.Seconds())})
	}
}

type reviewRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// ApproveDocument verifies a pending record. Reviewer identity comes from
// the X-Reviewer-ID header.
func ApproveDocument(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		reviewer := c.Get(ReviewerHeader)
		if reviewer == "" {
			return writeError(c, fiber.StatusBadRequest, "REVIEWER_REQUIRED", "X-Reviewer-ID header is required")
		}
		var req reviewRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON")
			}
		}
		rec, err := svc.Approve(c.UserContext(), id, reviewer, req.Notes)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(rec)
	}
}

// RejectDocument rejects a pending record; a reason is mandatory.
func RejectDocument(svc service.ReviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		reviewer := c.Get(ReviewerHeader)
		if reviewer == "" {
			return writeError(c, fiber.StatusBadRequest, "REVIEWER_REQUIRED", "X-Reviewer-ID header is required")
		}
		var req reviewRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON")
			}
		}
		rec, err := svc.Reject(c.UserContext(), id, reviewer, req.Reason)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(rec)
	}
}

// OwnerSummary returns the compliance summary for one owner.
func OwnerSummary(svc service.ComplianceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summarize(c.UserContext(), c.Params("ownerId"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(sum)
	}
}

// FleetSummary returns summaries for a comma-separated owner list.
func FleetSummary(svc service.ComplianceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("owners")
		if raw == "" {
			return writeError(c, fiber.StatusBadRequest, "OWNERS_REQUIRED", "owners query parameter is required")
		}
		var owners []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				owners = append(owners, o)
			}
		}
		if len(owners) == 0 {
			return writeError(c, fiber.StatusBadRequest, "OWNERS_REQUIRED", "owners query parameter is required")
		}
		sums, err := svc.SummarizeFleet(c.UserContext(), owners)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"data": sums, "total": len(sums)})
	}
}
