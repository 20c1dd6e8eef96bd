package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"complianceapi/internal/service"
)

// RegisterRoutes attaches the engine's query surface to the Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, subSvc service.SubmissionService, revSvc service.ReviewService, compSvc service.ComplianceService, downloadURLExpiry time.Duration) {
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.Send(openAPISpec)
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/documents", SubmitDocument(subSvc))
	app.Get("/documents/:id", GetDocument(subSvc))
	app.Get("/documents/:id/history", GetHistory(subSvc))
	app.Get("/documents/:id/download", DownloadDocument(subSvc, downloadURLExpiry))
	app.Post("/documents/:id/approve", ApproveDocument(revSvc))
	app.Post("/documents/:id/reject", RejectDocument(revSvc))

	app.Get("/owners/:ownerId/summary", OwnerSummary(compSvc))
	app.Get("/compliance/fleet", FleetSummary(compSvc))
}
