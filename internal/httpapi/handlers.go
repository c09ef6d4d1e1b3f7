package httpapi

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"brandintel/internal/apierr"
)

// writeError renders err as the fixed failure envelope, translating a
// non-*apierr.Error into CodeInternal so every response still carries the
// taxonomy's shape.
func writeError(c *fiber.Ctx, err error) error {
	apiErr, ok := apierr.As(err)
	if !ok {
		apiErr = apierr.New(apierr.CodeInternal, err.Error())
	}

	correlationID, _ := c.Locals("request_id").(string)
	return c.Status(apiErr.Code.Status()).JSON(ErrorResponse{
		Error:         string(apiErr.Code),
		Message:       apiErr.Message,
		Details:       apiErr.Details,
		CorrelationID: correlationID,
	})
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Server) brandSummaryHandler(c *fiber.Ctx) error {
	var req BrandSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apierr.New(apierr.CodeValidation, "malformed JSON body"))
	}
	if !validURL(req.BrandURL) {
		return writeError(c, apierr.New(apierr.CodeValidation, "brand_url must be an http(s) URI"))
	}

	res, err := s.orch.BrandSummary(c.Context(), req.BrandURL)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (s *Server) competitorsHandler(c *fiber.Ctx) error {
	var req CompetitorsRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apierr.New(apierr.CodeValidation, "malformed JSON body"))
	}
	if strings.TrimSpace(req.RunID) == "" {
		return writeError(c, apierr.New(apierr.CodeValidation, "run_id is required"))
	}

	res, err := s.orch.Competitors(c.Context(), req.RunID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (s *Server) competitorsAnalyzeHandler(c *fiber.Ctx) error {
	var req CompetitorsAnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apierr.New(apierr.CodeValidation, "malformed JSON body"))
	}
	if strings.TrimSpace(req.RunID) == "" {
		return writeError(c, apierr.New(apierr.CodeValidation, "run_id is required"))
	}
	if len(req.Domains) == 0 || len(req.Domains) > 10 {
		return writeError(c, apierr.New(apierr.CodeValidation, "domains must contain between 1 and 10 entries").
			WithDetails(map[string]any{"count": len(req.Domains)}))
	}

	res, err := s.orch.CompetitorsAnalyze(c.Context(), req.RunID, req.Domains)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (s *Server) kernelHandler(c *fiber.Ctx) error {
	var req KernelRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apierr.New(apierr.CodeValidation, "malformed JSON body"))
	}
	if strings.TrimSpace(req.RunID) == "" {
		return writeError(c, apierr.New(apierr.CodeValidation, "run_id is required"))
	}

	res, err := s.orch.Kernel(c.Context(), req.RunID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}
