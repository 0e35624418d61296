package api

import (
	"github.com/gofiber/fiber/v2"

	"invoicing/internal/reports"
)

func (s *Server) dashboard(c *fiber.Ctx) error {
	d, err := s.Reports.Dashboard(c.UserContext(), c.Query("period", "month"))
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (s *Server) report(c *fiber.Ctx) error {
	r, err := s.Reports.Report(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (s *Server) reportPDF(c *fiber.Ctx) error {
	r, err := s.Reports.Report(c.UserContext())
	if err != nil {
		return err
	}
	out, err := reports.RenderPDF(r, s.opts.ReportTitle)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="report.pdf"`)
	return c.Send(out)
}

func (s *Server) assets(c *fiber.Ctx) error {
	a, err := s.Reports.Assets(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(a)
}
