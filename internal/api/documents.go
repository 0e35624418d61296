package api

import (
	"github.com/gofiber/fiber/v2"

	"invoicing/internal/documents"
	"invoicing/internal/settlement"
	"invoicing/pkg/models"
)

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return int64(id), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	return nil
}

func (s *Server) listDocuments(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := s.Documents.List(c.UserContext(), kind, c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

func (s *Server) createDocument(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in documents.Input
		if err := parseBody(c, &in); err != nil {
			return err
		}
		id, number, err := s.Documents.Create(c.UserContext(), kind, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "number": number})
	}
}

// documentView is a document with its settlement state.
type documentView struct {
	*models.Document
	Balance *settlement.Balance `json:"balance"`
}

func (s *Server) getDocument(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		doc, err := s.Documents.Get(c.UserContext(), kind, id)
		if err != nil {
			return err
		}
		bal, err := s.Settlement.Balance(c.UserContext(), kind, id)
		if err != nil {
			return err
		}
		return c.JSON(documentView{Document: doc, Balance: bal})
	}
}

func (s *Server) updateDocument(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var in documents.Input
		if err := parseBody(c, &in); err != nil {
			return err
		}
		if err := s.Documents.Update(c.UserContext(), kind, id, in); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id})
	}
}

func (s *Server) deleteDocument(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := s.Documents.Delete(c.UserContext(), kind, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (s *Server) acceptPayment(kind models.DocumentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var req settlement.Request
		if err := parseBody(c, &req); err != nil {
			return err
		}
		req.Kind = kind
		req.DocumentID = id

		receipt, err := s.Settlement.AcceptPayment(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(receipt)
	}
}
