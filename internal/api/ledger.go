package api

import (
	"github.com/gofiber/fiber/v2"

	"invoicing/internal/documents"
	"invoicing/internal/ledger"
	"invoicing/pkg/models"
)

func (s *Server) listExpenses(c *fiber.Ctx) error {
	items, err := s.Documents.ListExpenses(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (s *Server) createExpense(c *fiber.Ctx) error {
	var in documents.ExpenseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := s.Documents.RecordExpense(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) getExpense(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	exp, err := s.Documents.GetExpense(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(exp)
}

func (s *Server) updateExpense(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in documents.ExpenseInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if err := s.Documents.UpdateExpense(c.UserContext(), id, in); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id})
}

func (s *Server) deleteExpense(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.Documents.DeleteExpense(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listTransactions(c *fiber.Ctx) error {
	items, err := s.Ledger.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (s *Server) createTransaction(c *fiber.Ctx) error {
	var in ledger.ManualInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	id, err := s.Ledger.Record(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) deleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.Ledger.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listMethods(c *fiber.Ctx) error {
	items, err := s.Ledger.Methods(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (s *Server) createMethod(c *fiber.Ctx) error {
	var m models.PaymentMethod
	if err := parseBody(c, &m); err != nil {
		return err
	}
	id, err := s.Ledger.AddMethod(c.UserContext(), m)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) updateMethod(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var m models.PaymentMethod
	if err := parseBody(c, &m); err != nil {
		return err
	}
	m.ID = id
	if err := s.Ledger.UpdateMethod(c.UserContext(), m); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id})
}

func (s *Server) deleteMethod(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := s.Ledger.DeleteMethod(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listCurrencies(c *fiber.Ctx) error {
	items, err := s.Ledger.Currencies(c.UserContext())
	if err != nil {
		return err
	}
	def, err := s.Ledger.DefaultCurrency(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"default": def, "currencies": items})
}

func (s *Server) createCurrency(c *fiber.Ctx) error {
	var cur models.Currency
	if err := parseBody(c, &cur); err != nil {
		return err
	}
	if err := s.Ledger.AddCurrency(c.UserContext(), cur); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}
