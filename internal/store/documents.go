package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// docTable maps a document kind to its table and column names.
type docTable struct {
	head, items, fk         string
	number, date            string
	partyID, party, partyTx string
}

var docTables = map[models.DocumentKind]docTable{
	models.KindInvoice: {
		head: "invoices", items: "invoice_items", fk: "invoice_id",
		number: "invoice_number", date: "invoice_date",
		partyID: "customer_id", party: "customer_name", partyTx: "customer_tax_number",
	},
	models.KindPurchase: {
		head: "purchase_invoices", items: "purchase_invoice_items", fk: "purchase_invoice_id",
		number: "purchase_number", date: "purchase_date",
		partyID: "vendor_id", party: "vendor_name", partyTx: "vendor_tax_number",
	},
}

func tableFor(kind models.DocumentKind) (docTable, error) {
	t, ok := docTables[kind]
	if !ok {
		return docTable{}, fmt.Errorf("document kind %q has no line items table", kind)
	}
	return t, nil
}

func (t docTable) headColumns() string {
	return fmt.Sprintf(`id, %s, %s, %s, %s, %s, registration_name, phone_number, address,
		website, country, address_2, subtotal, vat_total, total, currency_code`,
		t.number, t.date, t.partyID, t.party, t.partyTx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHead(kind models.DocumentKind, row rowScanner) (*models.Document, error) {
	var (
		doc                                               models.Document
		partyID                                           sql.NullInt64
		party, tax, reg, phone, addr, web, country, addr2 sql.NullString
		currency                                          sql.NullString
		subtotal, vat, total                              float64
	)
	err := row.Scan(&doc.ID, &doc.Number, &doc.Date, &partyID, &party, &tax, &reg, &phone, &addr,
		&web, &country, &addr2, &subtotal, &vat, &total, &currency)
	if err != nil {
		return nil, err
	}
	doc.Kind = kind
	doc.Party = models.Party{
		ID:               intPtr(partyID),
		Name:             party.String,
		TaxNumber:        tax.String,
		RegistrationName: reg.String,
		Phone:            phone.String,
		Address:          addr.String,
		Address2:         addr2.String,
		Website:          web.String,
		Country:          country.String,
	}
	doc.CurrencyCode = currency.String
	doc.Subtotal = money.FromFloat(subtotal)
	doc.VATTotal = money.FromFloat(vat)
	doc.Total = money.FromFloat(total)
	return &doc, nil
}

// InsertDocument writes the head of doc with its totals and returns the new id.
func (c conn) InsertDocument(ctx context.Context, doc *models.Document) (int64, error) {
	t, err := tableFor(doc.Kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (
			%s, %s, %s, %s, %s, registration_name, phone_number, address,
			website, country, address_2, subtotal, vat_total, total, currency_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.head, t.number, t.date, t.partyID, t.party, t.partyTx)

	p := doc.Party
	id, err := c.insert(ctx, query,
		doc.Number, doc.Date, nullInt(p.ID), nullString(p.Name), nullString(p.TaxNumber),
		nullString(p.RegistrationName), nullString(p.Phone), nullString(p.Address),
		nullString(p.Website), nullString(p.Country), nullString(p.Address2),
		money.Float(doc.Subtotal), money.Float(doc.VATTotal), money.Float(doc.Total),
		nullString(doc.CurrencyCode))
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.head, err)
	}
	return id, nil
}

// UpdateDocument rewrites the head fields and totals. The number is left unchanged.
func (c conn) UpdateDocument(ctx context.Context, doc *models.Document) error {
	t, err := tableFor(doc.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET
			%s = ?, %s = ?, %s = ?, %s = ?, registration_name = ?, phone_number = ?,
			address = ?, website = ?, country = ?, address_2 = ?,
			subtotal = ?, vat_total = ?, total = ?, currency_code = ?
		WHERE id = ?`,
		t.head, t.date, t.partyID, t.party, t.partyTx)

	p := doc.Party
	res, err := c.exec(ctx, query,
		doc.Date, nullInt(p.ID), nullString(p.Name), nullString(p.TaxNumber),
		nullString(p.RegistrationName), nullString(p.Phone), nullString(p.Address),
		nullString(p.Website), nullString(p.Country), nullString(p.Address2),
		money.Float(doc.Subtotal), money.Float(doc.VATTotal), money.Float(doc.Total),
		nullString(doc.CurrencyCode), doc.ID)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.head, err)
	}
	return requireAffected(res)
}

// ReplaceLines deletes every line of the document and inserts lines in order.
func (c conn) ReplaceLines(ctx context.Context, kind models.DocumentKind, docID int64, lines []models.LineItem) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.items, t.fk), docID); err != nil {
		return fmt.Errorf("delete %s: %w", t.items, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (
			%s, item_id, item_name, quantity, unit, price, vat_amount, line_total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, t.items, t.fk)
	for _, line := range lines {
		_, err := c.exec(ctx, query, docID, nullInt(line.ItemID), line.Name,
			money.Float(line.Quantity), line.Unit, money.Float(line.Price),
			money.Float(line.VATPercent), money.Float(line.LineTotal))
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.items, err)
		}
	}
	return nil
}

// DeleteDocument deletes lines, then the head.
func (c conn) DeleteDocument(ctx context.Context, kind models.DocumentKind, id int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.items, t.fk), id); err != nil {
		return fmt.Errorf("delete %s: %w", t.items, err)
	}
	res, err := c.exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.head), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.head, err)
	}
	return requireAffected(res)
}

// GetDocument loads the head and lines of one document.
func (c conn) GetDocument(ctx context.Context, kind models.DocumentKind, id int64) (*models.Document, error) {
	doc, err := c.documentHead(ctx, kind, id, false)
	if err != nil {
		return nil, err
	}
	doc.Lines, err = c.documentLines(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LockDocument loads the head and holds a row lock until the transaction ends.
func (c conn) LockDocument(ctx context.Context, kind models.DocumentKind, id int64) (*models.Document, error) {
	return c.documentHead(ctx, kind, id, true)
}

func (c conn) documentHead(ctx context.Context, kind models.DocumentKind, id int64, lock bool) (*models.Document, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.headColumns(), t.head)
	if lock {
		query += c.forUpdate()
	}
	doc, err := scanHead(kind, c.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.head, err)
	}
	return doc, nil
}

func (c conn) documentLines(ctx context.Context, kind models.DocumentKind, id int64) ([]models.LineItem, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, fmt.Sprintf(`SELECT id, item_id, item_name, quantity, unit, price, vat_amount, line_total
		FROM %s WHERE %s = ? ORDER BY id ASC`, t.items, t.fk), id)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.items, err)
	}
	defer rows.Close()

	lines := []models.LineItem{}
	for rows.Next() {
		var (
			line                     models.LineItem
			itemID                   sql.NullInt64
			unit                     sql.NullString
			qty, price, vat, lineTot float64
		)
		if err := rows.Scan(&line.ID, &itemID, &line.Name, &qty, &unit, &price, &vat, &lineTot); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.items, err)
		}
		line.ItemID = intPtr(itemID)
		line.Unit = unit.String
		line.Quantity = money.FromFloat(qty)
		line.Price = money.FromFloat(price)
		line.VATPercent = money.FromFloat(vat)
		line.LineTotal = money.FromFloat(lineTot)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListDocuments returns heads newest first. A non-empty search matches number, date or party
// name case-insensitively.
func (c conn) ListDocuments(ctx context.Context, kind models.DocumentKind, search string) ([]models.Document, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", t.headColumns(), t.head)
	var args []any
	if search != "" {
		query += fmt.Sprintf(" WHERE LOWER(%s) LIKE ? OR LOWER(%s) LIKE ? OR LOWER(COALESCE(%s, '')) LIKE ?",
			t.number, t.date, t.party)
		p := likePattern(search)
		args = append(args, p, p, p)
	}
	query += " ORDER BY id DESC"

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.head, err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanHead(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.head, err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DocumentNumberExists reports whether number is used by a document of kind.
func (c conn) DocumentNumberExists(ctx context.Context, kind models.DocumentKind, number string) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var one int
	err = c.queryRow(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? LIMIT 1", t.head, t.number), number).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s: %w", t.number, err)
	}
	return true, nil
}

// ItemMovements returns every line of kind with its document date, oldest first.
func (c conn) ItemMovements(ctx context.Context, kind models.DocumentKind) ([]models.ItemMovement, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, fmt.Sprintf(`SELECT l.item_id, l.item_name, l.unit, l.quantity, l.price, d.%s
		FROM %s l JOIN %s d ON d.id = l.%s
		ORDER BY d.%s ASC, l.id ASC`, t.date, t.items, t.head, t.fk, t.date))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.items, err)
	}
	defer rows.Close()

	var out []models.ItemMovement
	for rows.Next() {
		var (
			m          models.ItemMovement
			itemID     sql.NullInt64
			name, unit sql.NullString
			qty, price sql.NullFloat64
		)
		if err := rows.Scan(&itemID, &name, &unit, &qty, &price, &m.Date); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.items, err)
		}
		m.ItemID = intPtr(itemID)
		m.Name = name.String
		m.Unit = unit.String
		m.Quantity = nullFloat(qty)
		m.Price = nullFloat(price)
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullFloat(f sql.NullFloat64) decimal.Decimal {
	if !f.Valid {
		return decimal.Zero
	}
	return money.FromFloat(f.Float64)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
