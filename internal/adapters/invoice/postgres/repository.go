package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"3tcapital/facturas_sri/internal/core/invoice"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	accessKeyConstraint = "uq_invoices_clave_acceso"
	topProvidersLimit   = 5
)

// Repository implements invoice.Repository on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a PostgreSQL invoice repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

var _ invoice.Repository = (*Repository)(nil)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", invoice.ErrStorageFailure, op, err)
}

// FindByAccessKey looks up a document by its SRI access key across all users.
func (r *Repository) FindByAccessKey(ctx context.Context, key string) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM invoices WHERE clave_acceso = $1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("find by access key", err)
	}
	return id, true, nil
}

// FindMatch looks up a document of userID equal to doc on every field of policy.
func (r *Repository) FindMatch(ctx context.Context, userID string, policy invoice.MatchPolicy, doc *invoice.Document) (int64, bool, error) {
	query, args := matchQuery(userID, policy, doc)

	var id int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("find match", err)
	}
	return id, true, nil
}

// matchQuery builds the duplicate lookup for the fields named by policy.
func matchQuery(userID string, policy invoice.MatchPolicy, doc *invoice.Document) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	for _, f := range policy {
		switch f {
		case invoice.MatchTaxID:
			add("ruc_proveedor", doc.Provider.TaxID)
		case invoice.MatchNumber:
			add("numero", doc.Number)
		case invoice.MatchDate:
			add("fecha_emision", doc.IssueDate)
		case invoice.MatchTotal:
			add("total", doc.Totals.GrandTotal)
		}
	}

	return "SELECT id FROM invoices WHERE " + strings.Join(conditions, " AND ") + " ORDER BY id LIMIT 1", args
}

// Create inserts doc and all of its children in one transaction. Any failure,
// including cancellation of ctx, rolls the whole document back.
func (r *Repository) Create(ctx context.Context, doc *invoice.Document) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	id, err := insertInvoice(ctx, tx, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == accessKeyConstraint {
			// The transaction is aborted; the winner is read outside of it.
			_ = tx.Rollback(ctx)
			return 0, r.duplicateOf(ctx, doc.AccessKey, err)
		}
		return 0, storageErr("insert invoice", err)
	}

	if err := insertChildren(ctx, tx, id, doc); err != nil {
		return 0, storageErr("insert invoice children", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("commit invoice", err)
	}

	r.log.Debug("Invoice stored",
		"invoice_id", id,
		"source", doc.Source,
		"items", len(doc.Items),
	)
	return id, nil
}

func (r *Repository) duplicateOf(ctx context.Context, accessKey string, cause error) error {
	existing, found, err := r.FindByAccessKey(ctx, accessKey)
	if err != nil {
		return err
	}
	if !found {
		return storageErr("insert invoice", cause)
	}
	r.log.Info("Concurrent insert lost on access key",
		"access_key", accessKey,
		"existing_id", existing,
	)
	return &invoice.DuplicateError{ExistingID: existing}
}

func insertInvoice(ctx context.Context, tx pgx.Tx, doc *invoice.Document) (int64, error) {
	query := `
		INSERT INTO invoices (
			user_id, origen, tipo_documento, clave_acceso, numero, estab, pto_emi, secuencial,
			ruc_proveedor, nombre_proveedor, nombre_comercial, dir_matriz, direccion_proveedor,
			telefono_proveedor, ciudad_proveedor, obligado_contabilidad, contribuyente_especial, regimen,
			cliente_tipo_id, cliente_identificacion, cliente_nombre, direccion_cliente,
			fecha_emision, base_iva, base_cero, iva, retencion_iva, retencion_renta,
			total_descuento, propina, total, moneda,
			estado, confianza, categoria, ambiente,
			pago_efectivo, pago_tarjeta, pago_electronico, pago_otros,
			sri_estado, sri_numero_autorizacion, sri_fecha_autorizacion, sri_ambiente,
			texto_original, archivo_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34,
			$35, $36, $37, $38, $39, $40, $41, $42, $43, $44, $45, $46
		) RETURNING id
	`

	var id int64
	err := tx.QueryRow(ctx, query,
		doc.UserID,
		string(doc.Source),
		doc.Type,
		nullIfEmpty(doc.AccessKey),
		doc.Number,
		doc.Estab,
		doc.EmissionPt,
		doc.Sequence,
		doc.Provider.TaxID,
		doc.Provider.Name,
		doc.Provider.TradeName,
		doc.Provider.HeadOffice,
		doc.Provider.Address,
		doc.Provider.Phone,
		doc.Provider.City,
		doc.Provider.AccountingObligated,
		doc.Provider.SpecialTaxpayer,
		doc.Provider.Regime,
		doc.Buyer.IDType,
		doc.Buyer.Identification,
		doc.Buyer.Name,
		doc.Buyer.Address,
		doc.IssueDate,
		doc.Totals.SubtotalTaxed,
		doc.Totals.SubtotalZeroRated,
		doc.Totals.Tax,
		doc.Totals.WithholdingTax,
		doc.Totals.WithholdingIncome,
		doc.Totals.Discount,
		doc.Totals.Tip,
		doc.Totals.GrandTotal,
		doc.Currency,
		string(doc.Status),
		doc.Confidence,
		doc.Category,
		doc.Environment,
		doc.PaymentFlags.Cash,
		doc.PaymentFlags.Card,
		doc.PaymentFlags.Electronic,
		doc.PaymentFlags.Other,
		doc.Auth.Status,
		doc.Auth.Number,
		doc.Auth.Date,
		doc.Auth.Environment,
		doc.RawText,
		doc.ArchiveKey,
	).Scan(&id)
	return id, err
}

func insertChildren(ctx context.Context, tx pgx.Tx, invoiceID int64, doc *invoice.Document) error {
	itemQuery := `
		INSERT INTO invoice_details (
			invoice_id, codigo_principal, codigo_auxiliar, cantidad, descripcion,
			precio_unitario, descuento, subsidio, precio_sin_subsidio, precio_total_sin_impuesto,
			es_gasto_personal, es_gasto_actividad, tipo_gasto_personal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for i, item := range doc.Items {
		var itemID int64
		err := tx.QueryRow(ctx, itemQuery,
			invoiceID,
			item.Code,
			item.AuxCode,
			item.Quantity,
			item.Description,
			item.UnitPrice,
			item.Discount,
			item.Subsidy,
			item.PriceWithoutSubsidy,
			item.Total,
			item.Classification.Personal,
			item.Classification.Activity,
			nullIfEmpty(item.Classification.PersonalKind),
		).Scan(&itemID)
		if err != nil {
			return fmt.Errorf("insert detail %d: %w", i, err)
		}

		for _, tax := range item.Taxes {
			batch.Queue(`
				INSERT INTO invoice_impuestos (
					invoice_id, detalle_id, codigo, codigo_porcentaje, tarifa, base_imponible, valor
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				invoiceID, itemID, tax.Code, tax.RateCode, tax.Rate, tax.Base, tax.Amount,
			)
		}
	}

	for _, p := range doc.Payments {
		batch.Queue(`
			INSERT INTO invoice_pagos (invoice_id, forma_pago, total, plazo, unidad_tiempo)
			VALUES ($1, $2, $3, $4, $5)`,
			invoiceID, p.Method, p.Amount, nullIfEmpty(p.Term), nullIfEmpty(p.TimeUnit),
		)
	}

	for _, f := range doc.Additional {
		batch.Queue(`
			INSERT INTO invoice_info_adicional (invoice_id, nombre, valor)
			VALUES ($1, $2, $3)`,
			invoiceID, f.Name, f.Value,
		)
	}

	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

// List returns the user's invoices with the classified expense sums per invoice.
func (r *Repository) List(ctx context.Context, userID string) ([]invoice.ListEntry, error) {
	query := `
		SELECT
			i.id,
			i.numero,
			COALESCE(i.nombre_proveedor, ''),
			COALESCE(i.ruc_proveedor, ''),
			i.fecha_emision,
			i.total,
			i.estado,
			i.origen,
			COALESCE(i.categoria, ''),
			COALESCE(SUM(CASE WHEN d.es_gasto_personal THEN d.precio_total_sin_impuesto ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN d.es_gasto_actividad THEN d.precio_total_sin_impuesto ELSE 0 END), 0),
			i.creado_en
		FROM invoices i
		LEFT JOIN invoice_details d ON d.invoice_id = i.id
		WHERE i.user_id = $1
		GROUP BY i.id
		ORDER BY i.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, storageErr("list invoices", err)
	}
	defer rows.Close()

	entries := make([]invoice.ListEntry, 0)
	for rows.Next() {
		var (
			e              invoice.ListEntry
			status, source string
		)
		if err := rows.Scan(
			&e.ID,
			&e.Number,
			&e.ProviderName,
			&e.ProviderTaxID,
			&e.IssueDate,
			&e.Total,
			&status,
			&source,
			&e.Category,
			&e.PersonalTotal,
			&e.ActivityTotal,
			&e.CreatedAt,
		); err != nil {
			return nil, storageErr("scan invoice list", err)
		}
		e.Status = invoice.Status(status)
		e.Source = invoice.SourceKind(source)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate invoice list", err)
	}
	return entries, nil
}

// Get loads a full invoice owned by userID.
func (r *Repository) Get(ctx context.Context, userID string, id int64) (*invoice.Document, error) {
	query := `
		SELECT
			id, user_id, origen, tipo_documento, COALESCE(clave_acceso, ''), numero,
			COALESCE(estab, ''), COALESCE(pto_emi, ''), COALESCE(secuencial, ''),
			COALESCE(ruc_proveedor, ''), COALESCE(nombre_proveedor, ''), COALESCE(nombre_comercial, ''),
			COALESCE(dir_matriz, ''), COALESCE(direccion_proveedor, ''), COALESCE(telefono_proveedor, ''),
			COALESCE(ciudad_proveedor, ''), COALESCE(obligado_contabilidad, ''),
			COALESCE(contribuyente_especial, ''), COALESCE(regimen, ''),
			COALESCE(cliente_tipo_id, ''), COALESCE(cliente_identificacion, ''),
			COALESCE(cliente_nombre, ''), COALESCE(direccion_cliente, ''),
			fecha_emision, base_iva, base_cero, iva, retencion_iva, retencion_renta,
			total_descuento, propina, total, moneda,
			estado, confianza, COALESCE(categoria, ''), COALESCE(ambiente, ''),
			pago_efectivo, pago_tarjeta, pago_electronico, pago_otros,
			COALESCE(sri_estado, ''), COALESCE(sri_numero_autorizacion, ''),
			sri_fecha_autorizacion, COALESCE(sri_ambiente, ''),
			COALESCE(texto_original, ''), COALESCE(archivo_key, ''), creado_en
		FROM invoices
		WHERE id = $1 AND user_id = $2
	`

	var (
		doc            invoice.Document
		source, status string
		authDate       *time.Time
	)
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&doc.ID, &doc.UserID, &source, &doc.Type, &doc.AccessKey, &doc.Number,
		&doc.Estab, &doc.EmissionPt, &doc.Sequence,
		&doc.Provider.TaxID, &doc.Provider.Name, &doc.Provider.TradeName,
		&doc.Provider.HeadOffice, &doc.Provider.Address, &doc.Provider.Phone,
		&doc.Provider.City, &doc.Provider.AccountingObligated,
		&doc.Provider.SpecialTaxpayer, &doc.Provider.Regime,
		&doc.Buyer.IDType, &doc.Buyer.Identification,
		&doc.Buyer.Name, &doc.Buyer.Address,
		&doc.IssueDate, &doc.Totals.SubtotalTaxed, &doc.Totals.SubtotalZeroRated, &doc.Totals.Tax,
		&doc.Totals.WithholdingTax, &doc.Totals.WithholdingIncome,
		&doc.Totals.Discount, &doc.Totals.Tip, &doc.Totals.GrandTotal, &doc.Currency,
		&status, &doc.Confidence, &doc.Category, &doc.Environment,
		&doc.PaymentFlags.Cash, &doc.PaymentFlags.Card, &doc.PaymentFlags.Electronic, &doc.PaymentFlags.Other,
		&doc.Auth.Status, &doc.Auth.Number,
		&authDate, &doc.Auth.Environment,
		&doc.RawText, &doc.ArchiveKey, &doc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", id, invoice.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get invoice", err)
	}
	doc.Source = invoice.SourceKind(source)
	doc.Status = invoice.Status(status)
	doc.Auth.Date = authDate

	if err := r.loadChildren(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) loadChildren(ctx context.Context, doc *invoice.Document) error {
	items, err := r.loadItems(ctx, doc.ID)
	if err != nil {
		return err
	}

	index := make(map[int64]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}

	// Taxes are attached to their line item; orphan rows go to the first item.
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(detalle_id, 0), codigo, codigo_porcentaje, tarifa, base_imponible, valor
		FROM invoice_impuestos
		WHERE invoice_id = $1
		ORDER BY id`, doc.ID)
	if err != nil {
		return storageErr("query taxes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemID int64
			tax    invoice.TaxEntry
		)
		if err := rows.Scan(&itemID, &tax.Code, &tax.RateCode, &tax.Rate, &tax.Base, &tax.Amount); err != nil {
			return storageErr("scan tax", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Taxes = append(items[i].Taxes, tax)
		} else if len(items) > 0 {
			items[0].Taxes = append(items[0].Taxes, tax)
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("iterate taxes", err)
	}
	doc.Items = items

	payments, err := r.loadPayments(ctx, doc.ID)
	if err != nil {
		return err
	}
	doc.Payments = payments

	additional, err := r.loadAdditional(ctx, doc.ID)
	if err != nil {
		return err
	}
	doc.Additional = additional
	return nil
}

func (r *Repository) loadItems(ctx context.Context, invoiceID int64) ([]invoice.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			id, COALESCE(codigo_principal, ''), COALESCE(codigo_auxiliar, ''), cantidad, descripcion,
			precio_unitario, descuento, subsidio, precio_sin_subsidio, precio_total_sin_impuesto,
			es_gasto_personal, es_gasto_actividad, COALESCE(tipo_gasto_personal, '')
		FROM invoice_details
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, storageErr("query details", err)
	}
	defer rows.Close()

	items := make([]invoice.LineItem, 0)
	for rows.Next() {
		var item invoice.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.Code,
			&item.AuxCode,
			&item.Quantity,
			&item.Description,
			&item.UnitPrice,
			&item.Discount,
			&item.Subsidy,
			&item.PriceWithoutSubsidy,
			&item.Total,
			&item.Classification.Personal,
			&item.Classification.Activity,
			&item.Classification.PersonalKind,
		); err != nil {
			return nil, storageErr("scan detail", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate details", err)
	}
	return items, nil
}

func (r *Repository) loadPayments(ctx context.Context, invoiceID int64) ([]invoice.PaymentEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT forma_pago, total, COALESCE(plazo, ''), COALESCE(unidad_tiempo, '')
		FROM invoice_pagos
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, storageErr("query payments", err)
	}
	defer rows.Close()

	payments := make([]invoice.PaymentEntry, 0)
	for rows.Next() {
		var p invoice.PaymentEntry
		if err := rows.Scan(&p.Method, &p.Amount, &p.Term, &p.TimeUnit); err != nil {
			return nil, storageErr("scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate payments", err)
	}
	return payments, nil
}

func (r *Repository) loadAdditional(ctx context.Context, invoiceID int64) ([]invoice.AdditionalField, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT nombre, COALESCE(valor, '')
		FROM invoice_info_adicional
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, storageErr("query additional info", err)
	}
	defer rows.Close()

	fields := make([]invoice.AdditionalField, 0)
	for rows.Next() {
		var f invoice.AdditionalField
		if err := rows.Scan(&f.Name, &f.Value); err != nil {
			return nil, storageErr("scan additional info", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate additional info", err)
	}
	return fields, nil
}

// Classify updates one line item if it belongs to an invoice of userID.
func (r *Repository) Classify(ctx context.Context, userID string, itemID int64, c invoice.Classification) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoice_details d
		SET es_gasto_personal = $1,
		    es_gasto_actividad = $2,
		    tipo_gasto_personal = $3
		FROM invoices i
		WHERE d.invoice_id = i.id AND d.id = $4 AND i.user_id = $5`,
		c.Personal,
		c.Activity,
		nullIfEmpty(c.PersonalKind),
		itemID,
		userID,
	)
	if err != nil {
		return storageErr("classify detail", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("detail %d: %w", itemID, invoice.ErrNotFound)
	}
	return nil
}

// MonthlySummaries aggregates the user's invoices per month of year. Months
// without invoices are omitted.
func (r *Repository) MonthlySummaries(ctx context.Context, userID string, year int) ([]invoice.MonthlySummary, error) {
	query := `
		SELECT
			DATE_TRUNC('month', i.fecha_emision)::date AS mes,
			COUNT(*),
			COALESCE(SUM(i.base_iva), 0),
			COALESCE(SUM(i.base_cero), 0),
			COALESCE(SUM(i.iva), 0),
			COALESCE(SUM(i.total), 0),
			COALESCE(SUM(c.personal), 0),
			COALESCE(SUM(c.actividad), 0)
		FROM invoices i
		LEFT JOIN (
			SELECT
				invoice_id,
				SUM(CASE WHEN es_gasto_personal THEN precio_total_sin_impuesto ELSE 0 END) AS personal,
				SUM(CASE WHEN es_gasto_actividad THEN precio_total_sin_impuesto ELSE 0 END) AS actividad
			FROM invoice_details
			GROUP BY invoice_id
		) c ON c.invoice_id = i.id
		WHERE i.user_id = $1 AND EXTRACT(YEAR FROM i.fecha_emision) = $2
		GROUP BY mes
		ORDER BY mes
	`

	rows, err := r.pool.Query(ctx, query, userID, year)
	if err != nil {
		return nil, storageErr("monthly summary", err)
	}
	defer rows.Close()

	summaries := make([]invoice.MonthlySummary, 0, 12)
	for rows.Next() {
		var s invoice.MonthlySummary
		if err := rows.Scan(
			&s.Month,
			&s.Count,
			&s.SubtotalTaxed,
			&s.SubtotalZeroRated,
			&s.Tax,
			&s.Total,
			&s.PersonalTotal,
			&s.ActivityTotal,
		); err != nil {
			return nil, storageErr("scan monthly summary", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate monthly summary", err)
	}
	return summaries, nil
}

// Dashboard builds the overview of userID: global totals, breakdowns by
// category and status, and the providers with the highest spend.
func (r *Repository) Dashboard(ctx context.Context, userID string) (*invoice.Dashboard, error) {
	var d invoice.Dashboard
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(iva), 0),
			COUNT(*) FILTER (WHERE estado IN ($2, $3, $4))
		FROM invoices
		WHERE user_id = $1`,
		userID,
		string(invoice.StatusReview),
		string(invoice.StatusPending),
		string(invoice.StatusManual),
	).Scan(&d.Count, &d.Total, &d.Tax, &d.NeedsReview)
	if err != nil {
		return nil, storageErr("dashboard totals", err)
	}

	d.ByCategory, err = r.buckets(ctx, `
		SELECT COALESCE(NULLIF(categoria, ''), 'SIN CLASIFICAR') AS label, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE user_id = $1
		GROUP BY label
		ORDER BY 3 DESC, label`, userID)
	if err != nil {
		return nil, err
	}

	d.ByStatus, err = r.buckets(ctx, `
		SELECT estado, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE user_id = $1
		GROUP BY estado
		ORDER BY 2 DESC, estado`, userID)
	if err != nil {
		return nil, err
	}

	d.TopProviders, err = r.buckets(ctx, `
		SELECT COALESCE(NULLIF(MAX(nombre_proveedor), ''), ruc_proveedor) AS label, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE user_id = $1 AND COALESCE(ruc_proveedor, '') <> ''
		GROUP BY ruc_proveedor
		ORDER BY 3 DESC, label
		LIMIT $2`, userID, topProvidersLimit)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *Repository) buckets(ctx context.Context, query string, args ...any) ([]invoice.Bucket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("dashboard breakdown", err)
	}
	defer rows.Close()

	buckets := make([]invoice.Bucket, 0)
	for rows.Next() {
		var b invoice.Bucket
		if err := rows.Scan(&b.Label, &b.Count, &b.Total); err != nil {
			return nil, storageErr("scan dashboard breakdown", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate dashboard breakdown", err)
	}
	return buckets, nil
}

// nullIfEmpty stores absent optional values as NULL. The access key relies on
// it: the unique index ignores NULL keys.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
