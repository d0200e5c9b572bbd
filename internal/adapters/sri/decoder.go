// Package sri decodes electronic invoices authorized by Ecuador's Servicio de
// Rentas Internas. Decoding is two-staged: the authorization envelope is read
// first and the voucher it carries as text is parsed separately.
package sri

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/normalize"
)

const taxCodeIVA = "2"

// IVA rate codes that do not generate tax: 0%, not subject and exempt.
var zeroRatedCodes = map[string]bool{"0": true, "6": true, "7": true}

// Decoder turns SRI XML into invoice documents.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses an authorization envelope, or a bare <factura>, into a
// document with source XML. Structural problems return
// invoice.ErrInvalidDocument; field level problems fall back to zero values.
func (d *Decoder) Decode(data []byte) (*invoice.Document, error) {
	env, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}
	f, err := parseVoucher(env)
	if err != nil {
		return nil, err
	}
	doc := mapVoucher(f)
	doc.RawText = string(env.Voucher)
	doc.Auth = invoice.Authorization{
		Status:      env.Status,
		Number:      env.Number,
		Date:        parseTimestamp(env.Date),
		Environment: env.Environment,
	}
	if doc.Auth.Number == "" && env.bare {
		// Offline vouchers are authorized under their access key.
		doc.Auth.Number = doc.AccessKey
	}
	return doc, nil
}

// parseVoucher is the second stage: the embedded document must have a
// <factura> root with both info blocks.
func parseVoucher(env *Envelope) (*facturaXML, error) {
	const op = "parse voucher"

	dec := newUTF8Decoder(string(env.Voucher))
	if env.bare {
		dec = newDecoder([]byte(env.Voucher))
	}

	var f facturaXML
	if err := dec.Decode(&f); err != nil {
		return nil, invoice.Invalid(op, err.Error())
	}
	if f.InfoTributaria == nil {
		return nil, invoice.Invalid(op, "infoTributaria ausente")
	}
	if f.InfoFactura == nil {
		return nil, invoice.Invalid(op, "infoFactura ausente")
	}
	return &f, nil
}

func mapVoucher(f *facturaXML) *invoice.Document {
	it := f.InfoTributaria
	inf := f.InfoFactura

	doc := &invoice.Document{
		Source:      invoice.SourceXML,
		Type:        invoice.TypeInvoice,
		Status:      invoice.StatusXMLOK,
		AccessKey:   trim(it.ClaveAcceso),
		Estab:       trim(it.Estab),
		EmissionPt:  trim(it.PtoEmi),
		Sequence:    trim(it.Secuencial),
		Environment: trim(it.Ambiente),
		Currency:    strings.ToUpper(trim(inf.Moneda)),
		Provider: invoice.Provider{
			TaxID:               trim(it.RUC),
			Name:                trim(it.RazonSocial),
			TradeName:           trim(it.NombreComercial),
			HeadOffice:          trim(it.DirMatriz),
			Address:             trim(inf.DirEstablecimiento),
			AccountingObligated: trim(inf.ObligadoContabilidad),
			SpecialTaxpayer:     trim(inf.ContribuyenteEspecial),
			Regime:              trim(it.ContribuyenteRimpe),
		},
		Buyer: invoice.Buyer{
			IDType:         trim(inf.TipoIdentificacionComprador),
			Identification: trim(inf.IdentificacionComprador),
			Name:           trim(inf.RazonSocialComprador),
			Address:        trim(inf.DireccionComprador),
		},
	}
	if strings.EqualFold(doc.Currency, "DOLAR") || strings.EqualFold(doc.Currency, "DÓLAR") {
		doc.Currency = invoice.DefaultCurrency
	}
	if doc.Estab != "" && doc.EmissionPt != "" && doc.Sequence != "" {
		doc.Number = doc.Estab + "-" + doc.EmissionPt + "-" + doc.Sequence
	}
	if t, ok := normalize.ParseDate(inf.FechaEmision); ok {
		doc.IssueDate = t
	}

	doc.Totals = mapTotals(inf)

	for _, d := range f.Detalles {
		doc.Items = append(doc.Items, mapDetail(d))
	}
	for _, p := range inf.Pagos {
		doc.Payments = append(doc.Payments, invoice.PaymentEntry{
			Method:   trim(p.FormaPago),
			Amount:   normalize.Amount(p.Total),
			Term:     trim(p.Plazo),
			TimeUnit: trim(p.UnidadTiempo),
		})
	}
	for _, c := range f.InfoAdicional {
		doc.Additional = append(doc.Additional, invoice.AdditionalField{
			Name:  trim(c.Nombre),
			Value: trim(c.Valor),
		})
	}
	return doc
}

func mapTotals(inf *infoFacturaXML) invoice.Totals {
	totals := invoice.Totals{
		Discount:          normalize.Amount(inf.TotalDescuento),
		Tip:               normalize.Amount(inf.Propina),
		GrandTotal:        normalize.Amount(inf.ImporteTotal),
		WithholdingTax:    normalize.Amount(inf.ValorRetIva),
		WithholdingIncome: normalize.Amount(inf.ValorRetRenta),
	}

	taxed, zero, tax := decimal.Zero, decimal.Zero, decimal.Zero
	for _, ti := range inf.TotalConImpuestos {
		base := normalize.Amount(ti.BaseImponible)
		tax = tax.Add(normalize.Amount(ti.Valor))
		if trim(ti.Codigo) != taxCodeIVA {
			continue
		}
		if zeroRatedCodes[trim(ti.CodigoPorcentaje)] {
			zero = zero.Add(base)
		} else {
			taxed = taxed.Add(base)
		}
	}
	if len(inf.TotalConImpuestos) == 0 {
		zero = normalize.Amount(inf.TotalSinImpuestos)
	}

	totals.SubtotalTaxed = normalize.Clamp(taxed)
	totals.SubtotalZeroRated = normalize.Clamp(zero)
	totals.Tax = normalize.Clamp(tax)
	return totals
}

func mapDetail(d detalleXML) invoice.LineItem {
	code := trim(d.CodigoPrincipal)
	if code == "" {
		code = trim(d.CodigoInterno)
	}

	qty := normalize.Precise(d.Cantidad)
	unit := normalize.Precise(d.PrecioUnitario)
	item := invoice.LineItem{
		Code:        code,
		AuxCode:     trim(d.CodigoAuxiliar),
		Description: normalize.Spaces(d.Descripcion),
		Quantity:    decimal.NullDecimal{Decimal: qty, Valid: trim(d.Cantidad) != ""},
		UnitPrice:   unit,
		Discount:    normalize.Amount(d.Descuento),
		Total:       normalize.Amount(d.PrecioTotalSinImpuesto),
	}
	if trim(d.PrecioSinSubsidio) != "" {
		item.PriceWithoutSubsidy = normalize.Precise(d.PrecioSinSubsidio)
		if diff := item.PriceWithoutSubsidy.Sub(unit); diff.IsPositive() {
			item.Subsidy = normalize.Clamp(diff.Mul(qty))
		}
	}
	for _, imp := range d.Impuestos {
		item.Taxes = append(item.Taxes, invoice.TaxEntry{
			Code:     trim(imp.Codigo),
			RateCode: trim(imp.CodigoPorcentaje),
			Rate:     normalize.Amount(imp.Tarifa),
			Base:     normalize.Amount(imp.BaseImponible),
			Amount:   normalize.Amount(imp.Valor),
		})
	}
	return item
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

func parseTimestamp(raw string) *time.Time {
	raw = trim(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	if t, ok := normalize.ParseDate(raw); ok {
		return &t
	}
	return nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
