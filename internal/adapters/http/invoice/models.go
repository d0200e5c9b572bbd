package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/normalize"
)

// ClassifyRequest is the body of PATCH /api/facturas/detalles/{detalleId}/clasificacion.
type ClassifyRequest struct {
	Tipo    string `json:"tipo"`
	Subtipo string `json:"subtipo"`
}

type ClassifyResponse struct {
	DetalleID int64  `json:"detalle_id"`
	Tipo      string `json:"tipo"`
	Subtipo   string `json:"subtipo,omitempty"`
}

// OriginalResponse carries the presigned download link of an archived upload.
type OriginalResponse struct {
	URL string `json:"url"`
}

type ListEntryResponse struct {
	ID             int64           `json:"id"`
	Numero         string          `json:"numero"`
	Proveedor      string          `json:"nombre_proveedor"`
	RUCProveedor   string          `json:"ruc_proveedor"`
	FechaEmision   string          `json:"fecha_emision"`
	Total          decimal.Decimal `json:"total"`
	Estado         string          `json:"estado"`
	Origen         string          `json:"origen"`
	Categoria      string          `json:"categoria"`
	GastoPersonal  decimal.Decimal `json:"total_gasto_personal"`
	GastoActividad decimal.Decimal `json:"total_gasto_actividad"`
	CreadoEn       time.Time       `json:"creado_en"`
}

type MonthlySummaryResponse struct {
	Mes            string          `json:"mes"`
	Cantidad       int             `json:"cantidad"`
	BaseIVA        decimal.Decimal `json:"base_iva"`
	BaseCero       decimal.Decimal `json:"base_cero"`
	IVA            decimal.Decimal `json:"iva"`
	Total          decimal.Decimal `json:"total"`
	GastoPersonal  decimal.Decimal `json:"total_gasto_personal"`
	GastoActividad decimal.Decimal `json:"total_gasto_actividad"`
}

type BucketResponse struct {
	Etiqueta string          `json:"etiqueta"`
	Cantidad int             `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
}

type DashboardResponse struct {
	Cantidad           int              `json:"cantidad"`
	Total              decimal.Decimal  `json:"total"`
	IVA                decimal.Decimal  `json:"iva"`
	PendientesRevision int              `json:"pendientes_revision"`
	PorCategoria       []BucketResponse `json:"por_categoria"`
	PorEstado          []BucketResponse `json:"por_estado"`
	TopProveedores     []BucketResponse `json:"top_proveedores"`
}

type TaxResponse struct {
	Codigo           string          `json:"codigo"`
	CodigoPorcentaje string          `json:"codigo_porcentaje"`
	Tarifa           decimal.Decimal `json:"tarifa"`
	BaseImponible    decimal.Decimal `json:"base_imponible"`
	Valor            decimal.Decimal `json:"valor"`
}

type ItemResponse struct {
	ID                int64               `json:"id"`
	CodigoPrincipal   string              `json:"codigo_principal,omitempty"`
	CodigoAuxiliar    string              `json:"codigo_auxiliar,omitempty"`
	Descripcion       string              `json:"descripcion"`
	Cantidad          decimal.NullDecimal `json:"cantidad"`
	PrecioUnitario    decimal.Decimal     `json:"precio_unitario"`
	Descuento         decimal.Decimal     `json:"descuento"`
	PrecioTotal       decimal.Decimal     `json:"precio_total_sin_impuesto"`
	EsGastoPersonal   bool                `json:"es_gasto_personal"`
	EsGastoActividad  bool                `json:"es_gasto_actividad"`
	TipoGastoPersonal string              `json:"tipo_gasto_personal,omitempty"`
	Impuestos         []TaxResponse       `json:"impuestos"`
}

type PaymentResponse struct {
	FormaPago    string          `json:"forma_pago"`
	Total        decimal.Decimal `json:"total"`
	Plazo        string          `json:"plazo,omitempty"`
	UnidadTiempo string          `json:"unidad_tiempo,omitempty"`
}

type AdditionalResponse struct {
	Nombre string `json:"nombre"`
	Valor  string `json:"valor"`
}

// DocumentResponse is the full detail of one invoice.
type DocumentResponse struct {
	ID                    int64                `json:"id"`
	Origen                string               `json:"origen"`
	TipoDocumento         string               `json:"tipo_documento"`
	Numero                string               `json:"numero"`
	ClaveAcceso           string               `json:"clave_acceso,omitempty"`
	RUCProveedor          string               `json:"ruc_proveedor"`
	NombreProveedor       string               `json:"nombre_proveedor"`
	NombreComercial       string               `json:"nombre_comercial,omitempty"`
	DirMatriz             string               `json:"dir_matriz,omitempty"`
	ObligadoContabilidad  string               `json:"obligado_contabilidad,omitempty"`
	Ambiente              string               `json:"ambiente,omitempty"`
	ClienteNombre         string               `json:"cliente_nombre,omitempty"`
	ClienteIdentificacion string               `json:"cliente_identificacion,omitempty"`
	DireccionCliente      string               `json:"direccion_cliente,omitempty"`
	FechaEmision          string               `json:"fecha_emision"`
	BaseIVA               decimal.Decimal      `json:"base_iva"`
	BaseCero              decimal.Decimal      `json:"base_cero"`
	IVA                   decimal.Decimal      `json:"iva"`
	TotalDescuento        decimal.Decimal      `json:"total_descuento"`
	Propina               decimal.Decimal      `json:"propina"`
	Total                 decimal.Decimal      `json:"total"`
	Moneda                string               `json:"moneda"`
	Estado                string               `json:"estado"`
	Confianza             int                  `json:"confianza"`
	Categoria             string               `json:"categoria,omitempty"`
	RevisionRequerida     bool                 `json:"revision_requerida"`
	EstadoSRI             string               `json:"sri_estado,omitempty"`
	NumeroAutorizacion    string               `json:"sri_numero_autorizacion,omitempty"`
	FechaAutorizacion     *time.Time           `json:"sri_fecha_autorizacion,omitempty"`
	TieneOriginal         bool                 `json:"tiene_original"`
	FormaPago             invoice.PaymentFlags `json:"formaPago"`
	Detalles              []ItemResponse       `json:"detalles"`
	Pagos                 []PaymentResponse    `json:"pagos"`
	InfoAdicional         []AdditionalResponse `json:"info_adicional"`
	CreadoEn              time.Time            `json:"creado_en"`
}

func toListResponse(entries []invoice.ListEntry) []ListEntryResponse {
	out := make([]ListEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ListEntryResponse{
			ID:             e.ID,
			Numero:         e.Number,
			Proveedor:      e.ProviderName,
			RUCProveedor:   e.ProviderTaxID,
			FechaEmision:   e.IssueDate.Format(normalize.DateLayout),
			Total:          e.Total,
			Estado:         string(e.Status),
			Origen:         string(e.Source),
			Categoria:      e.Category,
			GastoPersonal:  e.PersonalTotal,
			GastoActividad: e.ActivityTotal,
			CreadoEn:       e.CreatedAt,
		}
	}
	return out
}

func toMonthlyResponse(months []invoice.MonthlySummary) []MonthlySummaryResponse {
	out := make([]MonthlySummaryResponse, len(months))
	for i, m := range months {
		out[i] = MonthlySummaryResponse{
			Mes:            m.Month.Format("2006-01"),
			Cantidad:       m.Count,
			BaseIVA:        m.SubtotalTaxed,
			BaseCero:       m.SubtotalZeroRated,
			IVA:            m.Tax,
			Total:          m.Total,
			GastoPersonal:  m.PersonalTotal,
			GastoActividad: m.ActivityTotal,
		}
	}
	return out
}

func toBuckets(buckets []invoice.Bucket) []BucketResponse {
	out := make([]BucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = BucketResponse{Etiqueta: b.Label, Cantidad: b.Count, Total: b.Total}
	}
	return out
}

func toDashboardResponse(d *invoice.Dashboard) DashboardResponse {
	return DashboardResponse{
		Cantidad:           d.Count,
		Total:              d.Total,
		IVA:                d.Tax,
		PendientesRevision: d.NeedsReview,
		PorCategoria:       toBuckets(d.ByCategory),
		PorEstado:          toBuckets(d.ByStatus),
		TopProveedores:     toBuckets(d.TopProviders),
	}
}

func toDocumentResponse(doc *invoice.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                    doc.ID,
		Origen:                string(doc.Source),
		TipoDocumento:         doc.Type,
		Numero:                doc.Number,
		ClaveAcceso:           doc.AccessKey,
		RUCProveedor:          doc.Provider.TaxID,
		NombreProveedor:       doc.Provider.Name,
		NombreComercial:       doc.Provider.TradeName,
		DirMatriz:             doc.Provider.HeadOffice,
		ObligadoContabilidad:  doc.Provider.AccountingObligated,
		Ambiente:              doc.Environment,
		ClienteNombre:         doc.Buyer.Name,
		ClienteIdentificacion: doc.Buyer.Identification,
		DireccionCliente:      doc.Buyer.Address,
		FechaEmision:          doc.IssueDate.Format(normalize.DateLayout),
		BaseIVA:               doc.Totals.SubtotalTaxed,
		BaseCero:              doc.Totals.SubtotalZeroRated,
		IVA:                   doc.Totals.Tax,
		TotalDescuento:        doc.Totals.Discount,
		Propina:               doc.Totals.Tip,
		Total:                 doc.Totals.GrandTotal,
		Moneda:                doc.Currency,
		Estado:                string(doc.Status),
		Confianza:             doc.Confidence,
		Categoria:             doc.Category,
		RevisionRequerida:     doc.Status.NeedsReview(),
		EstadoSRI:             doc.Auth.Status,
		NumeroAutorizacion:    doc.Auth.Number,
		FechaAutorizacion:     doc.Auth.Date,
		TieneOriginal:         doc.ArchiveKey != "",
		FormaPago:             doc.PaymentFlags,
		Detalles:              make([]ItemResponse, len(doc.Items)),
		Pagos:                 make([]PaymentResponse, len(doc.Payments)),
		InfoAdicional:         make([]AdditionalResponse, len(doc.Additional)),
		CreadoEn:              doc.CreatedAt,
	}

	for i, it := range doc.Items {
		item := ItemResponse{
			ID:                it.ID,
			CodigoPrincipal:   it.Code,
			CodigoAuxiliar:    it.AuxCode,
			Descripcion:       it.Description,
			Cantidad:          it.Quantity,
			PrecioUnitario:    it.UnitPrice,
			Descuento:         it.Discount,
			PrecioTotal:       it.Total,
			EsGastoPersonal:   it.Classification.Personal,
			EsGastoActividad:  it.Classification.Activity,
			TipoGastoPersonal: it.Classification.PersonalKind,
			Impuestos:         make([]TaxResponse, len(it.Taxes)),
		}
		for j, tx := range it.Taxes {
			item.Impuestos[j] = TaxResponse{
				Codigo:           tx.Code,
				CodigoPorcentaje: tx.RateCode,
				Tarifa:           tx.Rate,
				BaseImponible:    tx.Base,
				Valor:            tx.Amount,
			}
		}
		resp.Detalles[i] = item
	}
	for i, p := range doc.Payments {
		resp.Pagos[i] = PaymentResponse{FormaPago: p.Method, Total: p.Amount, Plazo: p.Term, UnidadTiempo: p.TimeUnit}
	}
	for i, a := range doc.Additional {
		resp.InfoAdicional[i] = AdditionalResponse{Nombre: a.Name, Valor: a.Value}
	}
	return resp
}
