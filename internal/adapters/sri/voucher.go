package sri

import "encoding/xml"

type facturaXML struct {
	XMLName        xml.Name           `xml:"factura"`
	ID             string             `xml:"id,attr"`
	Version        string             `xml:"version,attr"`
	InfoTributaria *infoTributariaXML `xml:"infoTributaria"`
	InfoFactura    *infoFacturaXML    `xml:"infoFactura"`
	Detalles       []detalleXML       `xml:"detalles>detalle"`
	InfoAdicional  []campoXML         `xml:"infoAdicional>campoAdicional"`
}

type infoTributariaXML struct {
	Ambiente           string `xml:"ambiente"`
	TipoEmision        string `xml:"tipoEmision"`
	RazonSocial        string `xml:"razonSocial"`
	NombreComercial    string `xml:"nombreComercial"`
	RUC                string `xml:"ruc"`
	ClaveAcceso        string `xml:"claveAcceso"`
	CodDoc             string `xml:"codDoc"`
	Estab              string `xml:"estab"`
	PtoEmi             string `xml:"ptoEmi"`
	Secuencial         string `xml:"secuencial"`
	DirMatriz          string `xml:"dirMatriz"`
	ContribuyenteRimpe string `xml:"contribuyenteRimpe"`
}

type infoFacturaXML struct {
	FechaEmision                string             `xml:"fechaEmision"`
	DirEstablecimiento          string             `xml:"dirEstablecimiento"`
	ContribuyenteEspecial       string             `xml:"contribuyenteEspecial"`
	ObligadoContabilidad        string             `xml:"obligadoContabilidad"`
	TipoIdentificacionComprador string             `xml:"tipoIdentificacionComprador"`
	RazonSocialComprador        string             `xml:"razonSocialComprador"`
	IdentificacionComprador     string             `xml:"identificacionComprador"`
	DireccionComprador          string             `xml:"direccionComprador"`
	TotalSinImpuestos           string             `xml:"totalSinImpuestos"`
	TotalDescuento              string             `xml:"totalDescuento"`
	TotalConImpuestos           []totalImpuestoXML `xml:"totalConImpuestos>totalImpuesto"`
	Propina                     string             `xml:"propina"`
	ImporteTotal                string             `xml:"importeTotal"`
	Moneda                      string             `xml:"moneda"`
	Pagos                       []pagoXML          `xml:"pagos>pago"`
	ValorRetIva                 string             `xml:"valorRetIva"`
	ValorRetRenta               string             `xml:"valorRetRenta"`
}

type totalImpuestoXML struct {
	Codigo           string `xml:"codigo"`
	CodigoPorcentaje string `xml:"codigoPorcentaje"`
	BaseImponible    string `xml:"baseImponible"`
	Tarifa           string `xml:"tarifa"`
	Valor            string `xml:"valor"`
}

type pagoXML struct {
	FormaPago    string `xml:"formaPago"`
	Total        string `xml:"total"`
	Plazo        string `xml:"plazo"`
	UnidadTiempo string `xml:"unidadTiempo"`
}

type detalleXML struct {
	CodigoPrincipal        string        `xml:"codigoPrincipal"`
	CodigoInterno          string        `xml:"codigoInterno"`
	CodigoAuxiliar         string        `xml:"codigoAuxiliar"`
	Descripcion            string        `xml:"descripcion"`
	Cantidad               string        `xml:"cantidad"`
	PrecioUnitario         string        `xml:"precioUnitario"`
	PrecioSinSubsidio      string        `xml:"precioSinSubsidio"`
	Descuento              string        `xml:"descuento"`
	PrecioTotalSinImpuesto string        `xml:"precioTotalSinImpuesto"`
	Impuestos              []impuestoXML `xml:"impuestos>impuesto"`
}

type impuestoXML struct {
	Codigo           string `xml:"codigo"`
	CodigoPorcentaje string `xml:"codigoPorcentaje"`
	Tarifa           string `xml:"tarifa"`
	BaseImponible    string `xml:"baseImponible"`
	Valor            string `xml:"valor"`
}

type campoXML struct {
	Nombre string `xml:"nombre,attr"`
	Valor  string `xml:",chardata"`
}
