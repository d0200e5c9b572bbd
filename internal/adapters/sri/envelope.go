package sri

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"3tcapital/facturas_sri/internal/core/invoice"
)

// Voucher is the invoice document carried as text inside <comprobante>.
// It is kept as its own type so it is only ever parsed by parseVoucher.
type Voucher string

// Envelope is the authorization wrapper returned by the SRI.
type Envelope struct {
	Status      string
	Number      string
	Date        string
	Environment string
	Voucher     Voucher

	// bare is set when the upload was the voucher itself, still in its
	// declared encoding.
	bare bool
}

type authorizationXML struct {
	Estado             string         `xml:"estado"`
	NumeroAutorizacion string         `xml:"numeroAutorizacion"`
	FechaAutorizacion  string         `xml:"fechaAutorizacion"`
	Ambiente           string         `xml:"ambiente"`
	Comprobante        comprobanteXML `xml:"comprobante"`
}

// comprobanteXML accepts the voucher either as escaped text or CDATA, or as
// a literal child element.
type comprobanteXML struct {
	Text  string `xml:",chardata"`
	Inner string `xml:",innerxml"`
}

func (c comprobanteXML) voucher() Voucher {
	inner := strings.TrimSpace(c.Inner)
	if strings.HasPrefix(inner, "<") && !strings.HasPrefix(inner, "<![CDATA[") {
		return Voucher(inner)
	}
	return Voucher(strings.TrimSpace(c.Text))
}

const authorizedStatus = "AUTORIZADO"

// parseEnvelope finds the <autorizacion> element whether it is the document
// root or nested under <autorizaciones> or a web service response. When
// several are present the first authorized one wins.
//
// A document whose root is <factura> has no envelope; it is returned as the
// voucher with empty authorization metadata.
func parseEnvelope(data []byte) (*Envelope, error) {
	const op = "parse envelope"

	dec := newDecoder(data)
	var found []authorizationXML
	root := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invoice.Invalid(op, err.Error())
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root == "" {
			root = start.Name.Local
			if root == "factura" {
				return &Envelope{Voucher: Voucher(bytes.TrimSpace(data)), bare: true}, nil
			}
		}
		if start.Name.Local != "autorizacion" {
			continue
		}
		var a authorizationXML
		if err := dec.DecodeElement(&a, &start); err != nil {
			return nil, invoice.Invalid(op, err.Error())
		}
		found = append(found, a)
	}

	if len(found) == 0 {
		return nil, invoice.Invalid(op, "autorizacion no encontrada")
	}

	chosen := found[0]
	for _, a := range found {
		if strings.EqualFold(strings.TrimSpace(a.Estado), authorizedStatus) {
			chosen = a
			break
		}
	}

	env := &Envelope{
		Status:      strings.TrimSpace(chosen.Estado),
		Number:      strings.TrimSpace(chosen.NumeroAutorizacion),
		Date:        strings.TrimSpace(chosen.FechaAutorizacion),
		Environment: strings.TrimSpace(chosen.Ambiente),
		Voucher:     chosen.Comprobante.voucher(),
	}
	if env.Voucher == "" {
		return nil, invoice.Invalid(op, "comprobante vacío")
	}
	return env, nil
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	dec.Strict = false
	return dec
}

// newUTF8Decoder reads text that was already transcoded by the envelope
// decoder, ignoring whatever encoding its prolog still declares.
func newUTF8Decoder(text string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	dec.Strict = false
	return dec
}
