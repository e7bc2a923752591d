package afip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	afipcat "github.com/jhoicas/facturacion-arg/pkg/afip"
	"github.com/jhoicas/facturacion-arg/pkg/config"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	wsfeURLHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"

	soapNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	wsfeNS     = "http://ar.gov.afip.dif.FEV1/"
	soapAction = wsfeNS + "FECAESolicitar"

	maxResponseBytes = 1 << 20
)

// WSFEClient implementa billing.AuthorizationPort contra FECAESolicitar (WSFEv1).
// Usa net/http de la stdlib y etree para armar y leer el sobre SOAP.
type WSFEClient struct {
	httpClient *http.Client
	url        string
	cuit       string
	token      string
	sign       string
	log        zerolog.Logger
}

var _ billing.AuthorizationPort = (*WSFEClient)(nil)

// NewWSFEClient construye el cliente según el entorno configurado (homo/prod) o la URL explícita.
func NewWSFEClient(cfg config.AFIPConfig, log zerolog.Logger) (*WSFEClient, error) {
	url := cfg.WSFEURL
	if url == "" {
		switch cfg.Environment {
		case config.AFIPEnvHomo:
			url = wsfeURLHomo
		case config.AFIPEnvProd:
			url = wsfeURLProd
		default:
			return nil, fmt.Errorf("wsfe: entorno sin endpoint %q (usar 'homo' o 'prod')", cfg.Environment)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WSFEClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		cuit:       afipcat.NormalizeCUIT(cfg.CUIT),
		token:      cfg.Token,
		sign:       cfg.Sign,
		log:        log,
	}, nil
}

// RequestAuthorization envía el comprobante a FECAESolicitar.
// Fallas de red, HTTP 5xx y SOAP Fault se devuelven como error; el rechazo de AFIP viaja en el resultado.
func (c *WSFEClient) RequestAuthorization(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
	payload, err := c.buildEnvelope(req)
	if err != nil {
		// un comprobante que no se puede expresar en WSFE no mejora reintentando
		return &billing.AuthorizationResult{ErrorCode: "LOCAL", ErrorMessage: err.Error()}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wsfe: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("wsfe: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("wsfe: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("wsfe: leer respuesta: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError && !bytes.Contains(raw, []byte("Fault")) {
		return nil, fmt.Errorf("wsfe: HTTP %d", resp.StatusCode)
	}

	c.log.Debug().Str("document_id", req.Document.ID).Int("http_status", resp.StatusCode).Msg("respuesta WSFE")
	return parseCAEResponse(raw)
}

// ── Armado del sobre ──────────────────────────────────────────────────────────

func (c *WSFEClient) buildEnvelope(req billing.AuthorizationRequest) ([]byte, error) {
	d := req.Document
	cbteTipo, ok := afipcat.VoucherTypeCode(d.Type.String())
	if !ok {
		return nil, fmt.Errorf("wsfe: el tipo %s no se autoriza por WSFE", d.Type)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", soapNS)
	env.CreateAttr("xmlns:ar", wsfeNS)
	env.CreateElement("soap:Header")
	op := env.CreateElement("soap:Body").CreateElement("ar:FECAESolicitar")

	auth := op.CreateElement("ar:Auth")
	auth.CreateElement("ar:Token").SetText(c.token)
	auth.CreateElement("ar:Sign").SetText(c.sign)
	auth.CreateElement("ar:Cuit").SetText(c.cuit)

	feReq := op.CreateElement("ar:FeCAEReq")
	cab := feReq.CreateElement("ar:FeCabReq")
	cab.CreateElement("ar:CantReg").SetText("1")
	cab.CreateElement("ar:PtoVta").SetText(strconv.Itoa(d.SalesPoint))
	cab.CreateElement("ar:CbteTipo").SetText(strconv.Itoa(cbteTipo))

	det := feReq.CreateElement("ar:FeDetReq").CreateElement("ar:FECAEDetRequest")
	det.CreateElement("ar:Concepto").SetText(strconv.Itoa(afipcat.ConceptProducts))
	docTipo, docNro := receiverID(d)
	det.CreateElement("ar:DocTipo").SetText(strconv.Itoa(docTipo))
	det.CreateElement("ar:DocNro").SetText(docNro)
	number := strconv.FormatInt(d.VoucherNumber, 10)
	det.CreateElement("ar:CbteDesde").SetText(number)
	det.CreateElement("ar:CbteHasta").SetText(number)
	det.CreateElement("ar:CbteFch").SetText(d.IssueDate.Format(afipcat.CAEDateLayout))

	amounts, err := summarize(d, req.Items)
	if err != nil {
		return nil, err
	}
	det.CreateElement("ar:ImpTotal").SetText(money(d.Total))
	det.CreateElement("ar:ImpTotConc").SetText(money(amounts.notTaxed))
	det.CreateElement("ar:ImpNeto").SetText(money(amounts.net))
	det.CreateElement("ar:ImpOpEx").SetText(money(amounts.exempt))
	det.CreateElement("ar:ImpTrib").SetText(money(d.TotalPerceptions))
	det.CreateElement("ar:ImpIVA").SetText(money(d.TotalTaxes))
	if d.Type.IsFCE() && d.DueDate != nil {
		det.CreateElement("ar:FchVtoPago").SetText(d.DueDate.Format(afipcat.CAEDateLayout))
	}
	currency := d.Currency
	if currency == "" {
		currency = afipcat.CurrencyPesos
	}
	det.CreateElement("ar:MonId").SetText(currency)
	rate := d.ExchangeRate
	if currency == afipcat.CurrencyPesos || rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	det.CreateElement("ar:MonCotiz").SetText(rate.StringFixed(4))

	if req.Related != nil {
		relTipo, ok := afipcat.VoucherTypeCode(req.Related.Type.String())
		if ok {
			asoc := det.CreateElement("ar:CbtesAsoc").CreateElement("ar:CbteAsoc")
			asoc.CreateElement("ar:Tipo").SetText(strconv.Itoa(relTipo))
			asoc.CreateElement("ar:PtoVta").SetText(strconv.Itoa(req.Related.SalesPoint))
			asoc.CreateElement("ar:Nro").SetText(strconv.FormatInt(req.Related.VoucherNumber, 10))
			asoc.CreateElement("ar:Cuit").SetText(c.cuit)
			asoc.CreateElement("ar:CbteFch").SetText(req.Related.IssueDate.Format(afipcat.CAEDateLayout))
		}
	}

	if perc := perceptionsOnly(req.Perceptions); len(perc) > 0 {
		tributos := det.CreateElement("ar:Tributos")
		for _, p := range perc {
			t := tributos.CreateElement("ar:Tributo")
			t.CreateElement("ar:Id").SetText(strconv.Itoa(tributeID(p.Jurisdiction)))
			t.CreateElement("ar:Desc").SetText(p.Name)
			t.CreateElement("ar:BaseImp").SetText(money(p.BaseAmount))
			alic := decimal.Zero
			if p.Rate != nil {
				alic = *p.Rate
			}
			t.CreateElement("ar:Alic").SetText(money(alic))
			t.CreateElement("ar:Importe").SetText(money(p.Amount))
		}
	}

	// Las clases C no discriminan IVA.
	if len(amounts.vat) > 0 && !isClassC(d.Type) {
		iva := det.CreateElement("ar:Iva")
		for _, v := range amounts.vat {
			a := iva.CreateElement("ar:AlicIva")
			a.CreateElement("ar:Id").SetText(strconv.Itoa(v.id))
			a.CreateElement("ar:BaseImp").SetText(money(v.base))
			a.CreateElement("ar:Importe").SetText(money(v.amount))
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

type vatGroup struct {
	id     int
	base   decimal.Decimal
	amount decimal.Decimal
}

type wsfeAmounts struct {
	net      decimal.Decimal
	exempt   decimal.Decimal
	notTaxed decimal.Decimal
	vat      []vatGroup
}

// summarize agrupa los subtotales por categoría de IVA y alícuota.
func summarize(d *entity.FiscalDocument, items []*entity.LineItem) (wsfeAmounts, error) {
	out := wsfeAmounts{net: decimal.Zero, exempt: decimal.Zero, notTaxed: decimal.Zero}
	if len(items) == 0 {
		out.net = d.Subtotal
		return out, nil
	}
	byID := map[int]int{}
	for _, it := range items {
		switch it.TaxCategory {
		case entity.TaxCategoryExempt:
			out.exempt = out.exempt.Add(it.LineSubtotal)
		case entity.TaxCategoryNotTaxed:
			out.notTaxed = out.notTaxed.Add(it.LineSubtotal)
		default:
			out.net = out.net.Add(it.LineSubtotal)
			id, err := afipcat.IVAID(it.TaxRate)
			if err != nil {
				return out, err
			}
			idx, ok := byID[id]
			if !ok {
				idx = len(out.vat)
				byID[id] = idx
				out.vat = append(out.vat, vatGroup{id: id, base: decimal.Zero, amount: decimal.Zero})
			}
			out.vat[idx].base = out.vat[idx].base.Add(it.LineSubtotal)
			out.vat[idx].amount = out.vat[idx].amount.Add(it.TaxAmount)
		}
	}
	return out, nil
}

// receiverID usa el CUIT de la contraparte si el identificador es uno válido; si no, consumidor final.
func receiverID(d *entity.FiscalDocument) (int, string) {
	id := d.CounterpartyID()
	if afipcat.ValidateCUIT(id) == nil {
		return afipcat.DocTypeCUIT, afipcat.NormalizeCUIT(id)
	}
	return afipcat.DocTypeConsumerEnd, "0"
}

func perceptionsOnly(ps []*entity.Perception) []*entity.Perception {
	out := make([]*entity.Perception, 0, len(ps))
	for _, p := range ps {
		if p.Kind != entity.PerceptionKindRetention {
			out = append(out, p)
		}
	}
	return out
}

func tributeID(jurisdiction string) int {
	switch strings.ToLower(strings.TrimSpace(jurisdiction)) {
	case "", "nacional", "national":
		return afipcat.TributeNational
	case "municipal":
		return afipcat.TributeMunicipal
	default:
		return afipcat.TributeProvincial
	}
}

func isClassC(t entity.DocumentType) bool {
	switch t {
	case entity.DocTypeInvoiceC, entity.DocTypeCreditNoteC, entity.DocTypeDebitNoteC,
		entity.DocTypeFCEC, entity.DocTypeNCFCEC, entity.DocTypeNDFCEC:
		return true
	}
	return false
}

func money(v decimal.Decimal) string { return v.StringFixed(2) }

// ── Lectura de la respuesta ───────────────────────────────────────────────────

func parseCAEResponse(raw []byte) (*billing.AuthorizationResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("wsfe: respuesta no es XML: %w", err)
	}

	if fault := doc.FindElement("//Fault"); fault != nil {
		return nil, fmt.Errorf("wsfe: SOAP Fault [%s]: %s", childText(fault, "faultcode"), childText(fault, "faultstring"))
	}

	result := doc.FindElement("//FECAESolicitarResult")
	if result == nil {
		return nil, fmt.Errorf("wsfe: respuesta sin FECAESolicitarResult")
	}

	det := result.FindElement(".//FECAEDetResponse")
	if det != nil && childText(det, "Resultado") == afipcat.ResultApproved {
		cae := childText(det, "CAE")
		expiry, err := time.Parse(afipcat.CAEDateLayout, childText(det, "CAEFchVto"))
		if cae == "" || err != nil {
			return &billing.AuthorizationResult{ErrorCode: "CAE", ErrorMessage: "respuesta aprobada sin CAE o vencimiento válido"}, nil
		}
		return &billing.AuthorizationResult{Code: cae, Expiry: expiry}, nil
	}

	// Rechazo: Errors del resultado y observaciones del detalle.
	var codes, msgs []string
	for _, e := range result.FindElements("./Errors/Err") {
		codes = append(codes, childText(e, "Code"))
		msgs = append(msgs, childText(e, "Msg"))
	}
	if det != nil {
		for _, o := range det.FindElements("./Observaciones/Obs") {
			codes = append(codes, childText(o, "Code"))
			msgs = append(msgs, childText(o, "Msg"))
		}
	}
	if len(codes) == 0 {
		codes = []string{afipcat.ResultRejected}
		msgs = []string{"comprobante rechazado sin detalle"}
	}
	return &billing.AuthorizationResult{
		ErrorCode:    strings.Join(codes, ","),
		ErrorMessage: strings.Join(msgs, "; "),
	}, nil
}

func childText(e *etree.Element, tag string) string {
	if c := e.FindElement("./" + tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
