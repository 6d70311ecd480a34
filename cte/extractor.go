package cte

import (
	"encoding/xml"
	"strings"

	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
)

const grossWeightTag = "PESO BRUTO"

// ExtractedShipment holds the normalized fields the audit pipeline needs
// from one CT-e.
type ExtractedShipment struct {
	CteKey          string
	CarrierCnpj     string
	PayerCnpj       string
	DeclaredValue   decimal.Decimal
	GrossWeight     decimal.Decimal
	IcmsValue       decimal.Decimal
	IcmsBase        decimal.Decimal
	IcmsRate        decimal.Decimal
	OriginCep       *string
	OriginCity      *string
	DestinationCep  *string
	DestinationCity *string
}

// normalize resolves the two accepted nesting shapes into one Document.
func normalize(data []byte) (*Document, error) {
	var proc procDocument
	if err := xml.Unmarshal(data, &proc); err == nil {
		doc := proc.Cte
		doc.ProtChave = strings.TrimSpace(proc.Prot.InfProt.ChCte)
		return &doc, nil
	}

	var bare bareDocument
	if err := xml.Unmarshal(data, &bare); err == nil {
		return &Document{InfCte: bare.InfCte}, nil
	}

	return nil, utils.ErrMalformedDocument
}

// Extract decodes and validates one CT-e document.
// Structural failures (malformed tree, missing key, missing carrier/payer
// CNPJ) are fatal for the document; malformed numeric fields are tolerated
// and default to zero.
func Extract(data []byte) (*ExtractedShipment, error) {
	doc, err := normalize(data)
	if err != nil {
		return nil, err
	}
	inf := doc.InfCte

	key := strings.TrimPrefix(strings.TrimSpace(inf.Id), "CTe")
	if key == "" {
		key = doc.ProtChave
	}
	if key == "" {
		return nil, utils.ErrMissingKey
	}

	carrierCnpj := utils.NormalizeCNPJ(inf.Emit.Cnpj)
	if carrierCnpj == "" {
		return nil, utils.ErrMissingCarrierId
	}

	payerCnpj := resolvePayerCnpj(inf)
	if payerCnpj == "" {
		return nil, utils.ErrMissingPayerId
	}

	extracted := ExtractedShipment{
		CteKey:        key,
		CarrierCnpj:   carrierCnpj,
		PayerCnpj:     payerCnpj,
		DeclaredValue: utils.ParseDecimal(inf.VPrest.VRec),
		GrossWeight:   extractGrossWeight(inf.InfCTeNorm.InfCarga.InfQ),
	}

	if fields := pickIcms(inf.Imp.Icms); fields != nil {
		extracted.IcmsValue = utils.ParseDecimal(fields.VIcms)
		extracted.IcmsBase = utils.ParseDecimal(fields.VBC)
		extracted.IcmsRate = utils.ParseDecimal(fields.PIcms)
	}

	if end := inf.Rem.EnderReme; end != nil {
		extracted.OriginCep = utils.StrPtr(end.Cep)
		extracted.OriginCity = utils.StrPtr(end.Cidade)
	}
	if end := inf.Dest.EnderDest; end != nil {
		extracted.DestinationCep = utils.StrPtr(end.Cep)
		extracted.DestinationCity = utils.StrPtr(end.Cidade)
	}

	return &extracted, nil
}

// resolvePayerCnpj applies the "toma" rule: service taker 0 (sender) uses the
// remetente CNPJ, 3 (recipient) the destinatário CNPJ, anything else falls
// back to the remetente.
func resolvePayerCnpj(inf infCte) string {
	tomaCode := ""
	if inf.Ide.Toma3 != nil {
		tomaCode = strings.TrimSpace(inf.Ide.Toma3.Toma)
	} else if inf.Ide.Toma4 != nil {
		tomaCode = strings.TrimSpace(inf.Ide.Toma4.Toma)
	}

	switch tomaCode {
	case "3":
		return utils.NormalizeCNPJ(inf.Dest.Cnpj)
	default:
		// includes "0" and the unknown/absent cases
		return utils.NormalizeCNPJ(inf.Rem.Cnpj)
	}
}

// extractGrossWeight scans the cargo quantity entries for the PESO BRUTO
// measurement; absent entries audit as zero weight.
func extractGrossWeight(entries []infQ) decimal.Decimal {
	for _, q := range entries {
		if strings.EqualFold(strings.TrimSpace(q.TpMed), grossWeightTag) {
			return utils.ParseDecimal(q.QCarga)
		}
	}
	return decimal.Zero
}

func pickIcms(group icmsGroup) *icmsFields {
	switch {
	case group.Icms00 != nil:
		return group.Icms00
	case group.Icms20 != nil:
		return group.Icms20
	case group.IcmsSN != nil:
		return group.IcmsSN
	}
	return nil
}
