// Package cte decodes CT-e (Conhecimento de Transporte eletrônico) XML
// documents into the normalized shipment fields the audit pipeline consumes.
package cte

import "encoding/xml"

// A CT-e arrives in one of two nesting shapes: wrapped in the SEFAZ
// authorization envelope (<cteProc><CTe>…</CTe><protCTe>…</protCTe></cteProc>)
// or as the bare signed document (<CTe>…</CTe>). Both are resolved to a
// Document by normalize() at the package boundary; nothing downstream probes
// optional nesting.

type procDocument struct {
	XMLName xml.Name `xml:"cteProc"`
	Cte     Document `xml:"CTe"`
	Prot    protCte  `xml:"protCTe"`
}

type bareDocument struct {
	XMLName xml.Name `xml:"CTe"`
	InfCte  infCte   `xml:"infCte"`
}

type protCte struct {
	InfProt struct {
		ChCte string `xml:"chCTe"`
	} `xml:"infProt"`
}

// Document is the normalized CT-e: the info block plus the protocol access
// key (blank in the bare shape).
type Document struct {
	InfCte    infCte `xml:"infCte"`
	ProtChave string `xml:"-"`
}

type infCte struct {
	Id         string     `xml:"Id,attr"`
	Ide        ide        `xml:"ide"`
	Emit       party      `xml:"emit"`
	Rem        party      `xml:"rem"`
	Dest       party      `xml:"dest"`
	VPrest     vPrest     `xml:"vPrest"`
	Imp        imp        `xml:"imp"`
	InfCTeNorm infCteNorm `xml:"infCTeNorm"`
}

type ide struct {
	CFOP  string `xml:"CFOP"`
	Toma3 *toma  `xml:"toma3"`
	Toma4 *toma  `xml:"toma4"`
}

type toma struct {
	Toma string `xml:"toma"`
}

type party struct {
	Cnpj      string `xml:"CNPJ"`
	Nome      string `xml:"xNome"`
	EnderReme *ender `xml:"enderReme"`
	EnderDest *ender `xml:"enderDest"`
}

type ender struct {
	Cep    string `xml:"CEP"`
	Cidade string `xml:"xMun"`
}

type vPrest struct {
	VTPrest string `xml:"vTPrest"`
	VRec    string `xml:"vRec"`
}

type imp struct {
	Icms icmsGroup `xml:"ICMS"`
}

// The tax block carries exactly one regime sub-element; extraction probes
// them in a fixed preference order.
type icmsGroup struct {
	Icms00 *icmsFields `xml:"ICMS00"`
	Icms20 *icmsFields `xml:"ICMS20"`
	IcmsSN *icmsFields `xml:"ICMSSN"`
}

type icmsFields struct {
	VBC   string `xml:"vBC"`
	PIcms string `xml:"pICMS"`
	VIcms string `xml:"vICMS"`
}

type infCteNorm struct {
	InfCarga infCarga `xml:"infCarga"`
}

type infCarga struct {
	VCarga string `xml:"vCarga"`
	InfQ   []infQ `xml:"infQ"`
}

type infQ struct {
	CUnid  string `xml:"cUnid"`
	TpMed  string `xml:"tpMed"`
	QCarga string `xml:"qCarga"`
}
