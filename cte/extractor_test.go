package cte

import (
	"errors"
	"testing"

	"github.com/auditafrete/freight_backend/utils"
	"github.com/shopspring/decimal"
)

// NOTE: extraction is pure; these tests cover both accepted nesting shapes
// and the field rules without touching storage.

const accessKey = "35170512345678000195570010000000011000000016"

func wrappedDoc(tomaBlock, destCnpj string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<cteProc versao="3.00">
  <CTe>
    <infCte Id="CTe` + accessKey + `" versao="3.00">
      <ide><CFOP>5353</CFOP>` + tomaBlock + `</ide>
      <emit><CNPJ>12345678000195</CNPJ><xNome>Transportes Demo</xNome></emit>
      <rem><CNPJ>11222333000181</CNPJ><enderReme><CEP>01310100</CEP><xMun>Sao Paulo</xMun></enderReme></rem>
      <dest><CNPJ>` + destCnpj + `</CNPJ><enderDest><CEP>20040030</CEP><xMun>Rio de Janeiro</xMun></enderDest></dest>
      <vPrest><vTPrest>1050.00</vTPrest><vRec>1000.00</vRec></vPrest>
      <imp><ICMS><ICMS00><vBC>1000.00</vBC><pICMS>12.00</pICMS><vICMS>120.00</vICMS></ICMS00></ICMS></imp>
      <infCTeNorm>
        <infCarga>
          <vCarga>50000.00</vCarga>
          <infQ><cUnid>03</cUnid><tpMed>CAIXAS</tpMed><qCarga>10.0000</qCarga></infQ>
          <infQ><cUnid>01</cUnid><tpMed>PESO BRUTO</tpMed><qCarga>250.000</qCarga></infQ>
        </infCarga>
      </infCTeNorm>
    </infCte>
  </CTe>
  <protCTe><infProt><chCTe>` + accessKey + `</chCTe></infProt></protCTe>
</cteProc>`
}

func TestExtract_WrappedShape(t *testing.T) {
	extracted, err := Extract([]byte(wrappedDoc("<toma3><toma>0</toma></toma3>", "44555666000172")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted.CteKey != accessKey {
		t.Errorf("expected key %s, got %s", accessKey, extracted.CteKey)
	}
	if extracted.CarrierCnpj != "12345678000195" {
		t.Errorf("unexpected carrier cnpj %s", extracted.CarrierCnpj)
	}
	if !extracted.DeclaredValue.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected declared 1000.00, got %s", extracted.DeclaredValue)
	}
	if !extracted.GrossWeight.Equal(decimal.RequireFromString("250.000")) {
		t.Errorf("expected gross weight 250, got %s", extracted.GrossWeight)
	}
	if !extracted.IcmsValue.Equal(decimal.RequireFromString("120.00")) {
		t.Errorf("expected icms 120, got %s", extracted.IcmsValue)
	}
	if !extracted.IcmsRate.Equal(decimal.RequireFromString("12.00")) {
		t.Errorf("expected icms rate 12, got %s", extracted.IcmsRate)
	}
	if extracted.OriginCity == nil || *extracted.OriginCity != "Sao Paulo" {
		t.Errorf("expected origin city Sao Paulo, got %v", extracted.OriginCity)
	}
	if extracted.DestinationCep == nil || *extracted.DestinationCep != "20040030" {
		t.Errorf("expected destination cep, got %v", extracted.DestinationCep)
	}
}

func TestExtract_BareShape(t *testing.T) {
	doc := `<CTe>
  <infCte Id="CTe` + accessKey + `">
    <ide><toma3><toma>0</toma></toma3></ide>
    <emit><CNPJ>12345678000195</CNPJ></emit>
    <rem><CNPJ>11222333000181</CNPJ></rem>
    <dest><CNPJ>44555666000172</CNPJ></dest>
    <vPrest><vRec>500.00</vRec></vPrest>
  </infCte>
</CTe>`
	extracted, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted.CteKey != accessKey {
		t.Errorf("expected key %s, got %s", accessKey, extracted.CteKey)
	}
	if extracted.OriginCity != nil {
		t.Errorf("expected nil origin city without address block, got %v", *extracted.OriginCity)
	}
	if !extracted.GrossWeight.IsZero() {
		t.Errorf("expected zero weight without infQ entries, got %s", extracted.GrossWeight)
	}
}

func TestExtract_PayerTomaRule(t *testing.T) {
	cases := []struct {
		name     string
		toma     string
		expected string
	}{
		{"type 0 uses sender", "<toma3><toma>0</toma></toma3>", "11222333000181"},
		{"type 3 uses recipient", "<toma3><toma>3</toma></toma3>", "44555666000172"},
		{"type 4 falls back to sender", "<toma4><toma>4</toma></toma4>", "11222333000181"},
		{"absent falls back to sender", "", "11222333000181"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extracted, err := Extract([]byte(wrappedDoc(tc.toma, "44555666000172")))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if extracted.PayerCnpj != tc.expected {
				t.Errorf("expected payer %s, got %s", tc.expected, extracted.PayerCnpj)
			}
		})
	}
}

func TestExtract_MissingPayer(t *testing.T) {
	// toma 3 pointing at a recipient without CNPJ resolves to empty.
	doc := `<CTe>
  <infCte Id="CTe` + accessKey + `">
    <ide><toma3><toma>3</toma></toma3></ide>
    <emit><CNPJ>12345678000195</CNPJ></emit>
    <rem><CNPJ>11222333000181</CNPJ></rem>
    <dest></dest>
  </infCte>
</CTe>`
	_, err := Extract([]byte(doc))
	if !errors.Is(err, utils.ErrMissingPayerId) {
		t.Fatalf("expected ErrMissingPayerId, got %v", err)
	}
}

func TestExtract_MissingCarrier(t *testing.T) {
	doc := `<CTe>
  <infCte Id="CTe` + accessKey + `">
    <rem><CNPJ>11222333000181</CNPJ></rem>
  </infCte>
</CTe>`
	_, err := Extract([]byte(doc))
	if !errors.Is(err, utils.ErrMissingCarrierId) {
		t.Fatalf("expected ErrMissingCarrierId, got %v", err)
	}
}

func TestExtract_KeyFallbackToProtocol(t *testing.T) {
	doc := `<cteProc>
  <CTe>
    <infCte>
      <emit><CNPJ>12345678000195</CNPJ></emit>
      <rem><CNPJ>11222333000181</CNPJ></rem>
    </infCte>
  </CTe>
  <protCTe><infProt><chCTe>` + accessKey + `</chCTe></infProt></protCTe>
</cteProc>`
	extracted, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted.CteKey != accessKey {
		t.Errorf("expected protocol key fallback, got %s", extracted.CteKey)
	}
}

func TestExtract_MissingKey(t *testing.T) {
	doc := `<CTe>
  <infCte>
    <emit><CNPJ>12345678000195</CNPJ></emit>
  </infCte>
</CTe>`
	_, err := Extract([]byte(doc))
	if !errors.Is(err, utils.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

func TestExtract_MalformedDocument(t *testing.T) {
	for _, doc := range []string{"not xml at all", "<nfe><infNFe/></nfe>", ""} {
		if _, err := Extract([]byte(doc)); !errors.Is(err, utils.ErrMalformedDocument) {
			t.Errorf("doc %q: expected ErrMalformedDocument, got %v", doc, err)
		}
	}
}

func TestExtract_MalformedValueDefaultsToZero(t *testing.T) {
	doc := `<CTe>
  <infCte Id="CTe` + accessKey + `">
    <ide><toma3><toma>0</toma></toma3></ide>
    <emit><CNPJ>12345678000195</CNPJ></emit>
    <rem><CNPJ>11222333000181</CNPJ></rem>
    <vPrest><vRec>abc</vRec></vPrest>
  </infCte>
</CTe>`
	extracted, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !extracted.DeclaredValue.IsZero() {
		t.Errorf("expected zero declared value for malformed numeric, got %s", extracted.DeclaredValue)
	}
}

func TestExtract_IcmsRegimePreference(t *testing.T) {
	doc := `<CTe>
  <infCte Id="CTe` + accessKey + `">
    <ide><toma3><toma>0</toma></toma3></ide>
    <emit><CNPJ>12345678000195</CNPJ></emit>
    <rem><CNPJ>11222333000181</CNPJ></rem>
    <imp><ICMS><ICMS20><vBC>800.00</vBC><pICMS>7.00</pICMS><vICMS>56.00</vICMS></ICMS20></ICMS></imp>
  </infCte>
</CTe>`
	extracted, err := Extract([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !extracted.IcmsBase.Equal(decimal.RequireFromString("800.00")) {
		t.Errorf("expected ICMS20 base 800, got %s", extracted.IcmsBase)
	}
}
