package workflow

import (
	"strings"
	"testing"

	"github.com/auditafrete/freight_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: DB-free. Row validation/classification is pure; ImportMemoria only
// adds the transaction envelope around it.

func validRow() map[string]string {
	return map[string]string{
		"codigo":         "CT-001",
		"transportadora": "Transportes Demo",
		"origem":         "São Paulo",
		"destino":        "Rio de Janeiro",
		"icms":           "12",
		"pedagios":       "5",
		"seguro":         "1.5",
		"frete_peso":     "81.5",
		"frete_all_in":   "100",
	}
}

func TestBuildReconciliationRow_Conciliado(t *testing.T) {
	row, errMsg := BuildReconciliationRow(validRow())
	if errMsg != "" {
		t.Fatalf("unexpected row error: %s", errMsg)
	}
	if !row.CalculatedTotal.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected calculated total 100, got %s", row.CalculatedTotal)
	}
	if !row.Diff.IsZero() {
		t.Errorf("expected zero diff, got %s", row.Diff)
	}
	if row.Status != models.ReconciliationStatusConciliado {
		t.Errorf("expected CONCILIADO, got %s", row.Status)
	}
}

func TestBuildReconciliationRow_ErroDeConciliacao(t *testing.T) {
	fields := validRow()
	fields["frete_all_in"] = "50"
	row, errMsg := BuildReconciliationRow(fields)
	if errMsg != "" {
		t.Fatalf("unexpected row error: %s", errMsg)
	}
	if !row.Diff.Equal(decimal.RequireFromString("50")) {
		t.Errorf("expected diff 50, got %s", row.Diff)
	}
	if row.Status != models.ReconciliationStatusErro {
		t.Errorf("expected ERRO DE CONCILIAÇÃO, got %s", row.Status)
	}
}

func TestBuildReconciliationRow_WithinTolerance(t *testing.T) {
	fields := validRow()
	fields["frete_all_in"] = "100.05"
	row, errMsg := BuildReconciliationRow(fields)
	if errMsg != "" {
		t.Fatalf("unexpected row error: %s", errMsg)
	}
	if row.Status != models.ReconciliationStatusConciliado {
		t.Errorf("diff of 0.05 is within tolerance, got %s", row.Status)
	}
}

func TestBuildReconciliationRow_MissingCodigo(t *testing.T) {
	fields := validRow()
	fields["codigo"] = "   "
	row, errMsg := BuildReconciliationRow(fields)
	if row != nil {
		t.Fatalf("expected no row for missing codigo")
	}
	if !strings.Contains(errMsg, "obrigatórios") {
		t.Errorf("expected required-field message, got %q", errMsg)
	}
}

func TestBuildReconciliationRow_MissingRoute(t *testing.T) {
	fields := validRow()
	fields["destino"] = ""
	row, errMsg := BuildReconciliationRow(fields)
	if row != nil {
		t.Fatalf("expected no row for missing destino")
	}
	if !strings.Contains(errMsg, "origem e destino") {
		t.Errorf("expected route message, got %q", errMsg)
	}
}

func TestBuildReconciliationRow_NonPositiveAllIn(t *testing.T) {
	for _, allIn := range []string{"", "0", "-10", "abc"} {
		fields := validRow()
		fields["frete_all_in"] = allIn
		row, errMsg := BuildReconciliationRow(fields)
		if row != nil {
			t.Fatalf("all-in %q: expected row error", allIn)
		}
		if !strings.Contains(errMsg, "conciliação impossível") {
			t.Errorf("all-in %q: expected impossible message, got %q", allIn, errMsg)
		}
	}
}

func TestBuildReconciliationRow_CommaDecimals(t *testing.T) {
	fields := validRow()
	fields["icms"] = "12,00"
	fields["frete_peso"] = "81,50"
	fields["seguro"] = "1,50"
	fields["frete_all_in"] = "100,00"
	row, errMsg := BuildReconciliationRow(fields)
	if errMsg != "" {
		t.Fatalf("unexpected row error: %s", errMsg)
	}
	if row.Status != models.ReconciliationStatusConciliado {
		t.Errorf("comma decimals should reconcile, got %s with diff %s", row.Status, row.Diff)
	}
}

func TestMapRow_AccentedHeaderVariants(t *testing.T) {
	headers := []string{"Código", "Transportadora", "Origem", "Destino", "ICMS", "Pedágios", "Seguro", "Frete Peso", "Frete All In"}
	cells := []string{"CT-002", "Demo", "Campinas", "Santos", "10", "2", "1", "87", "100"}

	fields := MapRow(headers, cells)
	if fields["codigo"] != "CT-002" {
		t.Errorf("expected código mapped to codigo, got %q", fields["codigo"])
	}
	if fields["pedagios"] != "2" {
		t.Errorf("expected pedágios mapped to pedagios, got %q", fields["pedagios"])
	}
	if fields["frete_all_in"] != "100" {
		t.Errorf("expected frete all in mapped, got %q", fields["frete_all_in"])
	}

	row, errMsg := BuildReconciliationRow(fields)
	if errMsg != "" {
		t.Fatalf("unexpected row error: %s", errMsg)
	}
	if row.Status != models.ReconciliationStatusConciliado {
		t.Errorf("expected CONCILIADO, got %s", row.Status)
	}
}

func TestMapRow_ShortRowTolerated(t *testing.T) {
	headers := []string{"codigo", "transportadora", "origem", "destino", "frete_all_in"}
	cells := []string{"CT-003", "Demo"}

	fields := MapRow(headers, cells)
	if fields["origem"] != "" || fields["frete_all_in"] != "" {
		t.Errorf("missing trailing cells should read empty, got %+v", fields)
	}
}
