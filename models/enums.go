package models

// Divergence taxonomy assigned by the audit pipeline.
// table_error / weight_error are structural fallbacks (rate configuration
// missing); value_divergence is a real declared vs. calculated mismatch.
type DivergenceType string

const (
	DivergenceTypeTableError      DivergenceType = "table_error"
	DivergenceTypeWeightError     DivergenceType = "weight_error"
	DivergenceTypeValueDivergence DivergenceType = "value_divergence"
)

type AuditStatus string

const (
	AuditStatusOpen      AuditStatus = "open"
	AuditStatusContested AuditStatus = "contested"
	AuditStatusWaived    AuditStatus = "waived"
)

type ShipmentStatus string

const (
	ShipmentStatusPending ShipmentStatus = "pending"
	ShipmentStatusAudited ShipmentStatus = "audited"
)

// Spreadsheet row statuses keep the pt-BR tokens the operations team reads.
type ReconciliationStatus string

const (
	ReconciliationStatusConciliado ReconciliationStatus = "CONCILIADO"
	ReconciliationStatusErro       ReconciliationStatus = "ERRO DE CONCILIAÇÃO"
	ReconciliationStatusAbonado    ReconciliationStatus = "ABONADO"
)

type ImportBatchStatus string

const (
	ImportBatchStatusProcessing ImportBatchStatus = "processing"
	ImportBatchStatusSuccess    ImportBatchStatus = "success"
	ImportBatchStatusWarning    ImportBatchStatus = "warning"
)
