package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Fatal per-document extraction errors. The batch orchestrator reports these
// per item and keeps going.
var (
	ErrMalformedDocument = errors.New("documento CT-e malformado")
	ErrMissingKey        = errors.New("chave de acesso do CT-e ausente")
	ErrMissingCarrierId  = errors.New("CNPJ do emitente ausente")
	ErrMissingPayerId    = errors.New("CNPJ do tomador ausente")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
