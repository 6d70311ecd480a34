package workflow

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UploadedFile is one file of a multipart upload, already read into memory
// (uploads are bounded by the request size ceiling enforced at the handler).
type UploadedFile struct {
	Name string
	Data []byte
}

// BatchResult aggregates the per-document outcomes of one upload.
type BatchResult struct {
	ProcessedCount int               `json:"processedCount"`
	ErrorCount     int               `json:"errorCount"`
	Summary        string            `json:"summary"`
	Outcomes       []DocumentOutcome `json:"outcomes"`
}

// ProcessCteBatch drives the per-document pipeline over every uploaded file.
// ZIP archives are expanded entry by entry (only *.xml entries are
// considered); each document runs independently and a failure never aborts
// the rest of the batch.
func ProcessCteBatch(db *gorm.DB, logger *logrus.Logger, ctx context.Context, businessId string, files []UploadedFile) BatchResult {
	var result BatchResult

	documents, expandFailures := ExpandUploadedFiles(files)
	result.Outcomes = append(result.Outcomes, expandFailures...)

	for _, doc := range documents {
		outcome := processDocumentSafely(db, logger, ctx, businessId, doc.Name, doc.Data)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, outcome := range result.Outcomes {
		if outcome.Success {
			result.ProcessedCount++
		} else {
			result.ErrorCount++
		}
	}
	result.Summary = fmt.Sprintf("%d CT-e(s) processado(s), %d com erro", result.ProcessedCount, result.ErrorCount)
	return result
}

// ExpandUploadedFiles flattens the upload set into individual documents:
// plain files pass through, ZIP archives contribute every *.xml entry.
// Unreadable archives/entries become failed outcomes instead of aborting.
func ExpandUploadedFiles(files []UploadedFile) ([]UploadedFile, []DocumentOutcome) {
	var documents []UploadedFile
	var failures []DocumentOutcome

	for _, file := range files {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".zip") {
			documents = append(documents, file)
			continue
		}

		reader, err := zip.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
		if err != nil {
			failures = append(failures, DocumentOutcome{
				Filename: file.Name,
				Message:  "arquivo ZIP inválido: " + err.Error(),
			})
			continue
		}

		for _, entry := range reader.File {
			if entry.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name), ".xml") {
				continue
			}
			data, err := readZipEntry(entry)
			if err != nil {
				failures = append(failures, DocumentOutcome{
					Filename: entry.Name,
					Message:  "falha ao ler entrada do ZIP: " + err.Error(),
				})
				continue
			}
			documents = append(documents, UploadedFile{Name: entry.Name, Data: data})
		}
	}

	return documents, failures
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
