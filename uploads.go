package main

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/auditafrete/freight_backend/config"
	"github.com/auditafrete/freight_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Uploads are bounded only by this ceiling; anything that parses is
// processed in-request and discarded.
const maxUploadSizeBytes int64 = 20 * 1024 * 1024

type memoriaFileResult struct {
	Filename      string `json:"filename"`
	ImportBatchId int    `json:"importBatchId,omitempty"`
	Status        string `json:"status,omitempty"`
	ImportedCount int    `json:"importedCount"`
	ErrorCount    int    `json:"errorCount"`
	TotalCount    int    `json:"totalCount"`
	Message       string `json:"message,omitempty"`
}

func readUploadedFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSizeBytes+1))
}

// cteUploadHandler receives one or more CT-e XML files and/or ZIP archives
// and runs the audit batch. The response always carries the full per-document
// outcome list; a single bad document never fails the request.
func cteUploadHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		fileHeaders := form.File["files"]
		if len(fileHeaders) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
			return
		}

		var files []workflow.UploadedFile
		for _, fh := range fileHeaders {
			if fh.Size > maxUploadSizeBytes {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 20MB limit: " + fh.Filename})
				return
			}
			data, err := readUploadedFile(fh)
			if err != nil {
				config.LogError(app.logger, "uploads.go", "cteUploadHandler", "reading upload", fh.Filename, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
				return
			}
			files = append(files, workflow.UploadedFile{Name: fh.Filename, Data: data})
		}

		result := workflow.ProcessCteBatch(app.DB(), app.logger, c.Request.Context(), businessIdFromRequest(c), files)

		app.logger.WithFields(logrus.Fields{
			"processed": result.ProcessedCount,
			"errors":    result.ErrorCount,
		}).Info("[cte.upload]")

		c.JSON(http.StatusOK, gin.H{"data": result})
	}
}

// memoriaUploadHandler imports memória de cálculo spreadsheets. Each file is
// one transactional import; files are reported individually so one broken
// spreadsheet does not hide the others.
func memoriaUploadHandler(app *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		fileHeaders := form.File["files"]
		if len(fileHeaders) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
			return
		}

		businessId := businessIdFromRequest(c)
		results := make([]memoriaFileResult, 0, len(fileHeaders))

		for _, fh := range fileHeaders {
			if fh.Size > maxUploadSizeBytes {
				results = append(results, memoriaFileResult{Filename: fh.Filename, Message: "file size exceeds 20MB limit"})
				continue
			}
			data, err := readUploadedFile(fh)
			if err != nil {
				config.LogError(app.logger, "uploads.go", "memoriaUploadHandler", "reading upload", fh.Filename, err)
				results = append(results, memoriaFileResult{Filename: fh.Filename, Message: "failed to read file"})
				continue
			}

			// Best-effort: avoid importing the same spreadsheet twice at
			// once. Correctness does not depend on the lock.
			if lock := config.ObtainImportLock(businessId+":"+fh.Filename, time.Minute); lock != nil {
				defer lock.Release(c.Request.Context())
			}

			batch, err := workflow.ImportMemoria(app.DB(), app.logger, c.Request.Context(), businessId, fh.Filename, bytes.NewReader(data))
			result := memoriaFileResult{Filename: fh.Filename}
			if batch != nil {
				result.ImportBatchId = batch.ID
				result.Status = string(batch.Status)
				result.ImportedCount = batch.ImportedCount
				result.ErrorCount = batch.ErrorCount
				result.TotalCount = batch.TotalCount
			}
			if err != nil {
				result.Message = err.Error()
			}
			results = append(results, result)
		}

		c.JSON(http.StatusOK, gin.H{"data": results})
	}
}
