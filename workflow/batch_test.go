package workflow

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// NOTE: DB-free. Archive expansion never touches storage.

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestExpandUploadedFiles_PlainFilesPassThrough(t *testing.T) {
	files := []UploadedFile{
		{Name: "cte1.xml", Data: []byte("<CTe/>")},
		{Name: "cte2.XML", Data: []byte("<CTe/>")},
	}

	documents, failures := ExpandUploadedFiles(files)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if len(documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(documents))
	}
	if documents[0].Name != "cte1.xml" {
		t.Errorf("expected cte1.xml first, got %s", documents[0].Name)
	}
}

func TestExpandUploadedFiles_ZipXmlEntriesOnly(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"lote/cte_a.xml": "<CTe/>",
		"lote/cte_b.XML": "<CTe/>",
		"leia-me.txt":    "ignorar",
		"planilha.xlsx":  "ignorar",
	})

	documents, failures := ExpandUploadedFiles([]UploadedFile{{Name: "lote.zip", Data: archive}})
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if len(documents) != 2 {
		t.Fatalf("expected 2 xml entries, got %d", len(documents))
	}
	for _, doc := range documents {
		if !strings.HasSuffix(strings.ToLower(doc.Name), ".xml") {
			t.Errorf("non-xml entry leaked: %s", doc.Name)
		}
	}
}

func TestExpandUploadedFiles_InvalidZip(t *testing.T) {
	documents, failures := ExpandUploadedFiles([]UploadedFile{
		{Name: "quebrado.zip", Data: []byte("isto não é um zip")},
		{Name: "valido.xml", Data: []byte("<CTe/>")},
	})

	if len(documents) != 1 || documents[0].Name != "valido.xml" {
		t.Fatalf("sibling file should survive a broken archive, got %+v", documents)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Success {
		t.Errorf("broken archive must not be a success")
	}
	if !strings.Contains(failures[0].Message, "ZIP inválido") {
		t.Errorf("expected invalid-zip message, got %q", failures[0].Message)
	}
}
