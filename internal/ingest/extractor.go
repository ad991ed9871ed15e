package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

// Extract pulls plain text out of an uploaded file. The format set is
// closed: pdf, docx, txt and csv, dispatched on the file extension.
// Extraction facts (page/paragraph/row counts) end up in the document
// metadata so they can be traced through every chunk.
func Extract(fileName string, data []byte) (*model.SourceDocument, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		return extractPDF(fileName, data)
	case ".docx":
		return extractDocx(fileName, data)
	case ".txt":
		return &model.SourceDocument{
			FileName: fileName,
			Format:   "txt",
			Content:  string(data),
			Metadata: map[string]string{},
		}, nil
	case ".csv":
		return extractCSV(fileName, data)
	default:
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnsupportedFormat, ext)
	}
}

func extractPDF(fileName string, data []byte) (*model.SourceDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	var pages []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return &model.SourceDocument{
		FileName: fileName,
		Format:   "pdf",
		Content:  strings.Join(pages, "\n"),
		Metadata: map[string]string{"page_count": strconv.Itoa(len(pages))},
	}, nil
}

func extractDocx(fileName string, data []byte) (*model.SourceDocument, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			text := strings.TrimSpace(fmt.Sprint(item))
			if text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
	}
	return &model.SourceDocument{
		FileName: fileName,
		Format:   "docx",
		Content:  strings.Join(paragraphs, "\n"),
		Metadata: map[string]string{"paragraphs": strconv.Itoa(len(paragraphs))},
	}, nil
}

func extractCSV(fileName string, data []byte) (*model.SourceDocument, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	var rows []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, strings.Join(record, ", "))
	}
	return &model.SourceDocument{
		FileName: fileName,
		Format:   "csv",
		Content:  strings.Join(rows, "\n"),
		Metadata: map[string]string{"rows": strconv.Itoa(len(rows))},
	}, nil
}
