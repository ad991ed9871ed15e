package service

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	rendererhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/stratumlab/sowforge/internal/model"
)

// ExportService renders a generated artifact body (markdown) into a
// standalone HTML page.
type ExportService struct {
	sows *SOWService
	md   goldmark.Markdown
}

func NewExportService(sows *SOWService) *ExportService {
	return &ExportService{
		sows: sows,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererhtml.WithHardWraps()),
		),
	}
}

func (s *ExportService) ExportHTML(ctx context.Context, userID, sowID string) (*model.SOWDocument, string, error) {
	sow, err := s.sows.Get(ctx, userID, sowID)
	if err != nil {
		return nil, "", err
	}
	html, err := s.render(sow)
	if err != nil {
		return nil, "", err
	}
	return sow, html, nil
}

func (s *ExportService) render(sow *model.SOWDocument) (string, error) {
	var body bytes.Buffer
	if err := s.md.Convert([]byte(sow.Body), &body); err != nil {
		return "", err
	}
	var page bytes.Buffer
	title := html.EscapeString(sow.Title)
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", title)
	fmt.Fprintf(&page, "<h1>%s</h1>\n", title)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}
