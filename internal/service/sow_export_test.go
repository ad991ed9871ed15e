package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/retry"
)

func TestExportHTML(t *testing.T) {
	store := &fakeSOWStore{}
	gen := &fakeGenerator{response: "# Scope\n\n- item one\n- item two"}
	svc := NewSOWService(store, nil, gen, retry.NewRunner(1, retry.NoDelay()))
	sow, err := svc.Generate(context.Background(), "user-1", &model.SOWRequest{
		ProjectID:    "p",
		Title:        "Engagement <Q3>",
		Requirements: []string{"r"},
	})
	if err != nil {
		t.Fatal(err)
	}

	export := NewExportService(svc)
	got, html, err := export.ExportHTML(context.Background(), "user-1", sow.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != sow.ID {
		t.Fatalf("exported wrong artifact: %s", got.ID)
	}
	if !strings.Contains(html, "<li>item one</li>") {
		t.Fatalf("markdown list not rendered:\n%s", html)
	}
	if !strings.Contains(html, "Engagement &lt;Q3&gt;") {
		t.Fatalf("title not escaped:\n%s", html)
	}
}

func TestExportHTMLUnknownArtifact(t *testing.T) {
	svc := NewSOWService(&fakeSOWStore{}, nil, nil, retry.NewRunner(1, retry.NoDelay()))
	export := NewExportService(svc)
	if _, _, err := export.ExportHTML(context.Background(), "user-1", "missing"); err == nil {
		t.Fatal("expected error for unknown artifact")
	}
}
