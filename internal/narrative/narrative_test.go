package narrative

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

type mockGenerator struct {
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)
	prompts      []string
}

func (m *mockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}
	return "All good.", nil
}

func sampleTable() *domain.Table {
	var rows []domain.Transaction
	for m := time.January; m <= time.April; m++ {
		d := civil.Date{Year: 2024, Month: m, Day: 10}
		rows = append(rows,
			domain.NewTransaction(d, "PARACETAMOL 500MG", 10, 5, 50, "", domain.CategoryAcute),
			domain.NewTransaction(d, "METFORMIN 500MG", 2, 20, 40, "", domain.CategoryChronic),
		)
	}
	return &domain.Table{Rows: rows}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(BuildContext(sampleTable()), "  What should I reorder?  ")

	for _, want := range []string{
		"Total Revenue: GHS 360.00",
		"Unique Products: 2",
		"PARACETAMOL 500MG",
		"**Monthly Revenue Trend:**",
		"Dead Stock (60+ days): 0",
		"please answer the following question:\n\nWhat should I reorder?\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestService_Ask(t *testing.T) {
	gen := &mockGenerator{}
	svc := NewService(gen, time.Second, zerolog.New(io.Discard))

	got, err := svc.Ask(context.Background(), sampleTable(), "How am I doing?")
	if err != nil {
		t.Fatalf("Ask() unexpected error: %v", err)
	}
	if got.Answer != "All good." {
		t.Errorf("Answer = %q", got.Answer)
	}
	if len(got.ContextUsed) != len(ContextSections) || len(got.Suggestions) != 5 {
		t.Errorf("Ask() = %+v", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "How am I doing?") {
		t.Errorf("prompts = %v", gen.prompts)
	}
}

func TestService_AskErrors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name       string
		gen        Generator
		question   string
		wantErr    error
		wantStatus int
	}{
		{
			name:     "not configured",
			question: "hi",
			wantErr:  ErrNotConfigured,
		},
		{
			name:     "empty question",
			gen:      &mockGenerator{},
			question: "   ",
			wantErr:  ErrEmptyQuestion,
		},
		{
			name: "upstream failure",
			gen: &mockGenerator{GenerateFunc: func(ctx context.Context, system, prompt string) (string, error) {
				return "", errBoom
			}},
			question:   "hi",
			wantErr:    ErrUpstreamUnavailable,
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "timeout",
			gen: &mockGenerator{GenerateFunc: func(ctx context.Context, system, prompt string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			}},
			question:   "hi",
			wantErr:    ErrUpstreamUnavailable,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.gen, 20*time.Millisecond, zerolog.New(io.Discard))
			_, err := svc.Ask(context.Background(), sampleTable(), tt.question)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Ask() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStatus == 0 {
				return
			}
			var upstream *UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("Ask() error %v is not an UpstreamError", err)
			}
			if upstream.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", upstream.StatusCode, tt.wantStatus)
			}
			if upstream.Timeout != (tt.wantStatus == http.StatusGatewayTimeout) {
				t.Errorf("Timeout = %v", upstream.Timeout)
			}
		})
	}
}

func TestNewService_NilGenerator(t *testing.T) {
	svc := NewService(nil, 0, zerolog.New(io.Discard))
	if svc.Enabled() {
		t.Error("Enabled() = true for nil generator")
	}
	if svc.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", svc.timeout, DefaultTimeout)
	}
}

func TestService_Diagnose(t *testing.T) {
	t.Run("without generator", func(t *testing.T) {
		svc := NewService(nil, 0, zerolog.New(io.Discard))
		d, err := svc.Diagnose(context.Background(), sampleTable())
		if err != nil {
			t.Fatalf("Diagnose() unexpected error: %v", err)
		}
		if d.Answer != nil || d.Preliminary == nil {
			t.Fatalf("Diagnose() = %+v, want preliminary only", d)
		}
		if len(d.Preliminary.Recommendations) == 0 {
			t.Error("preliminary analysis has no recommendations")
		}
	})

	t.Run("with generator", func(t *testing.T) {
		gen := &mockGenerator{}
		svc := NewService(gen, time.Second, zerolog.New(io.Discard))
		d, err := svc.Diagnose(context.Background(), sampleTable())
		if err != nil {
			t.Fatalf("Diagnose() unexpected error: %v", err)
		}
		if d.Answer == nil || d.Preliminary != nil {
			t.Fatalf("Diagnose() = %+v, want answer only", d)
		}
		if !strings.Contains(gen.prompts[0], "Overall Health Assessment") {
			t.Error("diagnosis question not sent")
		}
	})
}

func TestSuggestedQuestions(t *testing.T) {
	cats := SuggestedQuestions()
	want := []string{"Performance", "Products", "Inventory", "Strategy", "Diagnosis"}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories, want %d", len(cats), len(want))
	}
	for i, c := range cats {
		if c.Name != want[i] {
			t.Errorf("category %d = %s, want %s", i, c.Name, want[i])
		}
		if len(c.Questions) != 3 {
			t.Errorf("%s has %d questions", c.Name, len(c.Questions))
		}
	}
}
