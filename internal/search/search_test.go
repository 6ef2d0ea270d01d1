package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/baptism-gallery/internal/ai"
	aimock "github.com/kozaktomas/baptism-gallery/internal/ai/mock"
	"github.com/kozaktomas/baptism-gallery/internal/database"
	"github.com/kozaktomas/baptism-gallery/internal/database/mock"
)

func records(ids ...string) []database.MediaRecord {
	out := make([]database.MediaRecord, len(ids))
	for i, id := range ids {
		out[i] = database.MediaRecord{ID: id, MediaType: database.MediaPhoto, Tags: []string{}}
	}
	return out
}

func ids(recs []database.MediaRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestParseRankedIDs(t *testing.T) {
	candidates := records("id1", "id2", "id3", "id4", "id5", "id6", "id7", "id8")

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain", "id3,id1", []string{"id3", "id1"}},
		{"whitespace", "  id2 ,\n id4\t", []string{"id2", "id4"}},
		{"empty tokens", ",,id5,,", []string{"id5"}},
		{"unknown and duplicates", "id3,id7,id1,id3,idBOGUS", []string{"id3", "id7", "id1"}},
		{"more than six", "id8,id7,id6,id5,id4,id3,id2,id1", []string{"id8", "id7", "id6", "id5", "id4", "id3"}},
		{"duplicates do not consume slots", "id1,id1,id2,id3,id4,id5,id6", []string{"id1", "id2", "id3", "id4", "id5", "id6"}},
		{"empty reply", "", []string{}},
		{"prose only", "Desculpe, não encontrei fotos", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ParseRankedIDs(tt.raw, candidates, 6))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ParseRankedIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseRankedIDs_ReturnsFullRecords(t *testing.T) {
	candidates := []database.MediaRecord{
		{ID: "a", URL: "https://cdn/a.jpg", Description: "Padre", Tags: []string{"padre"}},
	}
	got := ParseRankedIDs("a", candidates, 6)
	if len(got) != 1 || got[0].URL != "https://cdn/a.jpg" || got[0].Description != "Padre" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestBuildRankingPrompt(t *testing.T) {
	candidates := []database.MediaRecord{
		{ID: "p1", Description: "Bebê na pia batismal", Tags: []string{"batismo", "bebê"}},
		{ID: "p2"},
		{ID: "p3", AIDescription: "Família reunida"},
	}
	prompt := BuildRankingPrompt("Criança vestida de branco", candidates, 6)

	wantLines := []string{
		`Dada esta descrição de uma imagem: "Criança vestida de branco"`,
		"retorne os IDs das 6 fotos mais similares",
		"0. ID: p1 - Bebê na pia batismal - Tags: batismo, bebê",
		"1. ID: p2 - Sem descrição - Tags: Sem tags",
		"2. ID: p3 - Família reunida - Tags: Sem tags",
		"Retorne APENAS os IDs das fotos mais similares, separados por vírgula.",
	}
	for _, want := range wantLines {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}

func TestCandidateLine_DescriptionFallbacks(t *testing.T) {
	tests := []struct {
		name string
		rec  database.MediaRecord
		want string
	}{
		{"manual description wins", database.MediaRecord{ID: "a", Description: "Manual", AIDescription: "IA"}, "0. ID: a - Manual - Tags: Sem tags"},
		{"ai description when manual is empty", database.MediaRecord{ID: "b", AIDescription: "IA"}, "0. ID: b - IA - Tags: Sem tags"},
		{"placeholder when both are empty", database.MediaRecord{ID: "c", Tags: []string{"igreja"}}, "0. ID: c - Sem descrição - Tags: igreja"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := candidateLine(0, &tt.rec); got != tt.want {
				t.Errorf("candidateLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterByText(t *testing.T) {
	recs := []database.MediaRecord{
		{ID: "1", Description: "Batismo na Igreja São José", Tags: []string{}},
		{ID: "2", AIDescription: "Padre com água benta", Tags: []string{}},
		{ID: "3", Tags: []string{"Família", "festa"}},
		{ID: "4", Description: "Bolo", Tags: []string{"doces"}},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"sao jose", []string{"1"}},
		{"AGUA", []string{"2"}},
		{"familia", []string{"3"}},
		{"  bolo ", []string{"4"}},
		{"inexistente", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(FilterByText(recs, tt.query))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("FilterByText(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilterEvents(t *testing.T) {
	events := []database.EventSummary{
		{EventRecord: database.EventRecord{ID: "e1", Title: "Batizado da Maria"}},
		{EventRecord: database.EventRecord{ID: "e2", Title: "Batizado do João", Description: "Paróquia Nossa Senhora"}},
	}
	got := FilterEvents(events, "joao")
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("unexpected filter result: %+v", got)
	}
	if got := FilterEvents(events, "paroquia"); len(got) != 1 {
		t.Errorf("expected description match, got %d", len(got))
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Conceição", "Conceicao"},
		{"vídeo", "video"},
		{"água benta", "agua benta"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RemoveDiacritics(tt.input); got != tt.expected {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func newStore(t *testing.T, n int) *mock.MockStore {
	t.Helper()
	store := mock.NewMockStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range n {
		store.AddMedia(database.MediaRecord{
			ID:          fmt.Sprintf("id%d", i+1),
			MediaType:   database.MediaPhoto,
			Description: fmt.Sprintf("foto %d", i+1),
			UploadedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}
	return store
}

func TestSearchByImage(t *testing.T) {
	store := newStore(t, 8)
	p := aimock.NewProvider()
	p.Ranking = "id3, id7 ,id1,id3,idBOGUS"

	svc := NewService(p, store, nil, Config{})
	resp, err := svc.SearchByImage(context.Background(), "aGVsbG8=")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}

	if got := strings.Join(ids(resp.Results), ","); got != "id3,id7,id1" {
		t.Errorf("results = %s", got)
	}
	if resp.Description != p.Description {
		t.Errorf("description = %q", resp.Description)
	}
	if resp.Message != "" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if len(p.DescribeCalls) != 1 || !strings.HasPrefix(p.DescribeCalls[0], "data:image/jpeg;base64,") {
		t.Errorf("expected bare base64 to be wrapped, got %v", p.DescribeCalls)
	}
	if len(p.Prompts) != 1 {
		t.Fatalf("expected one ranking call, got %d", len(p.Prompts))
	}
	// Newest upload first.
	if !strings.Contains(p.Prompts[0], "0. ID: id8 - foto 8") {
		t.Errorf("expected newest photo first in prompt:\n%s", p.Prompts[0])
	}
}

func TestSearchByImage_RanksVideos(t *testing.T) {
	store := newStore(t, 2)
	store.AddMedia(database.MediaRecord{
		ID:          "vid",
		MediaType:   database.MediaVideo,
		Description: "Vídeo do batismo",
		UploadedAt:  time.Now(),
	})
	p := aimock.NewProvider()
	p.Ranking = "vid,id1"

	resp, err := NewService(p, store, nil, Config{}).SearchByImage(context.Background(), "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}
	if got := strings.Join(ids(resp.Results), ","); got != "vid,id1" {
		t.Errorf("results = %s", got)
	}
	if !strings.Contains(p.Prompts[0], "0. ID: vid - Vídeo do batismo") {
		t.Errorf("expected video as newest candidate:\n%s", p.Prompts[0])
	}
}

func TestSearchByImage_OnlyVideosInGallery(t *testing.T) {
	store := mock.NewMockStore()
	store.AddMedia(database.MediaRecord{ID: "v1", MediaType: database.MediaVideo, Description: "batismo", UploadedAt: time.Now()})
	p := aimock.NewProvider()
	p.Ranking = "v1"

	resp, err := NewService(p, store, nil, Config{}).SearchByImage(context.Background(), "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}
	if resp.Message != "" {
		t.Errorf("unexpected empty-gallery message %q", resp.Message)
	}
	if len(p.Prompts) != 1 {
		t.Fatalf("expected one ranking call, got %d", len(p.Prompts))
	}
	if got := strings.Join(ids(resp.Results), ","); got != "v1" {
		t.Errorf("results = %s", got)
	}
}

func TestSearchByImage_PhotosOnly(t *testing.T) {
	store := newStore(t, 2)
	store.AddMedia(database.MediaRecord{ID: "vid", MediaType: database.MediaVideo, UploadedAt: time.Now()})
	p := aimock.NewProvider()
	p.Ranking = "vid,id2"

	resp, err := NewService(p, store, nil, Config{PhotosOnly: true}).SearchByImage(context.Background(), "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}
	if strings.Contains(p.Prompts[0], "ID: vid") {
		t.Error("videos must not be ranked when PhotosOnly is set")
	}
	if got := strings.Join(ids(resp.Results), ","); got != "id2" {
		t.Errorf("results = %s", got)
	}
}

func TestSearchByImage_MaxCandidates(t *testing.T) {
	store := newStore(t, 5)
	p := aimock.NewProvider()
	p.Ranking = "id1,id5"

	resp, err := NewService(p, store, nil, Config{MaxCandidates: 2}).SearchByImage(context.Background(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}
	if got := strings.Join(ids(resp.Results), ","); got != "id5" {
		t.Errorf("expected only the newest candidates to be rankable, got %s", got)
	}
}

func TestSearchByImage_EmptyGallery(t *testing.T) {
	p := aimock.NewProvider()
	resp, err := NewService(p, mock.NewMockStore(), nil, Config{}).SearchByImage(context.Background(), "data:image/jpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("SearchByImage failed: %v", err)
	}
	if len(resp.Results) != 0 || resp.Results == nil {
		t.Errorf("expected empty non-nil results, got %#v", resp.Results)
	}
	if resp.Message != "Nenhuma foto encontrada no banco de dados ainda." {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Description != p.Description {
		t.Errorf("description = %q", resp.Description)
	}
	if len(p.Prompts) != 0 {
		t.Error("ranking must not be called for an empty gallery")
	}
}

func TestSearchByImage_Errors(t *testing.T) {
	dbErr := errors.New("connection refused")
	aiErr := errors.New("AI analysis failed: 402")

	tests := []struct {
		name    string
		payload string
		setup   func(p *aimock.Provider, s *mock.MockStore)
		nilAI   bool
		wantErr error
	}{
		{name: "empty payload", payload: "", wantErr: ErrImageRequired},
		{name: "no provider", payload: "x", nilAI: true, wantErr: ai.ErrNotConfigured},
		{
			name: "describe fails", payload: "x",
			setup:   func(p *aimock.Provider, _ *mock.MockStore) { p.DescribeError = aiErr },
			wantErr: aiErr,
		},
		{
			name: "store fails", payload: "x",
			setup:   func(_ *aimock.Provider, s *mock.MockStore) { s.ListMediaError = dbErr },
			wantErr: dbErr,
		},
		{
			name: "ranking fails", payload: "x",
			setup:   func(p *aimock.Provider, _ *mock.MockStore) { p.CompleteError = aiErr },
			wantErr: aiErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, 2)
			p := aimock.NewProvider()
			if tt.setup != nil {
				tt.setup(p, store)
			}
			var provider ai.Provider = p
			if tt.nilAI {
				provider = nil
			}

			resp, err := NewService(provider, store, nil, Config{}).SearchByImage(context.Background(), tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if resp != nil {
				t.Errorf("expected no partial response, got %+v", resp)
			}
		})
	}
}

func TestSearchByImage_DoesNotMutateStore(t *testing.T) {
	store := newStore(t, 3)
	p := aimock.NewProvider()
	p.Ranking = "id1"

	if _, err := NewService(p, store, nil, Config{}).SearchByImage(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if store.MediaCount() != 3 || store.InsertCalls != 0 {
		t.Error("search must not modify the store")
	}
}
