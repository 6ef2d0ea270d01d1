package search

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/baptism-gallery/internal/constants"
	"github.com/kozaktomas/baptism-gallery/internal/database"
)

// BuildRankingPrompt asks the model to order candidates by similarity to
// description and reply with a bare comma-separated ID list.
func BuildRankingPrompt(description string, candidates []database.MediaRecord, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dada esta descrição de uma imagem: \"%s\"\n\n", description)
	fmt.Fprintf(&sb, "Compare com estas fotos e retorne os IDs das %d fotos mais similares, ordenadas por relevância (mais similar primeiro):\n\n", limit)

	for i := range candidates {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(candidateLine(i, &candidates[i]))
	}

	sb.WriteString("\n\nRetorne APENAS os IDs das fotos mais similares, separados por vírgula. Exemplo: uuid1,uuid2,uuid3")
	return sb.String()
}

func candidateLine(i int, rec *database.MediaRecord) string {
	text := rec.SearchText()
	if text == "" {
		text = constants.NoDescription
	}
	tags := strings.Join(rec.Tags, ", ")
	if tags == "" {
		tags = constants.NoTags
	}
	return fmt.Sprintf("%d. ID: %s - %s - Tags: %s", i, rec.ID, text, tags)
}

// ParseRankedIDs maps the model's reply back onto candidates. Tokens are
// split on commas and trimmed; empty, unknown and repeated IDs are dropped.
// Order is preserved and at most limit records are returned.
func ParseRankedIDs(raw string, candidates []database.MediaRecord, limit int) []database.MediaRecord {
	byID := make(map[string]int, len(candidates))
	for i := range candidates {
		if _, ok := byID[candidates[i].ID]; !ok {
			byID[candidates[i].ID] = i
		}
	}

	results := []database.MediaRecord{}
	seen := make(map[string]bool)
	for token := range strings.SplitSeq(raw, ",") {
		if limit > 0 && len(results) >= limit {
			break
		}
		id := strings.TrimSpace(token)
		if id == "" || seen[id] {
			continue
		}
		idx, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = true
		results = append(results, candidates[idx])
	}
	return results
}
