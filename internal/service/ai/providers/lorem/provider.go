package lorem

import (
	"context"
	"strings"

	loremgen "github.com/bozaro/golorem"

	"elenchus/internal/service/ai"
)

// Provider is a mock text provider that generates lorem ipsum. Used for
// development and tests without real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// Generate returns a few lorem ipsum paragraphs regardless of the prompt.
// The credential is ignored.
func (p *Provider) Generate(ctx context.Context, _ string, req *ai.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 0; i < 2; i++ {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.generator.Paragraph(2, 4))
	}
	return sb.String(), nil
}
