package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// VertexConfig holds Vertex AI connection settings.
type VertexConfig struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	ModelName       string
}

// VertexModel calls Gemini through Vertex AI.
type VertexModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertexModel creates the Vertex client and binds the generative model.
func NewVertexModel(ctx context.Context, cfg VertexConfig) (*VertexModel, error) {
	if cfg.ProjectID == "" {
		return nil, ErrModelNotConfigured
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("analysis: vertex client: %w", err)
	}
	return &VertexModel{client: client, model: client.GenerativeModel(cfg.ModelName)}, nil
}

// Generate sends prompt and joins the text parts of the first candidate.
func (m *VertexModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("analysis: generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("analysis: no candidates returned")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("analysis: empty completion")
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (m *VertexModel) Close() error {
	return m.client.Close()
}
