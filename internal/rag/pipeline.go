package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nutricare/nutricare/internal/llm"
)

const tracerName = "github.com/nutricare/nutricare/rag"

// Retriever returns the chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Chunk, error)
}

// IndexRetriever embeds the query and searches an Index.
type IndexRetriever struct {
	index    *Index
	embedder llm.Embedder
	params   SearchParams
}

// NewIndexRetriever creates a retriever over idx.
func NewIndexRetriever(idx *Index, embedder llm.Embedder, params SearchParams) *IndexRetriever {
	return &IndexRetriever{index: idx, embedder: embedder, params: params}
}

// Retrieve embeds query and runs an MMR search. Every failure wraps
// ErrRetrievalFailure.
func (r *IndexRetriever) Retrieve(ctx context.Context, query string) ([]Chunk, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrievalFailure, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embed query: got %d vectors", ErrRetrievalFailure, len(vectors))
	}
	return r.index.Search(vectors[0], r.params)
}

// PipelineConfig holds the pipeline collaborators.
type PipelineConfig struct {
	Retriever Retriever
	Generator llm.Generator
	// Template defaults to CaregiverReport.
	Template Template
	// Language is the translation target (default: DefaultLanguage).
	Language string
	Logger   zerolog.Logger
}

// Pipeline runs retrieve, assemble, prompt and generate, plus the optional
// summarize and translate passes. It holds no per-request state.
type Pipeline struct {
	retriever Retriever
	generator llm.Generator
	template  Template
	language  string
	logger    zerolog.Logger
}

// NewPipeline creates a new pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Template == "" {
		cfg.Template = CaregiverReport
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Pipeline{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		template:  cfg.Template,
		language:  cfg.Language,
		logger:    cfg.Logger,
	}
}

// WithTemplate returns a copy of p that answers with t.
func (p *Pipeline) WithTemplate(t Template) *Pipeline {
	cp := *p
	cp.template = t
	return &cp
}

// Language returns the translation target.
func (p *Pipeline) Language() string { return p.language }

// Answer retrieves context for question and generates the first-pass answer.
// An empty retrieval still produces a prompt and a model call.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.retrieve")
	chunks, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		span.End()
		return "", err
	}
	span.SetAttributes(attribute.Int("rag.chunks", len(chunks)))
	span.End()

	p.logger.Debug().Int("chunks", len(chunks)).Msg("context retrieved")

	return p.generate(ctx, "answer", p.template.Render(question, AssembleContext(chunks)))
}

// Summarize compresses text to the bounded report format.
func (p *Pipeline) Summarize(ctx context.Context, text string) (string, error) {
	return p.generate(ctx, "summarize", SummarizePrompt(text))
}

// Translate renders text in the pipeline language.
func (p *Pipeline) Translate(ctx context.Context, text string) (string, error) {
	return p.generate(ctx, "translate", TranslatePrompt(text, p.language))
}

// SummarizeAndTranslate summarizes and translates in a single model call.
func (p *Pipeline) SummarizeAndTranslate(ctx context.Context, text string) (string, error) {
	return p.generate(ctx, "summarize_translate", SummarizeTranslatePrompt(text, p.language))
}

// Recommend answers question and summarizes the answer.
func (p *Pipeline) Recommend(ctx context.Context, question string) (string, error) {
	answer, err := p.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return p.Summarize(ctx, answer)
}

// RecommendTranslated answers question and translates the answer.
func (p *Pipeline) RecommendTranslated(ctx context.Context, question string) (string, error) {
	answer, err := p.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return p.Translate(ctx, answer)
}

func (p *Pipeline) generate(ctx context.Context, stage, prompt string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.generate")
	defer span.End()
	span.SetAttributes(attribute.String("rag.stage", stage), attribute.Int("rag.prompt_chars", len(prompt)))

	out, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		p.logger.Warn().Err(err).Str("stage", stage).Msg("generation failed")
		if !errors.Is(err, llm.ErrGenerationUnavailable) {
			err = llm.Unavailable(stage, err)
		}
		return "", err
	}
	return out, nil
}
