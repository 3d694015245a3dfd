package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nikita-bekish/qwen-analyzer/internal/classifier"
	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
	"github.com/nikita-bekish/qwen-analyzer/internal/prompt"
	"github.com/nikita-bekish/qwen-analyzer/internal/ranker"
)

// DefaultTopK is how many records retrieval returns unless configured.
const DefaultTopK = 8

// Analyzer composes classification, retrieval and prompt assembly into
// the end-to-end "ask a question" operation. It owns the in-memory index
// and the loaded profile for the lifetime of one session; nothing here
// is safe for concurrent use and nothing needs to be.
type Analyzer struct {
	classifier *classifier.Classifier
	assembler  *prompt.Assembler
	embedder   domain.Embedder
	chat       domain.ChatProvider
	index      []domain.EmbeddedRecord
	corpus     []domain.LogRecord
	topK       int
	log        *zap.Logger
}

func NewAnalyzer(index []domain.EmbeddedRecord, persona domain.Personalization, embedder domain.Embedder, chat domain.ChatProvider, topK int, log *zap.Logger) *Analyzer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}
	corpus := make([]domain.LogRecord, len(index))
	for i := range index {
		corpus[i] = index[i].Record
	}
	return &Analyzer{
		classifier: classifier.New(),
		assembler:  prompt.NewAssembler(persona),
		embedder:   embedder,
		chat:       chat,
		index:      index,
		corpus:     corpus,
		topK:       topK,
		log:        log,
	}
}

// Ask answers one question: classify, retrieve when the intent calls for
// it, assemble the prompt pair, then delegate to the chat provider with
// onToken forwarded unchanged. Embedding or chat failures propagate to
// the caller and end only this question, not the session.
func (a *Analyzer) Ask(ctx context.Context, question string, onToken func(string)) (string, error) {
	intent := a.classifier.Classify(question)
	a.log.Debug("question classified",
		zap.String("intent", intent.String()),
		zap.Int("corpus", len(a.corpus)),
	)

	var retrieved []domain.LogRecord
	if intent.NeedsRetrieval() {
		queryVec, err := a.embedder.Embed(ctx, question)
		if err != nil {
			return "", err
		}
		retrieved = ranker.Rank(queryVec, a.index, a.topK)
		a.log.Debug("records retrieved", zap.Int("count", len(retrieved)))
	}

	systemPrompt, userMessage := a.assembler.Assemble(intent, question, a.corpus, retrieved)
	return a.chat.Chat(ctx, systemPrompt, userMessage, onToken)
}
