package chat

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/generator"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/lang"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/prompt"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/retriever"
)

// emptyMessageReply is streamed back when the user sends a blank message.
const emptyMessageReply = "Please type a message."

// traceNotice is the fixed trace payload sent while retrieval runs.
const traceNotice = "Thinking..."

// streamBuffer bounds the event channel so a slow client applies backpressure
// to the producer instead of growing memory.
const streamBuffer = 16

// errClientGone aborts generation once the consumer stops reading.
var errClientGone = errors.New("client disconnected")

// Settings are the per-deployment defaults a request may partially override.
type Settings struct {
	DefaultK         int
	MaxK             int
	UseMMR           bool
	FetchK           int
	MMRLambda        float64
	MinScore         float64
	MaxCharsPerChunk int
	IncludeCitations bool
	Languages        []string
	DefaultLanguage  string
}

// ChatEvent describes one completed exchange for usage recording.
type ChatEvent struct {
	ConversationID string
	MessageID      string
	Language       string
	Question       string
	Response       string
	K              int
	UseMMR         bool
	FetchK         int
	MMRLambda      float64
	Sources        []models.SourceRef
}

// UsageRecorder receives one record per completed chat exchange.
type UsageRecorder interface {
	RecordChat(event ChatEvent) error
}

// Searcher retrieves context chunks for a question.
type Searcher interface {
	Search(ctx context.Context, query, lang string, opts retriever.Options) ([]models.RetrievedHit, error)
}

// Service answers questions as a stream of events.
type Service struct {
	settings  Settings
	retriever Searcher
	generator generator.TokenGenerator
	history   *History
	recorder  UsageRecorder // may be nil
	logger    *zap.Logger
}

// NewService wires the chat pipeline. recorder may be nil to disable usage
// recording.
func NewService(settings Settings, r Searcher, g generator.TokenGenerator, h *History, recorder UsageRecorder, logger *zap.Logger) *Service {
	return &Service{
		settings:  settings,
		retriever: r,
		generator: g,
		history:   h,
		recorder:  recorder,
		logger:    logger,
	}
}

// Stream processes one chat request and returns its event stream. The channel
// is closed when the exchange finishes; every stream ends with a done event
// unless the context is cancelled first.
func (s *Service) Stream(ctx context.Context, req models.ChatRequest) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent, streamBuffer)
	go func() {
		defer close(events)
		s.run(ctx, req, events)
	}()
	return events
}

func (s *Service) run(ctx context.Context, req models.ChatRequest, events chan<- models.StreamEvent) {
	emit := func(evt models.StreamEvent) bool {
		select {
		case events <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		if emit(models.StreamEvent{Type: models.EventChunk, Data: emptyMessageReply}) {
			emit(models.StreamEvent{Type: models.EventDone, Data: models.DoneData})
		}
		return
	}

	if !emit(models.StreamEvent{Type: models.EventTrace, Data: traceNotice}) {
		return
	}

	language := lang.Resolve(req.Language, message, s.settings.Languages, s.settings.DefaultLanguage)
	opts := s.retrievalOptions(req)

	hits, err := s.retriever.Search(ctx, message, language, opts)
	if err != nil {
		s.logger.Error("retrieval failed",
			zap.String("conversation_id", conversationID),
			zap.String("lang", language),
			zap.Error(err))
		s.fail(emit, "retrieval failed")
		return
	}

	if s.includeCitations(req) {
		if !emit(models.StreamEvent{Type: models.EventSources, Data: encodeSources(hits)}) {
			return
		}
	}

	priorTurns := s.history.Turns(conversationID)
	messages := prompt.BuildMessages(message, hits, language, opts.MaxChars, priorTurns)
	s.history.Append(conversationID, models.ConversationTurn{Role: models.RoleUser, Content: message})

	var answer strings.Builder
	err = s.generator.Stream(ctx, messages, func(token string) error {
		answer.WriteString(token)
		if !emit(models.StreamEvent{Type: models.EventChunk, Data: token}) {
			return errClientGone
		}
		return nil
	})
	if errors.Is(err, errClientGone) || ctx.Err() != nil {
		// Consumer is gone; nothing may be emitted after this point.
		return
	}
	if err != nil {
		s.logger.Error("generation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		s.fail(emit, "answer generation failed")
		return
	}

	response := StripStructuredBlock(answer.String())
	s.history.Append(conversationID, models.ConversationTurn{
		Role:    models.RoleAssistant,
		Content: response,
	})
	emit(models.StreamEvent{Type: models.EventDone, Data: models.DoneData})

	s.record(ChatEvent{
		ConversationID: conversationID,
		MessageID:      uuid.NewString(),
		Language:       language,
		Question:       message,
		Response:       response,
		K:              opts.K,
		UseMMR:         opts.UseMMR,
		FetchK:         opts.FetchK,
		MMRLambda:      opts.Lambda,
		Sources:        sourceRefs(hits),
	})
}

// fail emits an error event followed by the terminal done event.
func (s *Service) fail(emit func(models.StreamEvent) bool, message string) {
	if emit(models.StreamEvent{Type: models.EventError, Data: message}) {
		emit(models.StreamEvent{Type: models.EventDone, Data: models.DoneData})
	}
}

func (s *Service) record(event ChatEvent) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordChat(event); err != nil {
		s.logger.Warn("usage recording failed", zap.Error(err))
	}
}

// retrievalOptions merges the deployment defaults with request overrides.
func (s *Service) retrievalOptions(req models.ChatRequest) retriever.Options {
	opts := retriever.Options{
		K:        s.settings.DefaultK,
		FetchK:   s.settings.FetchK,
		UseMMR:   s.settings.UseMMR,
		Lambda:   s.settings.MMRLambda,
		MinScore: s.settings.MinScore,
		MaxChars: s.settings.MaxCharsPerChunk,
	}
	if req.K != nil {
		opts.K = *req.K
	}
	if opts.K > s.settings.MaxK && s.settings.MaxK > 0 {
		opts.K = s.settings.MaxK
	}
	if req.FetchK != nil {
		opts.FetchK = *req.FetchK
	}
	if req.UseMMR != nil {
		opts.UseMMR = *req.UseMMR
	}
	if req.MMRLambda != nil {
		opts.Lambda = *req.MMRLambda
	}
	if req.MaxCharsPerChunk != nil {
		opts.MaxChars = *req.MaxCharsPerChunk
	}
	return opts
}

func (s *Service) includeCitations(req models.ChatRequest) bool {
	if req.IncludeCitations != nil {
		return *req.IncludeCitations
	}
	return s.settings.IncludeCitations
}

func sourceRefs(hits []models.RetrievedHit) []models.SourceRef {
	refs := make([]models.SourceRef, len(hits))
	for i, h := range hits {
		refs[i] = models.SourceRef{ID: h.ChunkID, Source: h.Source, Score: h.Score}
	}
	return refs
}

// encodeSources renders hits as the sources event payload.
func encodeSources(hits []models.RetrievedHit) string {
	data, err := json.Marshal(sourceRefs(hits))
	if err != nil {
		return "[]"
	}
	return string(data)
}

var structuredBlock = regexp.MustCompile(`(?s)<json>.*?</json>`)

// StripStructuredBlock removes the trailing machine-readable block from an
// answer so stored history stays plain text.
func StripStructuredBlock(answer string) string {
	return strings.TrimSpace(structuredBlock.ReplaceAllString(answer, ""))
}
