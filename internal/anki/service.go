package anki

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kpauljoseph/flashsheet/pkg/logger"
)

const (
	DefaultAnkiConnectURL = "http://localhost:8765"
	MaxRetries            = 3
	RetryDelay            = 500 * time.Millisecond
)

// Service delivers notes straight into a running Anki through the
// AnkiConnect add-on.
type Service struct {
	ankiConnectURL string
	client         *http.Client
	retryDelay     time.Duration
	logger         *logger.Logger
	modelChecked   bool
}

type ServiceOption func(*Service)

func WithURL(url string) ServiceOption {
	return func(s *Service) {
		if url != "" {
			s.ankiConnectURL = url
		}
	}
}

func WithRetryDelay(d time.Duration) ServiceOption {
	return func(s *Service) { s.retryDelay = d }
}

type AnkiConnectRequest struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params"`
}

type connectNote struct {
	DeckName  string                 `json:"deckName"`
	ModelName string                 `json:"modelName"`
	Fields    map[string]string      `json:"fields"`
	Options   map[string]interface{} `json:"options"`
	Tags      []string               `json:"tags"`
}

func NewService(logger *logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		ankiConnectURL: DefaultAnkiConnectURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		retryDelay:     RetryDelay,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CheckConnection(ctx context.Context) error {
	_, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "version",
		Version: ANKI_CONNECT_VERSION,
		Params:  map[string]interface{}{},
	})
	if err != nil {
		s.logger.Info("Error sending request to Anki: %v", err)
		return fmt.Errorf("could not connect to Anki. Please ensure:\n" +
			"1. Anki is running https://apps.ankiweb.net/#download\n" +
			"2. AnkiConnect add-on is installed (code: 2055492159) https://ankiweb.net/shared/info/2055492159\n" +
			"3. Anki has been restarted after installing AnkiConnect")
	}
	return nil
}

func (s *Service) CreateDeck(ctx context.Context, deckName string) error {
	s.logger.Info("Creating deck: %s", deckName)
	_, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "createDeck",
		Version: ANKI_CONNECT_VERSION,
		Params:  map[string]string{"deck": deckName},
	})
	return err
}

func (s *Service) ensureModelExists(ctx context.Context) error {
	if s.modelChecked {
		return nil
	}

	result, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "modelNames",
		Version: ANKI_CONNECT_VERSION,
		Params:  map[string]interface{}{},
	})
	if err != nil {
		return fmt.Errorf("failed to get models: %w", err)
	}

	var modelNames []string
	if err := json.Unmarshal(result, &modelNames); err != nil {
		return fmt.Errorf("failed to parse model names: %w", err)
	}

	for _, name := range modelNames {
		if name == ModelName {
			s.logger.Debug("%s model already exists", ModelName)
			s.modelChecked = true
			return nil
		}
	}

	_, err = s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "createModel",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]interface{}{
			"modelName":     ModelName,
			"inOrderFields": Fields,
			"css":           ModelCSS,
			"cardTemplates": []map[string]interface{}{
				{
					"Name":  TemplateName,
					"Front": QuestionTemplate,
					"Back":  AnswerTemplate,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	s.logger.Info("Created %s model", ModelName)
	s.modelChecked = true
	return nil
}

func (s *Service) findExistingNoteByHash(ctx context.Context, hash string) (int64, error) {
	result, err := s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "findNotes",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]interface{}{
			"query": fmt.Sprintf("%s:%s", HashField, hash),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to search notes: %w", err)
	}

	var noteIds []int64
	if err := json.Unmarshal(result, &noteIds); err != nil {
		return 0, fmt.Errorf("failed to parse note IDs: %w", err)
	}
	if len(noteIds) > 0 {
		return noteIds[0], nil
	}
	return 0, nil
}

// AddNote uploads the note's media and adds it to deckName. A note whose hash
// is already in the collection is skipped and reported as not added.
func (s *Service) AddNote(ctx context.Context, deckName string, note Note) (bool, error) {
	if err := s.ensureModelExists(ctx); err != nil {
		return false, fmt.Errorf("failed to ensure model exists: %w", err)
	}

	s.logger.Debug("Processing card %d for deck: %s (hash %s)", note.Card, deckName, note.Hash)

	existingNoteId, err := s.findExistingNoteByHash(ctx, note.Hash)
	if err != nil {
		s.logger.Debug("Warning: failed to check for existing note: %v", err)
	} else if existingNoteId != 0 {
		s.logger.Info("Skipping duplicate card %d with hash: %s", note.Card, note.Hash)
		return false, nil
	}

	for _, path := range note.Media {
		if err := s.storeMediaFile(ctx, path); err != nil {
			return false, err
		}
	}

	_, err = s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "addNote",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]interface{}{
			"note": connectNote{
				DeckName:  deckName,
				ModelName: ModelName,
				Fields: map[string]string{
					QuestionField: note.Front,
					AnswerField:   note.Back,
					HashField:     note.Hash,
				},
				Options: map[string]interface{}{"allowDuplicate": false},
				Tags:    []string{Tag, TagForDeck(deckName)},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to add note: %w", err)
	}

	s.logger.Debug("Successfully added card %d", note.Card)
	return true, nil
}

// AddAllNotes adds every note and keeps going past failures. The error
// reports how many notes failed.
func (s *Service) AddAllNotes(ctx context.Context, deckName string, notes []Note) (added int, err error) {
	var failCount int
	for _, note := range notes {
		if ctx.Err() != nil {
			return added, ctx.Err()
		}
		ok, err := s.AddNote(ctx, deckName, note)
		if err != nil {
			s.logger.Debug("Error adding card %d: %v", note.Card, err)
			failCount++
			continue
		}
		if ok {
			added++
		}
	}

	if failCount > 0 {
		return added, fmt.Errorf("failed to add %d out of %d notes", failCount, len(notes))
	}
	s.logger.Debug("Successfully added %d notes", added)
	return added, nil
}

func (s *Service) storeMediaFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read media file %s: %w", path, err)
	}
	filename := filepath.Base(path)
	_, err = s.sendRequest(ctx, AnkiConnectRequest{
		Action:  "storeMediaFile",
		Version: ANKI_CONNECT_VERSION,
		Params: map[string]string{
			"filename": filename,
			"data":     base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to store media file %s: %w", filename, err)
	}
	return nil
}

func (s *Service) sendRequest(ctx context.Context, req AnkiConnectRequest) (json.RawMessage, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("Retrying request (attempt %d/%d)...", attempt+1, MaxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		result, err := s.post(ctx, reqBody)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d attempts: %w", MaxRetries, lastErr)
}

func (s *Service) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ankiConnectURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Error  *string         `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("anki error: %s", *result.Error)
	}
	return result.Result, nil
}
