package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"storymagic/internal/models"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// AIClient is the slice of the OpenAI client the random-data helper uses.
type AIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Catalog vocabulary shown in the generator form. German labels are part of
// the frontend contract.
var (
	storyTypes = []string{
		"Abenteuer",
		"Märchen",
		"Lerngeschichte",
		"Gute-Nacht-Geschichte",
		"Freundschaftsgeschichte",
		"Tiergeschichte",
	}
	ageGroups = []string{
		"3-4 Jahre",
		"4-6 Jahre",
		"6-8 Jahre",
		"8-10 Jahre",
		"10-12 Jahre",
	}
)

const (
	fallbackCharacter   = "Ein mutiger kleiner Abenteurer"
	fallbackExtraWishes = "Soll eine wichtige Lebenslehre enthalten"
)

var (
	characterPattern = regexp.MustCompile(`(?m)^CHARAKTER:\s*(.+)$`)
	extraWishPattern = regexp.MustCompile(`(?m)^EXTRAWUNSCH:\s*(.+)$`)
)

// RandomDataService produces AI-assisted prefill data for the generator
// form, falling back to static suggestions when the AI is unavailable.
type RandomDataService struct {
	client AIClient
	model  string
	logger *zap.Logger
}

// NewRandomDataService creates a RandomDataService. A nil client is allowed
// and makes every call answer with fallback data.
func NewRandomDataService(client AIClient, model string, logger *zap.Logger) *RandomDataService {
	return &RandomDataService{
		client: client,
		model:  model,
		logger: logger.Named("RandomDataService"),
	}
}

// RandomStoryData returns a random character, age group, story type and
// extra wish. It never fails: AI errors degrade to the static fallback,
// flagged in the response.
func (s *RandomDataService) RandomStoryData(ctx context.Context) *models.RandomStoryDataResponse {
	ageGroup := ageGroups[rand.IntN(len(ageGroups))]
	storyType := storyTypes[rand.IntN(len(storyTypes))]

	if s.client == nil {
		return fallbackResponse(ageGroup, storyType)
	}

	content, err := s.requestSuggestion(ctx, ageGroup, storyType)
	if err != nil {
		s.logger.Warn("AI suggestion failed, using fallback data", zap.Error(err))
		return fallbackResponse(ageGroup, storyType)
	}

	character := firstMatch(characterPattern, content, "Ein mutiger kleiner Held")
	extraWishes := firstMatch(extraWishPattern, content, fallbackExtraWishes)

	return &models.RandomStoryDataResponse{
		Success: true,
		Data: models.RandomStoryData{
			Character:   character,
			AgeGroup:    ageGroup,
			StoryType:   storyType,
			ExtraWishes: extraWishes,
		},
	}
}

func (s *RandomDataService) requestSuggestion(ctx context.Context, ageGroup, storyType string) (string, error) {
	prompt := fmt.Sprintf(`Erstelle für eine Kindergeschichte:

1. Einen interessanten Hauptcharakter (1-2 Sätze, kreativ und kindgerecht für %s)
2. Einen passenden Extrawunsch/Lernziel (1 Satz, passend für %s)

WICHTIG: Verwende vielfältige und originelle Charaktere! Vermeide häufige Namen wie Luna, Max, Emma.
Sei kreativ mit Tieren, Fantasiewesen, Robotern, oder ungewöhnlichen Charakteren.

Format:
CHARAKTER: [Beschreibung]
EXTRAWUNSCH: [Wunsch]

Kreative Beispiele:
CHARAKTER: Ein sprechender Pingpongball namens Hüpfi
CHARAKTER: Ein schüchterner Riese, der gerne winzige Blumen züchtet
CHARAKTER: Eine Katze, die nur rückwärts laufen kann
CHARAKTER: Ein Roboter, der ständig seine Farbe wechselt`, ageGroup, storyType)

	// A random seed in the system prompt pushes the model away from
	// repeating the same handful of characters.
	seed := rand.IntN(1000000)
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Du bist ein kreativer Assistent für Kindergeschichten. "+
					"Erstelle kindgerechte, positive und fantasievolle Charaktere und Lernziele. "+
					"Sei besonders originell und vermeide häufige Namen oder Klischees. Zufallszahl: %d", seed),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:        200,
		Temperature:      1.5,
		TopP:             0.8,
		FrequencyPenalty: 1.0,
		PresencePenalty:  0.9,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func firstMatch(pattern *regexp.Regexp, content, fallback string) string {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

func fallbackResponse(ageGroup, storyType string) *models.RandomStoryDataResponse {
	return &models.RandomStoryDataResponse{
		Success: true,
		Data: models.RandomStoryData{
			Character:   fallbackCharacter,
			AgeGroup:    ageGroup,
			StoryType:   storyType,
			ExtraWishes: fallbackExtraWishes,
		},
		Fallback: true,
	}
}
