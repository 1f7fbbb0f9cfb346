package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"linguaTutorAPI/internal/conversation"
)

// DefaultPhonemeThreshold is the confidence below which a word counts toward
// problematic phoneme detection.
const DefaultPhonemeThreshold = 0.7

// phonemePatterns maps a coarse phoneme category to the trigger substrings
// that mark a low-confidence word as evidence for it. This is word-list
// matching, not phonetic transcription.
var phonemePatterns = map[string][]string{
	"th": {"the", "that", "this", "think", "three", "mother", "father"},
	"r":  {"red", "right", "very", "carry", "area"},
	"l":  {"light", "little", "tell", "people"},
	"v":  {"very", "have", "voice", "every"},
	"w":  {"when", "where", "what", "which"},
	"ch": {"check", "church", "teacher", "much"},
	"sh": {"she", "should", "fish", "wash"},
}

// PronunciationService scores recognizer word confidences. Pure computation,
// safe for concurrent use.
type PronunciationService struct{}

func NewPronunciationService() *PronunciationService {
	return &PronunciationService{}
}

// CalculateScore converts word confidences into a 0-100 score. An empty
// session gets the neutral 50.0 rather than an error.
func (s *PronunciationService) CalculateScore(wordConfidences []conversation.WordConfidence) float64 {
	if len(wordConfidences) == 0 {
		return 50.0
	}

	var sum float64
	for _, wc := range wordConfidences {
		sum += wc.Confidence
	}

	score := sum / float64(len(wordConfidences)) * 100
	return math.Round(score*100) / 100
}

// IdentifyProblematicPhonemes flags phoneme categories evidenced by words
// whose confidence fell strictly below threshold. The result is deduplicated
// and sorted for stable output.
func (s *PronunciationService) IdentifyProblematicPhonemes(wordConfidences []conversation.WordConfidence, threshold float64) []string {
	problematic := map[string]bool{}

	for _, wc := range wordConfidences {
		if wc.Confidence >= threshold {
			continue
		}

		wordLower := strings.ToLower(wc.Word)
		for phoneme, patterns := range phonemePatterns {
			for _, pattern := range patterns {
				if strings.Contains(wordLower, pattern) {
					problematic[phoneme] = true
					break
				}
			}
		}
	}

	phonemes := make([]string, 0, len(problematic))
	for phoneme := range problematic {
		phonemes = append(phonemes, phoneme)
	}
	sort.Strings(phonemes)

	return phonemes
}

// GenerateFeedback builds the learner-facing message for a session score and
// its flagged phonemes (at most the first three are named).
func (s *PronunciationService) GenerateFeedback(score float64, problematicPhonemes []string) string {
	var parts []string

	switch {
	case score >= 90:
		parts = append(parts, "Excellent pronunciation!")
	case score >= 75:
		parts = append(parts, "Great job! Your pronunciation is clear.")
	case score >= 60:
		parts = append(parts, "Good effort! Let's work on clarity.")
	default:
		parts = append(parts, "Keep practicing! Pronunciation takes time.")
	}

	if len(problematicPhonemes) > 0 {
		named := problematicPhonemes
		if len(named) > 3 {
			named = named[:3]
		}
		quoted := make([]string, len(named))
		for i, p := range named {
			quoted[i] = fmt.Sprintf("'%s'", p)
		}
		parts = append(parts, fmt.Sprintf("Focus on improving: %s sounds.", strings.Join(quoted, ", ")))
	}

	return strings.Join(parts, " ")
}

// CalculateImprovement is the percent change of the recent mean against the
// historical mean, rounded to one decimal. Zero when either window is empty
// or the historical mean is zero; negative when scores declined.
func (s *PronunciationService) CalculateImprovement(historicalScores, recentScores []float64) float64 {
	if len(historicalScores) == 0 || len(recentScores) == 0 {
		return 0.0
	}

	historicalAvg := mean(historicalScores)
	recentAvg := mean(recentScores)

	if historicalAvg == 0 {
		return 0.0
	}

	improvement := (recentAvg - historicalAvg) / historicalAvg * 100
	return math.Round(improvement*10) / 10
}

// PracticeSuggestions returns the trigger word list for a phoneme category,
// usable as practice material. Unknown phonemes yield nil.
func (s *PronunciationService) PracticeSuggestions(phoneme string) []string {
	return phonemePatterns[phoneme]
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
