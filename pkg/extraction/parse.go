package extraction

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	apperrors "github.com/tom2tomtomtom/traffic-manager/pkg/errors"
	"github.com/tom2tomtomtom/traffic-manager/pkg/models"
	"github.com/tom2tomtomtom/traffic-manager/pkg/utils"
)

// stripFences removes a surrounding markdown code fence, with or without a language tag.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// decodeJSON unmarshals the model's answer into T. Output that is almost JSON gets one repair
// attempt before it is rejected.
func decodeJSON[T any](text, what string) (*T, error) {
	body := stripFences(text)
	if body == "" {
		return nil, apperrors.MalformedOutput("%s returned an empty response", what)
	}

	var value T
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(body)
		if repairErr != nil {
			return nil, apperrors.MalformedOutput("failed to parse %s as JSON: %v", what, err)
		}
		value = *new(T)
		if err := json.Unmarshal([]byte(repaired), &value); err != nil {
			return nil, apperrors.MalformedOutput("failed to parse %s as JSON: %v", what, err)
		}
	}

	return &value, nil
}

// parseResult decodes and validates an extraction.
func parseResult(text string) (*models.ExtractionResult, error) {
	result, err := decodeJSON[models.ExtractionResult](text, "extraction")
	if err != nil {
		return nil, err
	}

	result.Normalize()
	if _, err := utils.Validate(*result); err != nil {
		return nil, apperrors.MalformedOutput("extraction does not match the expected shape: %v", err)
	}

	return result, nil
}

func parseRecommendation(text string) (*models.StaffingRecommendation, error) {
	recommendation, err := decodeJSON[models.StaffingRecommendation](text, "recommendation")
	if err != nil {
		return nil, err
	}

	recommendation.Normalize()
	if _, err := utils.Validate(*recommendation); err != nil {
		return nil, apperrors.MalformedOutput("recommendation does not match the expected shape: %v", err)
	}

	return recommendation, nil
}
