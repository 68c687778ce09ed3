package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vhsilvat/MetaMorfose/internal/models"
)

// GeneratedPlan is the document the model is asked to produce.
type GeneratedPlan struct {
	Schedule      []models.ScheduleEntry `json:"schedule"`
	WorkoutPlan   *models.WorkoutPlan    `json:"workoutPlan,omitempty"`
	NutritionPlan *models.NutritionPlan  `json:"nutritionPlan,omitempty"`
	WellbeingTips []string               `json:"wellbeingTips,omitempty"`
}

// ParseGeneratedPlan extracts the JSON document from a model response and
// validates it against the plan schema. The response may wrap the document
// in a ```json fence, a bare ``` fence, or no fence at all. Any failure
// returns a *PlanParseError carrying the raw response for logging.
func ParseGeneratedPlan(raw string) (*GeneratedPlan, error) {
	doc := extractJSONBlock(raw)
	if doc == "" {
		return nil, &PlanParseError{Reason: "no JSON document in response", Raw: raw}
	}

	var plan GeneratedPlan
	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(&plan); err != nil {
		return nil, &PlanParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}

	if err := validateGeneratedPlan(&plan); err != nil {
		return nil, &PlanParseError{Reason: err.Error(), Raw: raw}
	}
	return &plan, nil
}

// extractJSONBlock prefers a fenced block; without one it falls back to the
// outermost braces, since models often pad the document with prose.
func extractJSONBlock(raw string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(raw, fence)
		if start < 0 {
			continue
		}
		rest := raw[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		return strings.TrimSpace(rest[:end])
	}

	open := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if open >= 0 && end > open {
		return strings.TrimSpace(raw[open : end+1])
	}
	return ""
}

func validateGeneratedPlan(plan *GeneratedPlan) error {
	if len(plan.Schedule) == 0 {
		return fmt.Errorf("schedule is empty")
	}
	for i, entry := range plan.Schedule {
		if !timeOfDayPattern.MatchString(entry.Time) {
			return fmt.Errorf("schedule[%d].time %q is not HH:MM", i, entry.Time)
		}
		if entry.Activity == "" {
			return fmt.Errorf("schedule[%d].activity is empty", i)
		}
		if entry.Duration <= 0 {
			return fmt.Errorf("schedule[%d].duration must be positive", i)
		}
	}
	if plan.WorkoutPlan != nil {
		if plan.WorkoutPlan.Type == "" {
			return fmt.Errorf("workoutPlan.type is empty")
		}
		for i, ex := range plan.WorkoutPlan.Exercises {
			if ex.Name == "" {
				return fmt.Errorf("workoutPlan.exercises[%d].name is empty", i)
			}
			if ex.Sets <= 0 {
				return fmt.Errorf("workoutPlan.exercises[%d].sets must be positive", i)
			}
		}
	}
	if plan.NutritionPlan != nil {
		if plan.NutritionPlan.TotalCaloriesTarget <= 0 {
			return fmt.Errorf("nutritionPlan.totalCaloriesTarget must be positive")
		}
		for i, meal := range plan.NutritionPlan.MealSuggestions {
			if meal.Description == "" {
				return fmt.Errorf("nutritionPlan.mealSuggestions[%d].description is empty", i)
			}
		}
	}
	return nil
}
