package models

import "time"

type ScheduleEntry struct {
	Time     string  `json:"time"`
	Activity string  `json:"activity"`
	Duration int     `json:"duration"`
	Details  *string `json:"details,omitempty"`
}

type PlannedExercise struct {
	Name      string  `json:"name"`
	Sets      int     `json:"sets"`
	RepsRange string  `json:"repsRange"`
	RestTime  int     `json:"restTime"`
	Notes     *string `json:"notes,omitempty"`
}

type WorkoutPlan struct {
	Type      string            `json:"type"`
	FocusArea string            `json:"focusArea"`
	Exercises []PlannedExercise `json:"exercises"`
	Warmup    *string           `json:"warmup,omitempty"`
	Cooldown  *string           `json:"cooldown,omitempty"`
}

type MacroTargets struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type MealSuggestion struct {
	Time        string   `json:"time"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

type NutritionPlan struct {
	TotalCaloriesTarget float64          `json:"totalCaloriesTarget"`
	MacrosTarget        MacroTargets     `json:"macrosTarget"`
	HydrationTarget     float64          `json:"hydrationTarget"`
	MealSuggestions     []MealSuggestion `json:"mealSuggestions"`
}

// DailyPlan is the AI-generated plan for one (user, date). The date is a
// calendar day; at most one plan exists per user per day.
type DailyPlan struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Date          time.Time       `json:"date"`
	Schedule      []ScheduleEntry `json:"schedule"`
	WorkoutPlan   *WorkoutPlan    `json:"workout_plan,omitempty"`
	NutritionPlan *NutritionPlan  `json:"nutrition_plan,omitempty"`
	WellbeingTips []string        `json:"wellbeing_tips,omitempty"`
	Completed     bool            `json:"completed"`
	GeneratedBy   string          `json:"generated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type WorkoutFeedback struct {
	Difficulty    int     `json:"difficulty"`
	Enjoyment     int     `json:"enjoyment"`
	Effectiveness int     `json:"effectiveness"`
	Comments      *string `json:"comments,omitempty"`
}

type NutritionFeedback struct {
	Adherence    int      `json:"adherence"`
	Satisfaction int      `json:"satisfaction"`
	Challenges   []string `json:"challenges,omitempty"`
	Comments     *string  `json:"comments,omitempty"`
}

type Feedback struct {
	ID                int64              `json:"id"`
	UserID            int64              `json:"user_id"`
	Date              time.Time          `json:"date"`
	RelatedPlanID     *int64             `json:"related_plan_id,omitempty"`
	PlanCompletion    int                `json:"plan_completion"`
	WorkoutFeedback   *WorkoutFeedback   `json:"workout_feedback,omitempty"`
	NutritionFeedback *NutritionFeedback `json:"nutrition_feedback,omitempty"`
	GeneralFeedback   *string            `json:"general_feedback,omitempty"`
}
