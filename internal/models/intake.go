package models

import "time"

// The intake questionnaire ("anamnese") has five fixed steps. Each step
// stores exactly one record per user; resubmission overwrites it.

type Injury struct {
	BodyPart        string `json:"bodyPart"`
	Description     string `json:"description"`
	WhenHappened    string `json:"whenHappened"`
	IsRecurrent     bool   `json:"isRecurrent"`
	AffectsTraining bool   `json:"affectsTraining"`
}

type BodyMeasurements struct {
	Weight     float64  `json:"weight"`
	Neck       *float64 `json:"neck,omitempty"`
	Chest      *float64 `json:"chest,omitempty"`
	Waist      *float64 `json:"waist,omitempty"`
	Hips       *float64 `json:"hips,omitempty"`
	RightArm   *float64 `json:"rightArm,omitempty"`
	LeftArm    *float64 `json:"leftArm,omitempty"`
	RightThigh *float64 `json:"rightThigh,omitempty"`
	LeftThigh  *float64 `json:"leftThigh,omitempty"`
	RightCalf  *float64 `json:"rightCalf,omitempty"`
	LeftCalf   *float64 `json:"leftCalf,omitempty"`
}

type FoodPreferences struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
}

type SleepPatterns struct {
	AverageDuration float64  `json:"averageDuration"`
	QualityRating   int      `json:"qualityRating"`
	Bedtime         string   `json:"bedtime"`
	WakeTime        string   `json:"wakeTime"`
	SleepChallenges []string `json:"sleepChallenges"`
}

type Lifestyle struct {
	Occupation    string `json:"occupation"`
	ActivityLevel string `json:"activityLevel"`
	WorkSchedule  string `json:"workSchedule"`
}

// IntakeStepPayload holds the union of the five step shapes. Only the
// fields belonging to the record's step are set; everything else stays nil.
type IntakeStepPayload struct {
	// Step 1: demographics and goals
	Age             *int     `json:"age,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	PrimaryGoals    []string `json:"primaryGoals,omitempty"`
	SecondaryGoals  []string `json:"secondaryGoals,omitempty"`
	ExperienceLevel *string  `json:"experienceLevel,omitempty"`

	// Step 2: training history and injuries
	TrainingHistory          *string  `json:"trainingHistory,omitempty"`
	PreviousInjuries         []Injury `json:"previousInjuries,omitempty"`
	CurrentTrainingFrequency *int     `json:"currentTrainingFrequency,omitempty"`

	// Step 3: postural notes and measurements
	PosturalObservations []string          `json:"posturalObservations,omitempty"`
	InitialMeasurements  *BodyMeasurements `json:"initialMeasurements,omitempty"`

	// Step 4: nutrition preferences
	DietType        *string          `json:"dietType,omitempty"`
	FoodAllergies   []string         `json:"foodAllergies,omitempty"`
	FoodPreferences *FoodPreferences `json:"foodPreferences,omitempty"`
	MealsPerDay     *int             `json:"mealsPerDay,omitempty"`
	SupplementsUsed []string         `json:"supplementsUsed,omitempty"`

	// Step 5: sleep, stress and lifestyle
	SleepPatterns    *SleepPatterns `json:"sleepPatterns,omitempty"`
	StressLevels     *int           `json:"stressLevels,omitempty"`
	RecoveryCapacity *int           `json:"recoveryCapacity,omitempty"`
	Lifestyle        *Lifestyle     `json:"lifestyle,omitempty"`
}

type IntakeStepRecord struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Step        int               `json:"step"`
	CompletedAt time.Time         `json:"completed_at"`
	Payload     IntakeStepPayload `json:"payload"`
}
