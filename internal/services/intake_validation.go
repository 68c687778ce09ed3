package services

import (
	"regexp"
	"strings"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

var allowedExperienceLevels = map[string]struct{}{
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
}

var allowedActivityLevels = map[string]struct{}{
	"sedentary":         {},
	"lightly active":    {},
	"moderately active": {},
	"very active":       {},
}

func validateStep1(input Step1Input) *ValidationError {
	if input.Age < 16 || input.Age > 100 {
		return validationErr("age", "must be between 16 and 100")
	}
	if input.Height < 120 || input.Height > 220 {
		return validationErr("height", "must be between 120 and 220 cm")
	}
	if len(input.PrimaryGoals) == 0 || len(input.PrimaryGoals) > 3 {
		return validationErr("primaryGoals", "select between 1 and 3 primary goals")
	}
	for _, goal := range input.PrimaryGoals {
		if strings.TrimSpace(goal) == "" {
			return validationErr("primaryGoals", "must not contain empty values")
		}
	}
	for _, goal := range input.SecondaryGoals {
		if strings.TrimSpace(goal) == "" {
			return validationErr("secondaryGoals", "must not contain empty values")
		}
	}
	if _, ok := allowedExperienceLevels[input.ExperienceLevel]; !ok {
		return validationErr("experienceLevel", "must be one of: beginner, intermediate, advanced")
	}
	return nil
}

func validateStep2(input Step2Input) *ValidationError {
	if len(strings.TrimSpace(input.TrainingHistory)) < 10 {
		return validationErr("trainingHistory", "describe your training history (at least 10 characters)")
	}
	for _, injury := range input.PreviousInjuries {
		if len(strings.TrimSpace(injury.BodyPart)) < 2 {
			return validationErr("previousInjuries", "body part is required")
		}
		if len(strings.TrimSpace(injury.Description)) < 5 {
			return validationErr("previousInjuries", "injury description is required")
		}
		if len(strings.TrimSpace(injury.WhenHappened)) < 2 {
			return validationErr("previousInjuries", "indicate when the injury happened")
		}
	}
	if input.CurrentTrainingFrequency < 0 || input.CurrentTrainingFrequency > 7 {
		return validationErr("currentTrainingFrequency", "must be between 0 and 7 sessions per week")
	}
	return nil
}

func validateStep3(input Step3Input) *ValidationError {
	measurements := input.InitialMeasurements
	if measurements.Weight < 30 || measurements.Weight > 300 {
		return validationErr("initialMeasurements.weight", "must be between 30 and 300 kg")
	}
	optional := map[string]*float64{
		"neck":       measurements.Neck,
		"chest":      measurements.Chest,
		"waist":      measurements.Waist,
		"hips":       measurements.Hips,
		"rightArm":   measurements.RightArm,
		"leftArm":    measurements.LeftArm,
		"rightThigh": measurements.RightThigh,
		"leftThigh":  measurements.LeftThigh,
		"rightCalf":  measurements.RightCalf,
		"leftCalf":   measurements.LeftCalf,
	}
	for field, value := range optional {
		if value != nil && *value <= 0 {
			return validationErr("initialMeasurements."+field, "must be greater than 0")
		}
	}
	return nil
}

func validateStep4(input Step4Input) *ValidationError {
	if len(strings.TrimSpace(input.DietType)) < 2 {
		return validationErr("dietType", "select a diet type")
	}
	if input.MealsPerDay < 1 || input.MealsPerDay > 10 {
		return validationErr("mealsPerDay", "must be between 1 and 10")
	}
	return nil
}

func validateStep5(input Step5Input) *ValidationError {
	sleep := input.SleepPatterns
	if sleep.AverageDuration < 3 || sleep.AverageDuration > 14 {
		return validationErr("sleepPatterns.averageDuration", "must be between 3 and 14 hours")
	}
	if sleep.QualityRating < 1 || sleep.QualityRating > 10 {
		return validationErr("sleepPatterns.qualityRating", "must be between 1 and 10")
	}
	if !timeOfDayPattern.MatchString(sleep.Bedtime) {
		return validationErr("sleepPatterns.bedtime", "must match 24-hour HH:MM")
	}
	if !timeOfDayPattern.MatchString(sleep.WakeTime) {
		return validationErr("sleepPatterns.wakeTime", "must match 24-hour HH:MM")
	}
	if input.StressLevels < 1 || input.StressLevels > 10 {
		return validationErr("stressLevels", "must be between 1 and 10")
	}
	if input.RecoveryCapacity < 1 || input.RecoveryCapacity > 10 {
		return validationErr("recoveryCapacity", "must be between 1 and 10")
	}
	if len(strings.TrimSpace(input.Lifestyle.Occupation)) < 2 {
		return validationErr("lifestyle.occupation", "occupation is required")
	}
	if _, ok := allowedActivityLevels[input.Lifestyle.ActivityLevel]; !ok {
		return validationErr("lifestyle.activityLevel", "must be one of: sedentary, lightly active, moderately active, very active")
	}
	if len(strings.TrimSpace(input.Lifestyle.WorkSchedule)) < 2 {
		return validationErr("lifestyle.workSchedule", "work schedule is required")
	}
	return nil
}

func sleepChallengeNotes(challenges []string) *string {
	if len(challenges) == 0 {
		return nil
	}
	joined := strings.Join(challenges, ", ")
	return &joined
}
