package wizard

import (
	"fmt"
	"strings"
)

// Field is a key into the writable subset of the client record, plus the
// virtual exercise_performance key.
type Field string

const (
	FieldClientName          Field = "client_name"
	FieldDateOfBirth         Field = "date_of_birth"
	FieldGender              Field = "gender"
	FieldMobile              Field = "mobile"
	FieldNationality         Field = "nationality"
	FieldGoal                Field = "goal"
	FieldTargetWeight        Field = "target_weight"
	FieldMeals               Field = "meals"
	FieldWorkouts            Field = "workouts"
	FieldEquipment           Field = "equipment"
	FieldActivityLevel       Field = "activity_level"
	FieldHeight              Field = "height"
	FieldWeight              Field = "weight"
	FieldExercisePerformance Field = "exercise_performance"
)

type Mode string

const (
	ModeOnboarding   Mode = "onboarding"
	ModeWeightUpdate Mode = "weight-update"
	ModePreferences  Mode = "preferences"
	ModePerformance  Mode = "performance"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(value))); mode {
	case ModeOnboarding, ModeWeightUpdate, ModePreferences, ModePerformance:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// IsDismissible reports whether a wizard in this mode may be closed without
// completing it. Onboarding is mandatory.
func IsDismissible(mode Mode) bool {
	return mode != ModeOnboarding
}

// ExerciseContext identifies the exercise being logged in performance mode.
type ExerciseContext struct {
	Ref    string `json:"ref"`
	DayKey string `json:"day_key"`
}

func (e *ExerciseContext) valid() bool {
	return e != nil && strings.TrimSpace(e.Ref) != ""
}
