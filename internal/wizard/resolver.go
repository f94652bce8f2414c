package wizard

import (
	"fmt"
	"slices"

	"github.com/yamenzk/ptrainer/internal/models"
)

var preferenceFields = []Field{
	FieldGoal,
	FieldTargetWeight,
	FieldMeals,
	FieldWorkouts,
	FieldEquipment,
	FieldActivityLevel,
}

// Resolve computes the ordered steps a wizard in the given mode presents.
// Missing context never fails: onboarding without a client collects the whole
// catalog, performance without an exercise collects nothing.
func Resolve(mode Mode, exercise *ExerciseContext, client *models.ClientProfile) []Step {
	switch mode {
	case ModeOnboarding:
		return resolveOnboarding(client)
	case ModeWeightUpdate:
		return stepsFor([]Field{FieldWeight})
	case ModePreferences:
		return stepsFor(preferenceFields)
	case ModePerformance:
		return resolvePerformance(exercise)
	default:
		return nil
	}
}

func resolveOnboarding(client *models.ClientProfile) []Step {
	if client == nil {
		return AllSteps()
	}

	missing := MissingRequiredFields(client)
	if _, ok := client.LatestWeight(); len(missing) >= weightStepThreshold || !ok {
		missing = append(missing, FieldWeight)
	}
	if len(missing) == 0 {
		return nil
	}
	return stepsFor(missing)
}

func resolvePerformance(exercise *ExerciseContext) []Step {
	if !exercise.valid() {
		return nil
	}
	step, ok := StepFor(FieldExercisePerformance)
	if !ok {
		return nil
	}
	step.Title = fmt.Sprintf("Log Performance - %s", exercise.Ref)
	step.Description = "Enter your performance details for this exercise"
	return []Step{step}
}

// stepsFor returns the catalog steps for fields, in catalog order.
func stepsFor(fields []Field) []Step {
	var steps []Step
	for _, step := range catalog {
		if slices.Contains(fields, step.Field) {
			steps = append(steps, step.clone())
		}
	}
	return steps
}
