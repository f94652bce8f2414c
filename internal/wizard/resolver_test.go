package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamenzk/ptrainer/internal/models"
)

func TestResolveOnboardingCompleteProfileNeedsNothing(t *testing.T) {
	assert.Empty(t, Resolve(ModeOnboarding, nil, completeClient()))
}

func TestResolveOnboardingTwoMissingFieldsSkipsWeight(t *testing.T) {
	client := completeClient()
	client.Gender = ""
	client.Mobile = ""

	got := fieldsOf(Resolve(ModeOnboarding, nil, client))
	if diff := cmp.Diff([]Field{FieldGender, FieldMobile}, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveOnboardingThreeMissingFieldsAddsWeight(t *testing.T) {
	client := completeClient()
	client.ClientName = ""
	client.Gender = ""
	client.Mobile = ""

	got := fieldsOf(Resolve(ModeOnboarding, nil, client))
	want := []Field{FieldClientName, FieldGender, FieldMobile, FieldWeight}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveOnboardingUnsetWeightAlone(t *testing.T) {
	client := completeClient()
	client.CurrentWeight = 0
	client.Weight = nil

	got := fieldsOf(Resolve(ModeOnboarding, nil, client))
	assert.Equal(t, []Field{FieldWeight}, got)
}

func TestResolveOnboardingUsesWeightHistory(t *testing.T) {
	client := completeClient()
	client.CurrentWeight = 0
	client.Weight = []models.WeightEntry{{Weight: 81.2, Date: "2026-10-01"}}

	assert.Empty(t, Resolve(ModeOnboarding, nil, client))
}

func TestResolveOnboardingTreatsZeroNumbersAsMissing(t *testing.T) {
	client := completeClient()
	client.Height = 0
	client.Meals = 0

	got := fieldsOf(Resolve(ModeOnboarding, nil, client))
	assert.Equal(t, []Field{FieldMeals, FieldHeight}, got)
}

func TestResolveOnboardingWithoutClientCollectsEverything(t *testing.T) {
	got := fieldsOf(Resolve(ModeOnboarding, nil, nil))
	assert.Equal(t, fieldsOf(AllSteps()), got)
}

func TestResolveOnboardingEmptyIffNothingMissing(t *testing.T) {
	for _, field := range RequiredFields() {
		t.Run(string(field), func(t *testing.T) {
			client := completeClient()
			clearProfileField(client, field)

			steps := Resolve(ModeOnboarding, nil, client)
			require.NotEmpty(t, steps)
			assert.Contains(t, fieldsOf(steps), field)
			assert.NotContains(t, fieldsOf(steps), FieldWeight)
		})
	}
}

func TestResolveWeightUpdateIsAlwaysSingleWeightStep(t *testing.T) {
	for _, client := range []*models.ClientProfile{nil, {}, completeClient()} {
		steps := Resolve(ModeWeightUpdate, nil, client)
		require.Len(t, steps, 1)
		assert.Equal(t, FieldWeight, steps[0].Field)
	}
}

func TestResolvePreferencesInCatalogOrder(t *testing.T) {
	got := fieldsOf(Resolve(ModePreferences, nil, completeClient()))
	want := []Field{FieldGoal, FieldTargetWeight, FieldMeals, FieldWorkouts, FieldEquipment, FieldActivityLevel}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvePerformance(t *testing.T) {
	assert.Empty(t, Resolve(ModePerformance, nil, completeClient()))
	assert.Empty(t, Resolve(ModePerformance, &ExerciseContext{Ref: "  "}, completeClient()))

	steps := Resolve(ModePerformance, &ExerciseContext{Ref: "Bench Press", DayKey: "day_2"}, completeClient())
	require.Len(t, steps, 1)
	assert.Equal(t, FieldExercisePerformance, steps[0].Field)
	assert.Equal(t, "Log Performance - Bench Press", steps[0].Title)
	assert.Equal(t, "Enter your performance details for this exercise", steps[0].Description)

	catalogStep, _ := StepFor(FieldExercisePerformance)
	assert.Equal(t, "Log Exercise Performance", catalogStep.Title)
}

func TestResolveUnknownModeIsEmpty(t *testing.T) {
	assert.Empty(t, Resolve("dance-off", nil, completeClient()))
}

func clearProfileField(client *models.ClientProfile, field Field) {
	switch field {
	case FieldClientName:
		client.ClientName = ""
	case FieldDateOfBirth:
		client.DateOfBirth = ""
	case FieldGender:
		client.Gender = ""
	case FieldMobile:
		client.Mobile = ""
	case FieldNationality:
		client.Nationality = ""
	case FieldGoal:
		client.Goal = ""
	case FieldTargetWeight:
		client.TargetWeight = 0
	case FieldMeals:
		client.Meals = 0
	case FieldWorkouts:
		client.Workouts = 0
	case FieldEquipment:
		client.Equipment = ""
	case FieldActivityLevel:
		client.ActivityLevel = ""
	case FieldHeight:
		client.Height = 0
	}
}
