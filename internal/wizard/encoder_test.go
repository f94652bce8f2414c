package wizard

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamenzk/ptrainer/internal/models"
)

func TestEncodeWeightUpdateClearsPendingRequest(t *testing.T) {
	params, err := Encode(completeClient(), ModeWeightUpdate, nil, FormState{FieldWeight: NumberValue(82.5)})
	require.NoError(t, err)

	want := url.Values{
		ParamClientID:      {"CL-0001"},
		ParamWeight:        {"82.5"},
		ParamRequestWeight: {"0"},
	}
	if diff := cmp.Diff(want, params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodePerformanceExpandsComposite(t *testing.T) {
	exercise := &ExerciseContext{Ref: "Bench Press", DayKey: "day_3"}
	form := FormState{FieldExercisePerformance: PerformanceValue{Weight: 60, Reps: 10}}

	params, err := Encode(completeClient(), ModePerformance, exercise, form)
	require.NoError(t, err)

	assert.Equal(t, "CL-0001", params.Get(ParamClientID))
	assert.Equal(t, "1", params.Get(ParamIsPerformance))
	assert.Equal(t, "Bench Press", params.Get(ParamExerciseRef))
	assert.Equal(t, "day_3", params.Get(ParamExerciseDay))
	assert.Equal(t, "60", params.Get(ParamWeight))
	assert.Equal(t, "10", params.Get(ParamReps))
	assert.False(t, params.Has(string(FieldExercisePerformance)))
	assert.False(t, params.Has(ParamRequestWeight))
}

func TestEncodePerformanceNeedsExercise(t *testing.T) {
	form := FormState{FieldExercisePerformance: PerformanceValue{Weight: 60, Reps: 10}}
	_, err := Encode(completeClient(), ModePerformance, nil, form)
	assert.ErrorIs(t, err, ErrMissingExercise)
}

func TestEncodeRequiresClientID(t *testing.T) {
	_, err := Encode(&models.ClientProfile{}, ModePreferences, nil, FormState{FieldGoal: TextValue("Maintenance")})
	assert.ErrorIs(t, err, ErrMissingClientID)

	_, err = Encode(nil, ModePreferences, nil, FormState{})
	assert.ErrorIs(t, err, ErrMissingClientID)
}

func TestEncodeDateOfBirthUsesStorageFormat(t *testing.T) {
	params, err := Encode(completeClient(), ModeOnboarding, nil, FormState{FieldDateOfBirth: TextValue("12-04-1990")})
	require.NoError(t, err)
	assert.Equal(t, "1990-04-12", params.Get(string(FieldDateOfBirth)))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	form := FormState{
		FieldClientName:    TextValue("Sam Member"),
		FieldDateOfBirth:   TextValue("1990-04-12"),
		FieldGender:        TextValue("Female"),
		FieldMobile:        TextValue("+971500000000"),
		FieldNationality:   TextValue("Jordan"),
		FieldGoal:          TextValue("Muscle Building"),
		FieldTargetWeight:  NumberValue(70),
		FieldMeals:         NumberValue(5),
		FieldWorkouts:      NumberValue(4),
		FieldEquipment:     TextValue("Home"),
		FieldActivityLevel: TextValue("Light"),
		FieldHeight:        NumberValue(168.5),
		FieldWeight:        NumberValue(66.4),
	}

	params, err := Encode(completeClient(), ModeOnboarding, nil, form)
	require.NoError(t, err)

	encoded, err := url.ParseQuery(params.Encode())
	require.NoError(t, err)

	clientID, decoded, exercise, err := DecodeParams(encoded)
	require.NoError(t, err)
	assert.Equal(t, "CL-0001", clientID)
	assert.Nil(t, exercise)
	if diff := cmp.Diff(form, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeParamsPerformance(t *testing.T) {
	exercise := &ExerciseContext{Ref: "Deadlift", DayKey: "day_1"}
	form := FormState{FieldExercisePerformance: PerformanceValue{Weight: 140, Reps: 5}}

	params, err := Encode(completeClient(), ModePerformance, exercise, form)
	require.NoError(t, err)

	_, decoded, gotExercise, err := DecodeParams(params)
	require.NoError(t, err)
	assert.Equal(t, form, decoded)
	assert.Equal(t, exercise, gotExercise)
}
