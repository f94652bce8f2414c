package wizard

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	name, _ := StepFor(FieldClientName)
	height, _ := StepFor(FieldHeight)
	performance, _ := StepFor(FieldExercisePerformance)

	tests := []struct {
		name  string
		step  Step
		form  FormState
		valid bool
	}{
		{"missing text", name, FormState{}, false},
		{"blank text", name, FormState{FieldClientName: TextValue("   ")}, false},
		{"text", name, FormState{FieldClientName: TextValue("Sam")}, true},
		{"zero number", height, FormState{FieldHeight: NumberValue(0)}, false},
		{"number", height, FormState{FieldHeight: NumberValue(172)}, true},
		{"all-zero performance", performance, FormState{FieldExercisePerformance: PerformanceValue{}}, true},
		{"performance", performance, FormState{FieldExercisePerformance: PerformanceValue{Weight: 60, Reps: 8}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.step, tt.form)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Message)
			} else {
				assert.Equal(t, RequiredMessage, result.Message)
			}
		})
	}
}

func TestDecodeDate(t *testing.T) {
	step, _ := StepFor(FieldDateOfBirth)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	value, err := step.Decode(json.RawMessage(`"1990-04-12"`), now)
	require.NoError(t, err)
	assert.Equal(t, TextValue("1990-04-12"), value)

	value, err = step.Decode(json.RawMessage(`"12-04-1990"`), now)
	require.NoError(t, err)
	assert.Equal(t, TextValue("1990-04-12"), value, "display format is stored canonically")

	value, err = step.Decode(json.RawMessage(`""`), now)
	require.NoError(t, err)
	assert.Equal(t, TextValue(""), value)

	for _, raw := range []string{`"2020-01-01"`, `"1900-01-01"`, `"2030-01-01"`, `"April 12"`, `12`} {
		_, err := step.Decode(json.RawMessage(raw), now)
		assert.ErrorIs(t, err, ErrInvalidAnswer, raw)
	}
}

func TestDecodeSelectCanonicalizesCase(t *testing.T) {
	step, _ := StepFor(FieldActivityLevel)

	value, err := step.Decode(json.RawMessage(`"very active"`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, TextValue("Very Active"), value)

	_, err = step.Decode(json.RawMessage(`"couch"`), time.Now())
	var answerErr *AnswerError
	require.True(t, errors.As(err, &answerErr))
	assert.Equal(t, FieldActivityLevel, answerErr.Field)
	assert.Contains(t, answerErr.Message, "Sedentary")
}

func TestDecodeNumber(t *testing.T) {
	meals, _ := StepFor(FieldMeals)
	weight, _ := StepFor(FieldWeight)

	value, err := meals.Decode(json.RawMessage(`5`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, NumberValue(5), value)

	value, err = weight.Decode(json.RawMessage(`"82.5"`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, NumberValue(82.5), value)

	value, err = weight.Decode(json.RawMessage(`0`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, NumberValue(0), value)

	for _, raw := range []string{`2`, `7`, `4.5`, `-1`, `"abc"`, `true`} {
		_, err := meals.Decode(json.RawMessage(raw), time.Now())
		assert.ErrorIs(t, err, ErrInvalidAnswer, raw)
	}
}

func TestDecodePerformance(t *testing.T) {
	step, _ := StepFor(FieldExercisePerformance)

	value, err := step.Decode(json.RawMessage(`{"weight":62.5,"reps":8}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, PerformanceValue{Weight: 62.5, Reps: 8}, value)

	for _, raw := range []string{`{"weight":-1,"reps":8}`, `{"weight":10}`, `{"weight":10,"reps":2.5}`, `"heavy"`, `{"weight":60,"reps":1e19}`, `{"weight":60,"reps":10001}`} {
		_, err := step.Decode(json.RawMessage(raw), time.Now())
		assert.ErrorIs(t, err, ErrInvalidAnswer, raw)
	}

	value, err = step.Decode(json.RawMessage(`{"weight":60,"reps":10000}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, PerformanceValue{Weight: 60, Reps: 10000}, value)
}
