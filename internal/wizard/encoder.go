package wizard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yamenzk/ptrainer/internal/models"
)

// Parameter names understood by the backend's update_client method.
const (
	ParamClientID      = "client_id"
	ParamIsPerformance = "is_performance"
	ParamExerciseRef   = "exercise_ref"
	ParamExerciseDay   = "exercise_day"
	ParamWeight        = "weight"
	ParamReps          = "reps"
	ParamRequestWeight = "request_weight"
)

// Encode turns collected answers into the parameter set of a single
// update_client call. Date of birth always goes out as yyyy-mm-dd.
func Encode(client *models.ClientProfile, mode Mode, exercise *ExerciseContext, form FormState) (url.Values, error) {
	if client == nil || strings.TrimSpace(client.Name) == "" {
		return nil, ErrMissingClientID
	}

	params := url.Values{}
	params.Set(ParamClientID, client.Name)

	for _, step := range catalog {
		value, ok := form[step.Field]
		if !ok || value == nil {
			continue
		}

		switch step.Field {
		case FieldExercisePerformance:
			performance, ok := value.(PerformanceValue)
			if !ok {
				return nil, fmt.Errorf("encode %s: unexpected value %T", step.Field, value)
			}
			if !exercise.valid() {
				return nil, fmt.Errorf("encode %s in %s mode: %w", step.Field, mode, ErrMissingExercise)
			}
			params.Set(ParamIsPerformance, "1")
			params.Set(ParamExerciseRef, exercise.Ref)
			params.Set(ParamExerciseDay, exercise.DayKey)
			params.Add(ParamWeight, formatNumber(performance.Weight))
			params.Set(ParamReps, strconv.Itoa(performance.Reps))
		case FieldDateOfBirth:
			text, err := wireString(step.Field, value)
			if err != nil {
				return nil, err
			}
			params.Set(string(step.Field), canonicalDate(text))
		case FieldWeight:
			text, err := wireString(step.Field, value)
			if err != nil {
				return nil, err
			}
			params.Add(ParamWeight, text)
			params.Set(ParamRequestWeight, "0")
		default:
			text, err := wireString(step.Field, value)
			if err != nil {
				return nil, err
			}
			params.Set(string(step.Field), text)
		}
	}
	return params, nil
}

func wireString(field Field, value Value) (string, error) {
	switch v := value.(type) {
	case TextValue:
		return string(v), nil
	case NumberValue:
		return formatNumber(float64(v)), nil
	default:
		return "", fmt.Errorf("encode %s: unexpected value %T", field, value)
	}
}

func canonicalDate(text string) string {
	if date, ok := parseDate(strings.TrimSpace(text)); ok {
		return date.Format(storageDateLayout)
	}
	return text
}

// DecodeParams reads an update_client parameter set back into answers. When
// the set carries a performance log, weight and reps belong to it rather than
// to the weight field.
func DecodeParams(params url.Values) (string, FormState, *ExerciseContext, error) {
	clientID := params.Get(ParamClientID)
	form := FormState{}

	isPerformance := params.Get(ParamIsPerformance) == "1"
	var exercise *ExerciseContext
	if isPerformance {
		weight, err := strconv.ParseFloat(params.Get(ParamWeight), 64)
		if err != nil {
			return "", nil, nil, fmt.Errorf("decode performance weight: %w", err)
		}
		reps, err := strconv.Atoi(params.Get(ParamReps))
		if err != nil {
			return "", nil, nil, fmt.Errorf("decode performance reps: %w", err)
		}
		form[FieldExercisePerformance] = PerformanceValue{Weight: weight, Reps: reps}
		exercise = &ExerciseContext{
			Ref:    params.Get(ParamExerciseRef),
			DayKey: params.Get(ParamExerciseDay),
		}
	}

	for _, step := range catalog {
		if step.Field == FieldExercisePerformance || (isPerformance && step.Field == FieldWeight) {
			continue
		}
		if !params.Has(string(step.Field)) {
			continue
		}
		text := params.Get(string(step.Field))
		if step.Widget == WidgetNumeric {
			number, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return "", nil, nil, fmt.Errorf("decode %s: %w", step.Field, err)
			}
			form[step.Field] = NumberValue(number)
			continue
		}
		form[step.Field] = TextValue(text)
	}
	return clientID, form, exercise, nil
}
