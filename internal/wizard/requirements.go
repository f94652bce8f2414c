package wizard

import (
	"slices"

	"github.com/yamenzk/ptrainer/internal/models"
)

// weightStepThreshold is the number of missing required fields at which the
// onboarding wizard also asks for a fresh weight.
const weightStepThreshold = 3

var requiredFields = []Field{
	FieldClientName,
	FieldDateOfBirth,
	FieldGender,
	FieldMobile,
	FieldNationality,
	FieldGoal,
	FieldTargetWeight,
	FieldMeals,
	FieldWorkouts,
	FieldEquipment,
	FieldActivityLevel,
	FieldHeight,
}

func RequiredFields() []Field {
	return slices.Clone(requiredFields)
}

// MissingRequiredFields lists the required onboarding fields the client has not
// filled in, in catalog order. Empty strings and numeric zero count as missing.
// Both the step resolver and the requirement gate use it.
func MissingRequiredFields(client *models.ClientProfile) []Field {
	if client == nil {
		return nil
	}
	var missing []Field
	for _, field := range requiredFields {
		if isMissing(profileValue(client, field)) {
			missing = append(missing, field)
		}
	}
	return missing
}

func profileValue(client *models.ClientProfile, field Field) any {
	switch field {
	case FieldClientName:
		return client.ClientName
	case FieldDateOfBirth:
		return client.DateOfBirth
	case FieldGender:
		return client.Gender
	case FieldMobile:
		return client.Mobile
	case FieldNationality:
		return client.Nationality
	case FieldGoal:
		return client.Goal
	case FieldTargetWeight:
		return client.TargetWeight
	case FieldMeals:
		return client.Meals
	case FieldWorkouts:
		return client.Workouts
	case FieldEquipment:
		return client.Equipment
	case FieldActivityLevel:
		return client.ActivityLevel
	case FieldHeight:
		return client.Height
	default:
		return nil
	}
}

func isMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case float64:
		return v == 0
	default:
		return false
	}
}

type Requirements struct {
	OpenOnboarding   bool    `json:"open_onboarding"`
	OpenWeightUpdate bool    `json:"open_weight_update"`
	Missing          []Field `json:"missing,omitempty"`
}

// Mode returns the wizard the requirements call for, if any.
func (r Requirements) Mode() (Mode, bool) {
	switch {
	case r.OpenOnboarding:
		return ModeOnboarding, true
	case r.OpenWeightUpdate:
		return ModeWeightUpdate, true
	default:
		return "", false
	}
}

// CheckRequirements decides whether the dashboard must open a wizard on its
// own. Onboarding wins over a pending weight request in the same check.
func CheckRequirements(client *models.ClientProfile) Requirements {
	if client == nil {
		return Requirements{}
	}
	missing := MissingRequiredFields(client)
	if len(missing) > 0 {
		return Requirements{OpenOnboarding: true, Missing: missing}
	}
	return Requirements{OpenWeightUpdate: client.WeightUpdateRequested()}
}
