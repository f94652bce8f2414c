package wizard

import "github.com/yamenzk/ptrainer/internal/models"

func completeClient() *models.ClientProfile {
	return &models.ClientProfile{
		Name:          "CL-0001",
		ClientName:    "Sam Member",
		DateOfBirth:   "1990-04-12",
		Gender:        "Male",
		Mobile:        "+971500000000",
		Nationality:   "Jordan",
		Goal:          "Weight Loss",
		TargetWeight:  75,
		Meals:         4,
		Workouts:      3,
		Equipment:     "Gym",
		ActivityLevel: "Moderate",
		Height:        180,
		CurrentWeight: 84,
		Weight:        []models.WeightEntry{{Weight: 84, Date: "2026-09-01"}},
	}
}

func fieldsOf(steps []Step) []Field {
	fields := make([]Field, 0, len(steps))
	for _, step := range steps {
		fields = append(fields, step.Field)
	}
	return fields
}
