package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/middleware"
	"github.com/yamenzk/ptrainer/internal/models"
	"github.com/yamenzk/ptrainer/internal/services"
	"github.com/yamenzk/ptrainer/internal/wizard"
)

type stubProfiles struct {
	stubTracker
	snapshot *models.MembershipSnapshot
}

func (s *stubProfiles) Snapshot(string) (*models.MembershipSnapshot, bool) {
	return s.snapshot, s.snapshot != nil
}

type stubRefresher struct {
	profiles     *stubProfiles
	fresh        *models.MembershipSnapshot
	requirements wizard.Requirements
	stored       *wizard.Requirements
	err          error
	calls        int
}

func (s *stubRefresher) CheckNow(context.Context, string) (wizard.Requirements, error) {
	s.calls++
	if s.err != nil {
		return wizard.Requirements{}, s.err
	}
	if s.fresh != nil {
		s.profiles.snapshot = s.fresh
	}
	return s.requirements, nil
}

func (s *stubRefresher) Requirements(string) (wizard.Requirements, bool) {
	if s.stored == nil {
		return wizard.Requirements{}, false
	}
	return *s.stored, true
}

func newProfileTestApp(handler *ProfileHandler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalClientID, "CL-0001")
		c.Locals(middleware.LocalMembership, "MEM-1")
		return c.Next()
	})
	app.Get("/api/v1/profile", handler.GetProfile)
	app.Post("/api/v1/profile/refresh", handler.RefreshProfile)
	app.Get("/api/v1/requirements", handler.GetRequirements)
	return app
}

func TestGetProfileServesCachedSnapshot(t *testing.T) {
	profiles := &stubProfiles{snapshot: &models.MembershipSnapshot{Client: models.ClientProfile{Name: "CL-0001"}}}
	refresher := &stubRefresher{profiles: profiles}
	app := newProfileTestApp(&ProfileHandler{profiles: profiles, refresher: refresher})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if refresher.calls != 0 {
		t.Fatalf("cached profile should not trigger a refresh, got %d calls", refresher.calls)
	}
	if profiles.membership != "MEM-1" {
		t.Fatalf("expected membership from token to be tracked, got %q", profiles.membership)
	}
}

func TestGetProfileRefreshesOnMiss(t *testing.T) {
	profiles := &stubProfiles{}
	refresher := &stubRefresher{
		profiles: profiles,
		fresh:    &models.MembershipSnapshot{Client: models.ClientProfile{Name: "CL-0001"}},
	}
	app := newProfileTestApp(&ProfileHandler{profiles: profiles, refresher: refresher})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}
}

func TestRefreshProfileMapsErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"backend":    {err: &services.BackendError{Method: "get_membership", Status: 500}, status: http.StatusBadGateway},
		"forbidden":  {err: services.ErrForbidden, status: http.StatusForbidden},
		"untracked":  {err: services.ErrClientNotTracked, status: http.StatusNotFound},
		"unexpected": {err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			profiles := &stubProfiles{}
			app := newProfileTestApp(&ProfileHandler{profiles: profiles, refresher: &stubRefresher{profiles: profiles, err: tc.err}})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/profile/refresh", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestGetRequirementsUsesStoredFlags(t *testing.T) {
	profiles := &stubProfiles{}
	stored := wizard.Requirements{OpenWeightUpdate: true}
	refresher := &stubRefresher{profiles: profiles, stored: &stored}
	app := newProfileTestApp(&ProfileHandler{profiles: profiles, refresher: refresher})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/requirements", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	body := decodeBody(t, resp)
	requirements, ok := body["requirements"].(map[string]any)
	if !ok || requirements["open_weight_update"] != true {
		t.Fatalf("unexpected body %v", body)
	}
	if refresher.calls != 0 {
		t.Fatalf("stored flags should not trigger a check, got %d calls", refresher.calls)
	}
}

func TestGetRequirementsChecksOnFirstLoad(t *testing.T) {
	profiles := &stubProfiles{}
	refresher := &stubRefresher{profiles: profiles, requirements: wizard.Requirements{OpenOnboarding: true, Missing: []wizard.Field{wizard.FieldGender}}}
	app := newProfileTestApp(&ProfileHandler{profiles: profiles, refresher: refresher})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/requirements", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if refresher.calls != 1 {
		t.Fatalf("expected one check, got %d", refresher.calls)
	}
	body := decodeBody(t, resp)
	requirements := body["requirements"].(map[string]any)
	if requirements["open_onboarding"] != true {
		t.Fatalf("unexpected requirements %v", requirements)
	}
}
