package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/platefulapp/plateful-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get own profile",
		Description: "Returns the authenticated user's account data",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile",
		Summary:     "Update own profile",
		Description: "Applies partial updates to name, email, or password",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)
}

// ProfileOutput wraps the profile response for huma.
type ProfileOutput struct {
	Body UserResponse
}

// UpdateProfileInput wraps the profile update request for huma.
type UpdateProfileInput struct {
	Body service.UpdateProfileRequest
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapUser(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	caller, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.UpdateProfile(ctx, caller.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapUser(user)}, nil
}
