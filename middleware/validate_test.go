// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/jamhub/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{}
		wantErr string
	}{
		{"valid event", &models.CreateEventRequest{Title: "Cat Jam", OrganizerName: "Ada"}, ""},
		{"missing title", &models.CreateEventRequest{OrganizerName: "Ada"}, "title is required"},
		{"team too large", &models.CreateEventRequest{Title: "Jam", OrganizerName: "Ada", TeamSizeMax: 50}, "team_size_max must be at most 20"},
		{"short display name", &models.RegisterRequest{DisplayName: "A"}, "display_name must be at least 2"},
		{"bad link", &models.SubmissionRequest{Title: "Game", Link: "not a link"}, "link must be a valid URL"},
		{"valid link", &models.SubmissionRequest{Title: "Game", Link: "https://itch.io/game"}, ""},
		{"empty scores", &models.SubmitScoresRequest{Scores: map[string]float64{}}, "scores must be at least 1"},
		{"score out of range", &models.SubmitScoresRequest{Scores: map[string]float64{"s1": 1.5}}, "scores[s1] must be between 0 and 1"},
		{"invite code symbols", &models.JoinTeamRequest{InviteCode: "AB-12"}, "invite_code must be alphanumeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
