package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	// same point
	assert.Zero(t, haversineMeters(-34.6037, -58.3816, -34.6037, -58.3816))

	// Obelisco to Plaza de Mayo, roughly a kilometer
	d := haversineMeters(-34.6037, -58.3816, -34.6083, -58.3712)
	assert.InDelta(t, 1080, d, 100)

	// a degree of latitude is about 111km
	d = haversineMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
}

func TestValidateCheckin(t *testing.T) {
	config := json.RawMessage(`{"latitude":-34.6037,"longitude":-58.3816,"radiusMeters":50}`)

	at := func(lat, lon float64) *TaskSubmission {
		return &TaskSubmission{Latitude: &lat, Longitude: &lon}
	}

	// standing at the target
	assert.NoError(t, validateCheckin(config, at(-34.6037, -58.3816)))

	// just inside the radius (~30m north)
	assert.NoError(t, validateCheckin(config, at(-34.60343, -58.3816)))

	// a kilometer away
	err := validateCheckin(config, at(-34.6083, -58.3712))
	assert.ErrorIs(t, err, ErrInvalid)

	// missing coordinates
	err = validateCheckin(config, &TaskSubmission{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateCheckinRadiusBoundary(t *testing.T) {
	config := json.RawMessage(`{"latitude":0,"longitude":0,"radiusMeters":50}`)

	at := func(lat, lon float64) *TaskSubmission {
		return &TaskSubmission{Latitude: &lat, Longitude: &lon}
	}

	// a degree of latitude is ~111195m, so this is ~49m north of target
	assert.NoError(t, validateCheckin(config, at(49.0/111195.0, 0)))

	// ~51m north, one meter past the radius
	err := validateCheckin(config, at(51.0/111195.0, 0))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateSurvey(t *testing.T) {
	config := json.RawMessage(`{"requiredFields":["favorite_drink","age_range"]}`)

	err := validateSurvey(config, &TaskSubmission{Responses: map[string]string{
		"favorite_drink": "negroni",
		"age_range":      "25-34",
	}})
	assert.NoError(t, err)

	err = validateSurvey(config, &TaskSubmission{Responses: map[string]string{
		"favorite_drink": "negroni",
	}})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "age_range")

	// no required fields means anything passes
	assert.NoError(t, validateSurvey(json.RawMessage(`{}`), &TaskSubmission{}))
	assert.NoError(t, validateSurvey(nil, &TaskSubmission{}))
}

func TestValidateSocialShare(t *testing.T) {
	config := json.RawMessage(`{"platforms":["instagram","tiktok"]}`)

	share := func(platform string) *TaskSubmission {
		return &TaskSubmission{Platform: platform}
	}

	assert.NoError(t, validateSocialShare(config, share("instagram")))
	// platform matching is case-insensitive
	assert.NoError(t, validateSocialShare(config, share("TikTok")))

	err := validateSocialShare(config, share("facebook"))
	assert.ErrorIs(t, err, ErrInvalid)

	err = validateSocialShare(config, share(""))
	assert.ErrorIs(t, err, ErrInvalid)
}
