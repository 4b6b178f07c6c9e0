// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMap_Aliases(t *testing.T) {
	fields := map[string]any{
		"user_id":          "snake",
		"default_language": "",
		"logoUrl":          "https://cdn.example/logo.png",
		"logo_url":         "ignored",
	}
	assert.Equal(t, "snake", ProfileFields.String(fields, "userId"))
	assert.Equal(t, "https://cdn.example/logo.png", ProfileFields.String(fields, "logoUrl"))
	assert.Equal(t, "english", ProfileFields.StringOr(fields, "defaultLanguage", "english"))
	assert.Equal(t, "", ProfileFields.String(fields, "email"))
}

func TestFieldMap_StringCoercion(t *testing.T) {
	fields := map[string]any{
		"userId":        float64(42),
		"userProfileId": []any{"recLinked", "recOther"},
	}
	assert.Equal(t, "42", WebsiteFields.String(fields, "userId"))
	assert.Equal(t, "recLinked", WebsiteFields.String(fields, "userProfileId"))
}

func TestFieldMap_Enabled(t *testing.T) {
	assert.True(t, ProfileFields.Enabled(map[string]any{}))
	assert.True(t, ProfileFields.Enabled(map[string]any{"enabled": true}))
	assert.False(t, ProfileFields.Enabled(map[string]any{"enabled": false}))
}

func TestFieldMap_StringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ProfileFields.StringList(map[string]any{"accounts": []any{"a", "b"}}, "accounts"))
	assert.Equal(t, []string{"a", "b"}, ProfileFields.StringList(map[string]any{"accounts": "a, b,"}, "accounts"))
	assert.Equal(t, []string{}, ProfileFields.StringList(map[string]any{}, "accounts"))
}

func TestParseUserProfile(t *testing.T) {
	record := Record{ID: "rec1", Fields: map[string]any{
		"userId":          "u1",
		"name":            "Ana",
		"accounts":        []any{"acc1"},
		"writingProfile":  `{"tone":"warm","guidelines":["short"]}`,
		"brandingColors":  map[string]any{"primary": "#fff"},
		"defaultLanguage": "spanish",
	}}
	p, err := ParseUserProfile(record)
	require.NoError(t, err)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, "spanish", p.DefaultLanguage)
	assert.True(t, p.Enabled)
	require.NotNil(t, p.WritingProfile)
	assert.Equal(t, "warm", p.WritingProfile.Tone)
	assert.Equal(t, []string{"short"}, p.WritingProfile.Guidelines)
	require.NotNil(t, p.BrandingColors)
	assert.Equal(t, "#fff", p.BrandingColors.Primary)

	_, err = ParseUserProfile(Record{ID: "bad", Fields: map[string]any{"brandingColors": "nope"}})
	assert.Error(t, err)
}

func TestParseWebsite(t *testing.T) {
	w, err := ParseWebsite(Record{ID: "w1", Fields: map[string]any{
		"website_id":     "site-a",
		"domain":         "a.example",
		"socialProfiles": `[{"platform":"x","username":"site_a","enabled":true}]`,
	}})
	require.NoError(t, err)
	assert.Equal(t, "site-a", w.WebsiteID)
	require.Len(t, w.SocialProfiles, 1)
	assert.Equal(t, "x", w.SocialProfiles[0].Platform)

	w, err = ParseWebsite(Record{ID: "w2", Fields: map[string]any{"websiteId": "site-b"}})
	require.NoError(t, err)
	assert.NotNil(t, w.SocialProfiles)
	assert.Empty(t, w.SocialProfiles)
}

func TestProfileUpdate_Fields(t *testing.T) {
	lang := "french"
	enabled := false
	fields, err := ProfileUpdate{
		DefaultLanguage: &lang,
		Enabled:         &enabled,
		WritingProfile:  &WritingProfile{Tone: "dry"},
	}.Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"defaultLanguage": "french",
		"enabled":         false,
		"writingProfile":  `{"tone":"dry"}`,
	}, fields)
}
