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
	"encoding/json"
	"time"
)

// WritingProfile describes how content is written for a user.
type WritingProfile struct {
	Language             string         `json:"language,omitempty"`
	Tone                 string         `json:"tone,omitempty"`
	Style                string         `json:"style,omitempty"`
	Personality          string         `json:"personality,omitempty"`
	Guidelines           []string       `json:"guidelines,omitempty"`
	Avoid                []string       `json:"avoid,omitempty"`
	TargetAudience       string         `json:"targetAudience,omitempty"`
	ContentFocus         []string       `json:"contentFocus,omitempty"`
	VoiceCharacteristics map[string]any `json:"voiceCharacteristics,omitempty"`
}

// BrandingColors holds a user's brand palette.
type BrandingColors struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
	Accent     string `json:"accent,omitempty"`
}

// UserProfile is a user profile record.
type UserProfile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Name            string          `json:"name"`
	DisplayName     string          `json:"displayName,omitempty"`
	Email           string          `json:"email,omitempty"`
	Accounts        []string        `json:"accounts"`
	WritingProfile  *WritingProfile `json:"writingProfile,omitempty"`
	BrandingColors  *BrandingColors `json:"brandingColors,omitempty"`
	LogoURL         string          `json:"logoUrl,omitempty"`
	DefaultLanguage string          `json:"defaultLanguage"`
	Enabled         bool            `json:"enabled"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// ProfileUpdate lists the profile fields to change. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name            *string
	DisplayName     *string
	Email           *string
	Accounts        []string
	WritingProfile  *WritingProfile
	BrandingColors  *BrandingColors
	LogoURL         *string
	DefaultLanguage *string
	Enabled         *bool
}

// Fields converts the update to source field values. Structured values are
// sent as JSON strings.
func (u ProfileUpdate) Fields() (map[string]any, error) {
	fields := make(map[string]any)
	setString := func(name string, v *string) {
		if v != nil {
			fields[name] = *v
		}
	}
	setString("name", u.Name)
	setString("displayName", u.DisplayName)
	setString("email", u.Email)
	setString("logoUrl", u.LogoURL)
	setString("defaultLanguage", u.DefaultLanguage)
	if u.Accounts != nil {
		fields["accounts"] = u.Accounts
	}
	if u.WritingProfile != nil {
		b, err := json.Marshal(u.WritingProfile)
		if err != nil {
			return nil, err
		}
		fields["writingProfile"] = string(b)
	}
	if u.BrandingColors != nil {
		b, err := json.Marshal(u.BrandingColors)
		if err != nil {
			return nil, err
		}
		fields["brandingColors"] = string(b)
	}
	if u.Enabled != nil {
		fields["enabled"] = *u.Enabled
	}
	return fields, nil
}

// SocialProfile is one social account attached to a website.
type SocialProfile struct {
	Platform string `json:"platform"`
	Username string `json:"username,omitempty"`
	URL      string `json:"url,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// Website is a website configuration record.
type Website struct {
	ID                string          `json:"id"`
	WebsiteID         string          `json:"websiteId"`
	Name              string          `json:"name"`
	Domain            string          `json:"domain"`
	UserID            string          `json:"userId"`
	UserProfileID     string          `json:"userProfileId,omitempty"`
	SocialProfiles    []SocialProfile `json:"socialProfiles"`
	SchedulingWebhook string          `json:"schedulingWebhook,omitempty"`
	Enabled           bool            `json:"enabled"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	UpdatedAt         string          `json:"updatedAt,omitempty"`
}

// SyncStatus summarizes the last sync run.
type SyncStatus struct {
	LastSyncAt time.Time      `json:"lastSyncAt"`
	Counts     map[string]int `json:"counts"`
	Success    bool           `json:"success"`
	Errors     []string       `json:"errors,omitempty"`
}

// Count returns the number of records mirrored for kind.
func (s *SyncStatus) Count(kind string) int {
	return s.Counts[kind]
}
