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
	"fmt"
	"strconv"
	"strings"
)

// FieldMap maps a canonical field name to the source field names accepted
// for it, in priority order.
type FieldMap map[string][]string

// ProfileFields is the field mapping for user profile records.
var ProfileFields = FieldMap{
	"userId":          {"userId", "user_id"},
	"name":            {"name"},
	"displayName":     {"displayName", "display_name"},
	"email":           {"email"},
	"accounts":        {"accounts"},
	"writingProfile":  {"writingProfile"},
	"brandingColors":  {"brandingColors"},
	"logoUrl":         {"logoUrl", "logo_url"},
	"defaultLanguage": {"defaultLanguage", "default_language"},
	"enabled":         {"enabled"},
	"createdAt":       {"createdAt", "created_at"},
	"updatedAt":       {"updatedAt", "updated_at"},
}

// WebsiteFields is the field mapping for website records.
var WebsiteFields = FieldMap{
	"websiteId":         {"websiteId", "website_id"},
	"name":              {"name"},
	"domain":            {"domain"},
	"userId":            {"userId", "user_id"},
	"userProfileId":     {"userProfileId", "user_profile_id"},
	"socialProfiles":    {"socialProfiles"},
	"schedulingWebhook": {"schedulingWebhook", "scheduling_webhook"},
	"enabled":           {"enabled"},
	"createdAt":         {"createdAt", "created_at"},
	"updatedAt":         {"updatedAt", "updated_at"},
}

// Lookup returns the first alias of canonical holding a non-empty value.
// Unknown canonical names fall back to the name itself.
func (m FieldMap) Lookup(fields map[string]any, canonical string) (any, bool) {
	aliases, ok := m[canonical]
	if !ok {
		aliases = []string{canonical}
	}
	for _, alias := range aliases {
		v, ok := fields[alias]
		if !ok || isEmpty(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// String returns the value of canonical as a string, or "".
func (m FieldMap) String(fields map[string]any, canonical string) string {
	v, ok := m.Lookup(fields, canonical)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		// Linked-record fields arrive as ID lists
		if len(x) == 0 {
			return ""
		}
		return fmt.Sprint(x[0])
	default:
		return fmt.Sprint(x)
	}
}

// StringOr returns the value of canonical as a string, or def when absent.
func (m FieldMap) StringOr(fields map[string]any, canonical, def string) string {
	if s := m.String(fields, canonical); s != "" {
		return s
	}
	return def
}

// Enabled reports whether a record is enabled. Only an explicit false
// disables it.
func (m FieldMap) Enabled(fields map[string]any) bool {
	for _, alias := range m["enabled"] {
		if b, ok := fields[alias].(bool); ok && !b {
			return false
		}
	}
	return true
}

// StringList reads canonical as either a list or a comma-separated string.
func (m FieldMap) StringList(fields map[string]any, canonical string) []string {
	out := []string{}
	v, ok := m.Lookup(fields, canonical)
	if !ok {
		return out
	}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
	case []string:
		out = append(out, x...)
	case string:
		for _, part := range strings.Split(x, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Decode reads canonical into dst. The value may be a JSON string or an
// already structured value. Reports whether a value was present.
func (m FieldMap) Decode(fields map[string]any, canonical string, dst any) (bool, error) {
	v, ok := m.Lookup(fields, canonical)
	if !ok {
		return false, nil
	}
	var data []byte
	if s, isString := v.(string); isString {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return false, err
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("field %s: %w", canonical, err)
	}
	return true, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

// ParseUserProfile converts a source record to a UserProfile.
func ParseUserProfile(record Record) (UserProfile, error) {
	f := record.Fields
	m := ProfileFields
	p := UserProfile{
		ID:              record.ID,
		UserID:          m.String(f, "userId"),
		Name:            m.String(f, "name"),
		DisplayName:     m.String(f, "displayName"),
		Email:           m.String(f, "email"),
		Accounts:        m.StringList(f, "accounts"),
		LogoURL:         m.String(f, "logoUrl"),
		DefaultLanguage: m.StringOr(f, "defaultLanguage", "english"),
		Enabled:         m.Enabled(f),
		CreatedAt:       m.String(f, "createdAt"),
		UpdatedAt:       m.String(f, "updatedAt"),
	}

	var wp WritingProfile
	ok, err := m.Decode(f, "writingProfile", &wp)
	if err != nil {
		return UserProfile{}, err
	}
	if ok {
		p.WritingProfile = &wp
	}

	var bc BrandingColors
	ok, err = m.Decode(f, "brandingColors", &bc)
	if err != nil {
		return UserProfile{}, err
	}
	if ok {
		p.BrandingColors = &bc
	}
	return p, nil
}

// ParseWebsite converts a source record to a Website.
func ParseWebsite(record Record) (Website, error) {
	f := record.Fields
	m := WebsiteFields
	w := Website{
		ID:                record.ID,
		WebsiteID:         m.String(f, "websiteId"),
		Name:              m.String(f, "name"),
		Domain:            m.String(f, "domain"),
		UserID:            m.String(f, "userId"),
		UserProfileID:     m.String(f, "userProfileId"),
		SchedulingWebhook: m.String(f, "schedulingWebhook"),
		Enabled:           m.Enabled(f),
		CreatedAt:         m.String(f, "createdAt"),
		UpdatedAt:         m.String(f, "updatedAt"),
		SocialProfiles:    []SocialProfile{},
	}
	if _, err := m.Decode(f, "socialProfiles", &w.SocialProfiles); err != nil {
		return Website{}, err
	}
	if w.SocialProfiles == nil {
		w.SocialProfiles = []SocialProfile{}
	}
	return w, nil
}
