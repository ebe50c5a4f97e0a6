package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// RecordType categorizes a health record.
type RecordType string

const (
	RecordAllergy      RecordType = "allergy"
	RecordVital        RecordType = "vital"
	RecordPrescription RecordType = "prescription"
	RecordVisit        RecordType = "visit"
	RecordVaccination  RecordType = "vaccination"
	RecordOther        RecordType = "other"
)

// IsValid checks if the record type is valid.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordAllergy, RecordVital, RecordPrescription, RecordVisit, RecordVaccination, RecordOther:
		return true
	}
	return false
}

// HealthRecord is a free-form personal health entry.
type HealthRecord struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"ownerId"`
	Type      RecordType        `json:"type"`
	Title     string            `json:"title"`
	Notes     map[string]string `json:"notes"`
	Meta      map[string]any    `json:"meta"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// HealthRecordInput carries create and update fields. On update, nil
// fields are left as they are.
type HealthRecordInput struct {
	Type  *string
	Title *string
	Notes map[string]string
	Meta  map[string]any
}

// NewHealthRecord validates input and builds a record owned by ownerID.
func NewHealthRecord(input HealthRecordInput, ownerID string, now time.Time) (*HealthRecord, error) {
	rec := &HealthRecord{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Type:      RecordOther,
		Notes:     map[string]string{},
		Meta:      map[string]any{},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if input.Title == nil {
		empty := ""
		input.Title = &empty
	}
	if err := rec.Apply(input, now); err != nil {
		return nil, err
	}
	return rec, nil
}

// Apply validates input and writes it onto the record.
// The record is unchanged when validation fails.
func (h *HealthRecord) Apply(input HealthRecordInput, now time.Time) error {
	verr := &ValidationError{}

	recordType := h.Type
	if input.Type != nil {
		recordType = RecordType(strings.ToLower(strings.TrimSpace(*input.Type)))
		if recordType == "" {
			recordType = RecordOther
		}
		if !recordType.IsValid() {
			verr.Add("type", "must be one of allergy, vital, prescription, visit, vaccination, other")
		}
	}

	title := h.Title
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		switch {
		case title == "":
			verr.Add("title", "is required")
		case utf8.RuneCountInString(title) > MaxTitleLength:
			verr.Add("title", "is too long")
		}
	}

	notes := h.Notes
	if input.Notes != nil {
		notes = make(map[string]string, len(input.Notes))
		for k, v := range input.Notes {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			notes[key] = v
		}
	}

	if err := verr.ErrorOrNil(); err != nil {
		return err
	}

	h.Type = recordType
	h.Title = title
	h.Notes = notes
	if input.Meta != nil {
		h.Meta = input.Meta
	}
	h.UpdatedAt = now.UTC()
	return nil
}

// Matches reports whether the record passes a type filter and a
// case-insensitive search over its title and type.
func (h *HealthRecord) Matches(recordType, query string) bool {
	if recordType != "" && recordType != "all" && string(h.Type) != recordType {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(h.Title), q) || strings.Contains(string(h.Type), q)
}
