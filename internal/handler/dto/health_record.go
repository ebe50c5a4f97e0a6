package dto

import "github.com/carenote/carenote/internal/model"

// HealthRecordRequest is the body of create and update requests.
// On update, omitted fields keep their current values.
type HealthRecordRequest struct {
	Type  *string           `json:"type,omitempty"`
	Title *string           `json:"title,omitempty"`
	Notes map[string]string `json:"notes,omitempty"`
	Meta  map[string]any    `json:"meta,omitempty"`
}

// ToInput converts the request into service input.
func (r HealthRecordRequest) ToInput() model.HealthRecordInput {
	return model.HealthRecordInput{
		Type:  r.Type,
		Title: r.Title,
		Notes: r.Notes,
		Meta:  r.Meta,
	}
}

// HealthRecordEnvelope wraps a single record.
type HealthRecordEnvelope struct {
	Record *model.HealthRecord `json:"record"`
}

// HealthRecordListResponse lists records.
type HealthRecordListResponse struct {
	Records []*model.HealthRecord `json:"records"`
}
