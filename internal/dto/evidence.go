package dto

// CreateEvidenceRequest is the payload for uploading evidence under a
// criterion.
type CreateEvidenceRequest struct {
	CriteriaID string `json:"criteriaId" validate:"required"`
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	FileURL    string `json:"fileUrl"`
}
