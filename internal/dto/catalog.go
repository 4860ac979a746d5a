package dto

// CreateLineTypeRequest registers a new type code in the catalog.
type CreateLineTypeRequest struct {
	Code  string `json:"code" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// UpdateLineTypeRequest renames a catalog entry; the code is immutable.
type UpdateLineTypeRequest struct {
	Title string `json:"title" validate:"required"`
}

// CreateSubsidiaryRequest registers an organizational unit.
type CreateSubsidiaryRequest struct {
	Name string `json:"name" validate:"required"`
}
