package groups

// CreateAccountGroupRequest is the JSON body for POST /accounting/groups.
type CreateAccountGroupRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=120"`
	Nature        string `json:"nature" validate:"required,oneof=assets liabilities income expenses"`
	ParentGroupID *int64 `json:"parentGroupId" validate:"omitempty,gt=0"`
}

// UpdateAccountGroupRequest is the JSON body for PUT /accounting/groups/{id}.
// parentGroupId admits an explicit null to move a group to the root, so the
// field tracks whether it appeared at all.
type UpdateAccountGroupRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=120"`
	Nature        *string `json:"nature" validate:"omitempty,oneof=assets liabilities income expenses"`
	ParentGroupID *int64  `json:"parentGroupId" validate:"omitempty,gt=0"`
	ClearParent   bool    `json:"clearParent"`
}
