package dto

import "github.com/dropDatabas3/keyrotor/internal/auth"

type UserListResponse struct {
	Items  []UserResponse `json:"items"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

func NewUserListResponse(p *auth.UserPage) UserListResponse {
	items := make([]UserResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, NewUserResponse(&p.Items[i]))
	}
	return UserListResponse{Items: items, Total: p.Total, Offset: p.Offset, Limit: p.Limit}
}
