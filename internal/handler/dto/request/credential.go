package request

import (
	"ticketgate/internal/domain/credential"
)

type IssueCredentialRequest struct {
	Mode string `json:"mode" binding:"required,oneof=static rotating"`
}

func (r IssueCredentialRequest) CredentialMode() credential.Mode {
	if r.Mode == "rotating" {
		return credential.ModeRotating
	}
	return credential.ModeStatic
}
