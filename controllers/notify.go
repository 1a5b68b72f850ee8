package controllers

import "github.com/plumeblog/plume/utils"

// Notification senders, held in variables so tests can observe dispatches.
// Every call site treats failure as non-fatal: the error is logged and the
// request succeeds anyway.
var (
	sendRegistrationEmail = utils.SendRegistrationEmail
	sendPostApprovedEmail = utils.SendPostApprovedEmail
	sendNewCommentEmail   = utils.SendNewCommentEmail
)

func logMailError(kind string, err error) {
	if err != nil && utils.Sugar != nil {
		utils.Sugar.Warnf("failed to send %s email: %v", kind, err)
	}
}
