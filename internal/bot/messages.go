package bot

import (
	"fmt"

	"rolegate/internal/reconcile"
)

// User-facing replies. Expected-negative outcomes get instructions, not
// error dumps.
const (
	msgVerified      = "You have now been verified!"
	msgUnsupported   = "It looks like your server doesn't support this bot, please contact the admins."
	msgGrantFailed   = "You're verified, but I couldn't give you the role. Please ask the admins to check my permissions."
	msgCheckFailed   = "Something went wrong while checking your verification, please try again later."
	msgSetupFailed   = "Registering your server failed, please try again later."
	msgAlreadySetUp  = "This server has already been registered."
	msgSetupApproved = "Your server is registered and approved. Members can now use /verify."
	msgSetupPending  = "Your server is registered and awaiting approval."
)

func verifyReply(outcome reconcile.Outcome, backendURL string) string {
	switch outcome {
	case reconcile.OutcomeGranted:
		return msgVerified
	case reconcile.OutcomeNotVerified:
		return fmt.Sprintf("Please verify yourself by going to %s", backendURL)
	default:
		return msgUnsupported
	}
}

func bulkReply(granted int) string {
	return fmt.Sprintf("Successfully completed re-verifications, granted the role to %d members.", granted)
}
