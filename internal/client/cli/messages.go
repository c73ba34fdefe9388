package cli

import (
	"errors"

	"github.com/dmitrijs2005/authflow/internal/common"
)

var biometricMessages = map[common.BiometricReason]string{
	common.BiometricUserCancel:   "Biometric prompt canceled.",
	common.BiometricNotAvailable: "Biometric unlock is not available on this device.",
	common.BiometricLockout:      "Too many failed attempts. Biometric unlock is locked.",
	common.BiometricFailed:       "Biometric check failed.",
}

// describeError turns a flow failure into a line for the user.
func describeError(err error) string {
	var (
		bioErr  *common.BiometricError
		authErr *common.AuthError
	)

	switch {
	case errors.As(err, &bioErr):
		if msg, ok := biometricMessages[bioErr.Reason]; ok {
			return msg
		}
		return biometricMessages[common.BiometricFailed]
	case errors.Is(err, common.ErrBiometricEnabled):
		return "Biometric unlock enabled. Log in with your password once to finish setup."
	case errors.Is(err, common.ErrMutationFailed):
		return "Registration failed. Check your details and try again."
	case errors.As(err, &authErr) && authErr.Code != "":
		if authErr.Summary != "" {
			return "Request rejected: " + authErr.Summary + " (" + authErr.Code + ")"
		}
		return "Request rejected (" + authErr.Code + ")"
	case errors.Is(err, common.ErrAuthenticationFailed):
		return "Invalid email or password."
	case errors.Is(err, common.ErrUnknown):
		return "Nothing to unlock yet. Log in with your password first."
	default:
		return "Something went wrong: " + err.Error()
	}
}
