package biometric

import (
	"errors"

	"github.com/dmitrijs2005/authflow/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serviceName        = "biometric.v1.Agent"
	authenticateMethod = "/" + serviceName + "/Authenticate"
)

// fromStatus maps an agent call error onto a BiometricError.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return biometricError(common.BiometricFailed, err)
	}

	switch st.Code() {
	case codes.OK:
		return nil
	case codes.Canceled:
		return biometricError(common.BiometricUserCancel, err)
	case codes.Unavailable, codes.FailedPrecondition:
		return biometricError(common.BiometricNotAvailable, err)
	case codes.PermissionDenied:
		return biometricError(common.BiometricLockout, err)
	default:
		return biometricError(common.BiometricFailed, err)
	}
}

// toStatus is the inverse of fromStatus, used by the agent.
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	var be *common.BiometricError
	if !errors.As(err, &be) {
		return status.Error(codes.Internal, err.Error())
	}

	switch be.Reason {
	case common.BiometricUserCancel:
		return status.Error(codes.Canceled, be.Error())
	case common.BiometricNotAvailable:
		return status.Error(codes.FailedPrecondition, be.Error())
	case common.BiometricLockout:
		return status.Error(codes.PermissionDenied, be.Error())
	default:
		return status.Error(codes.Unauthenticated, be.Error())
	}
}
