package grpcutil

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/plexusrt/plexus/ecode"
)

// ErrorInfoDomain marks error details produced by this runtime.
const ErrorInfoDomain = "plexus.dev"

// ErrorCode extracts a gRPC error code from an error. If the error is not
// a gRPC error, it returns codes.Unknown.
func ErrorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Unknown
}

func IsCanceled(err error) bool {
	return ErrorCode(err) == codes.Canceled
}

// Status builds a gRPC status carrying the stable error code as an
// ErrorInfo detail, so clients can cross-reference the published catalog.
func Status(code codes.Code, ec ecode.Code, msg string) error {
	st := status.New(code, msg)

	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(ec),
		Domain: ErrorInfoDomain,
	})
	if err != nil {
		return st.Err()
	}

	return withInfo.Err()
}

// StableCode extracts the stable error code attached to a gRPC error, if
// any.
func StableCode(err error) (ecode.Code, bool) {
	st := status.Convert(err)

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			if info.Domain == ErrorInfoDomain && info.Reason != "" {
				return ecode.Code(info.Reason), true
			}
		}
	}

	return "", false
}
