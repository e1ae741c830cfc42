package bloberror

// Code is a wire-level storage error code. The set is closed: handlers only
// ever surface one of the codes below, and every code has a fixed HTTP
// status and default message.
type Code string

const (
	AccountIsDisabled                     Code = "AccountIsDisabled"
	AppendPositionConditionNotMet         Code = "AppendPositionConditionNotMet"
	AuthenticationFailed                  Code = "AuthenticationFailed"
	AuthorizationFailure                  Code = "AuthorizationFailure"
	AuthorizationPermissionMismatch       Code = "AuthorizationPermissionMismatch"
	AuthorizationResourceTypeMismatch     Code = "AuthorizationResourceTypeMismatch"
	AuthorizationServiceMismatch          Code = "AuthorizationServiceMismatch"
	BlobAlreadyExists                     Code = "BlobAlreadyExists"
	BlobNotFound                          Code = "BlobNotFound"
	BlockCountExceedsLimit                Code = "BlockCountExceedsLimit"
	ConditionNotMet                       Code = "ConditionNotMet"
	ContainerAlreadyExists                Code = "ContainerAlreadyExists"
	ContainerNotFound                     Code = "ContainerNotFound"
	CopyIDMismatch                        Code = "CopyIdMismatch"
	FeatureVersionMismatch                Code = "FeatureVersionMismatch"
	InsufficientAccountPermissions        Code = "InsufficientAccountPermissions"
	InternalError                         Code = "InternalError"
	InvalidAuthenticationInfo             Code = "InvalidAuthenticationInfo"
	InvalidBlobTier                       Code = "InvalidBlobTier"
	InvalidBlobType                       Code = "InvalidBlobType"
	InvalidBlockID                        Code = "InvalidBlockId"
	InvalidBlockList                      Code = "InvalidBlockList"
	InvalidHeaderValue                    Code = "InvalidHeaderValue"
	InvalidInput                          Code = "InvalidInput"
	InvalidOperation                      Code = "InvalidOperation"
	InvalidPageRange                      Code = "InvalidPageRange"
	InvalidQueryParameterValue            Code = "InvalidQueryParameterValue"
	InvalidRange                          Code = "InvalidRange"
	InvalidResourceName                   Code = "InvalidResourceName"
	InvalidSourceBlobURL                  Code = "InvalidSourceBlobUrl"
	InvalidVersionForPageBlobOperation    Code = "InvalidVersionForPageBlobOperation"
	InvalidXMLDocument                    Code = "InvalidXmlDocument"
	LeaseAlreadyPresent                   Code = "LeaseAlreadyPresent"
	LeaseIDMismatchWithBlobOperation      Code = "LeaseIdMismatchWithBlobOperation"
	LeaseIDMismatchWithContainerOperation Code = "LeaseIdMismatchWithContainerOperation"
	LeaseIDMismatchWithLeaseOperation     Code = "LeaseIdMismatchWithLeaseOperation"
	LeaseIDMissing                        Code = "LeaseIdMissing"
	LeaseIsBreakingAndCannotBeAcquired    Code = "LeaseIsBreakingAndCannotBeAcquired"
	LeaseIsBreakingAndCannotBeChanged     Code = "LeaseIsBreakingAndCannotBeChanged"
	LeaseIsBrokenAndCannotBeRenewed       Code = "LeaseIsBrokenAndCannotBeRenewed"
	LeaseNotPresentWithBlobOperation      Code = "LeaseNotPresentWithBlobOperation"
	LeaseNotPresentWithContainerOperation Code = "LeaseNotPresentWithContainerOperation"
	LeaseNotPresentWithLeaseOperation     Code = "LeaseNotPresentWithLeaseOperation"
	MaxBlobSizeConditionNotMet            Code = "MaxBlobSizeConditionNotMet"
	MD5Mismatch                           Code = "Md5Mismatch"
	MissingRequiredHeader                 Code = "MissingRequiredHeader"
	MissingRequiredQueryParameter         Code = "MissingRequiredQueryParameter"
	MultipleConditionHeadersNotSupported  Code = "MultipleConditionHeadersNotSupported"
	NoPendingCopyOperation                Code = "NoPendingCopyOperation"
	OperationTimedOut                     Code = "OperationTimedOut"
	OutOfRangeInput                       Code = "OutOfRangeInput"
	OutOfRangeQueryParameterValue         Code = "OutOfRangeQueryParameterValue"
	PendingCopyOperation                  Code = "PendingCopyOperation"
	PreviousSnapshotNotFound              Code = "PreviousSnapshotNotFound"
	RequestBodyTooLarge                   Code = "RequestBodyTooLarge"
	ResourceAlreadyExists                 Code = "ResourceAlreadyExists"
	ResourceNotFound                      Code = "ResourceNotFound"
	SequenceNumberConditionNotMet         Code = "SequenceNumberConditionNotMet"
	ServerBusy                            Code = "ServerBusy"
	SnapshotsPresent                      Code = "SnapshotsPresent"
	UnsupportedBlobType                   Code = "UnsupportedBlobType"
	UnsupportedHeader                     Code = "UnsupportedHeader"
	UnsupportedHTTPVerb                   Code = "UnsupportedHttpVerb"
	UnsupportedQueryParameter             Code = "UnsupportedQueryParameter"
)

func (c Code) String() string { return string(c) }

// StatusCode returns the HTTP status the service answers with for this code.
func (c Code) StatusCode() int {
	switch c {
	case AuthenticationFailed, InvalidAuthenticationInfo:
		return 401
	case AuthorizationFailure, AuthorizationPermissionMismatch,
		AuthorizationResourceTypeMismatch, AuthorizationServiceMismatch,
		InsufficientAccountPermissions, AccountIsDisabled:
		return 403
	case BlobNotFound, ContainerNotFound, ResourceNotFound, PreviousSnapshotNotFound:
		return 404
	case UnsupportedHTTPVerb:
		return 405
	case BlobAlreadyExists, ContainerAlreadyExists, ResourceAlreadyExists,
		InvalidBlobType, UnsupportedBlobType, InvalidOperation,
		BlockCountExceedsLimit, FeatureVersionMismatch,
		LeaseAlreadyPresent, LeaseIDMismatchWithLeaseOperation,
		LeaseIDMismatchWithBlobOperation, LeaseIDMismatchWithContainerOperation,
		LeaseNotPresentWithLeaseOperation,
		LeaseNotPresentWithBlobOperation, LeaseNotPresentWithContainerOperation,
		LeaseIsBreakingAndCannotBeAcquired, LeaseIsBreakingAndCannotBeChanged,
		LeaseIsBrokenAndCannotBeRenewed,
		NoPendingCopyOperation, PendingCopyOperation, CopyIDMismatch,
		SnapshotsPresent:
		return 409
	case ConditionNotMet, LeaseIDMissing,
		SequenceNumberConditionNotMet, AppendPositionConditionNotMet,
		MaxBlobSizeConditionNotMet:
		return 412
	case RequestBodyTooLarge:
		return 413
	case InvalidRange, InvalidPageRange:
		return 416
	case InternalError, OperationTimedOut:
		return 500
	case ServerBusy:
		return 503
	default:
		return 400
	}
}

// Message returns the canonical default message for this code.
func (c Code) Message() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return "One of the request inputs is not valid."
}

var defaultMessages = map[Code]string{
	AccountIsDisabled:                     "The specified account is disabled.",
	AppendPositionConditionNotMet:         "The append position condition specified was not met.",
	AuthenticationFailed:                  "Server failed to authenticate the request. Make sure the value of the Authorization header is formed correctly including the signature.",
	AuthorizationFailure:                  "This request is not authorized to perform this operation.",
	AuthorizationPermissionMismatch:       "This request is not authorized to perform this operation using this permission.",
	AuthorizationResourceTypeMismatch:     "This request is not authorized to perform this operation using this resource type.",
	AuthorizationServiceMismatch:          "This request is not authorized to perform this operation using this service.",
	BlobAlreadyExists:                     "The specified blob already exists.",
	BlobNotFound:                          "The specified blob does not exist.",
	BlockCountExceedsLimit:                "The committed block count cannot exceed the maximum limit of 50,000 blocks.",
	ConditionNotMet:                       "The condition specified using HTTP conditional header(s) is not met.",
	ContainerAlreadyExists:                "The specified container already exists.",
	ContainerNotFound:                     "The specified container does not exist.",
	CopyIDMismatch:                        "The specified copy ID did not match the copy ID for the pending copy operation.",
	FeatureVersionMismatch:                "The operation is not supported by the specified service version.",
	InsufficientAccountPermissions:        "The account being accessed does not have sufficient permissions to execute this operation.",
	InternalError:                         "The server encountered an internal error. Please retry the request.",
	InvalidAuthenticationInfo:             "Authentication information is not given in the correct format. Check the value of Authorization header.",
	InvalidBlobTier:                       "The specified blob tier is invalid.",
	InvalidBlobType:                       "The blob type is invalid for this operation.",
	InvalidBlockID:                        "The specified block ID is invalid. The block ID must be Base64-encoded.",
	InvalidBlockList:                      "The specified block list is invalid.",
	InvalidHeaderValue:                    "The value for one of the HTTP headers is not in the correct format.",
	InvalidInput:                          "One of the request inputs is not valid.",
	InvalidOperation:                      "The requested operation is not valid.",
	InvalidPageRange:                      "The page range specified is invalid.",
	InvalidQueryParameterValue:            "Value for one of the query parameters specified in the request URI is invalid.",
	InvalidRange:                          "The range specified is invalid for the current size of the resource.",
	InvalidResourceName:                   "The specified resource name contains invalid characters.",
	InvalidSourceBlobURL:                  "The source blob URL is invalid.",
	InvalidVersionForPageBlobOperation:    "A version that is invalid for page blob operations was specified.",
	InvalidXMLDocument:                    "XML specified is not syntactically valid.",
	LeaseAlreadyPresent:                   "There is already a lease present.",
	LeaseIDMismatchWithBlobOperation:      "The lease ID specified did not match the lease ID for the blob.",
	LeaseIDMismatchWithContainerOperation: "The lease ID specified did not match the lease ID for the container.",
	LeaseIDMismatchWithLeaseOperation:     "The lease ID specified did not match the lease ID for the resource.",
	LeaseIDMissing:                        "There is currently a lease on the resource and no lease ID was specified in the request.",
	LeaseIsBreakingAndCannotBeAcquired:    "The lease ID matched, but the lease is currently in breaking state and cannot be acquired until it is broken.",
	LeaseIsBreakingAndCannotBeChanged:     "The lease ID matched, but the lease is currently in breaking state and cannot be changed.",
	LeaseIsBrokenAndCannotBeRenewed:       "The lease ID matched, but the lease has been broken explicitly and cannot be renewed.",
	LeaseNotPresentWithBlobOperation:      "There is currently no lease on the blob.",
	LeaseNotPresentWithContainerOperation: "There is currently no lease on the container.",
	LeaseNotPresentWithLeaseOperation:     "There is currently no lease on the resource.",
	MaxBlobSizeConditionNotMet:            "The max blob size condition specified was not met.",
	MD5Mismatch:                           "The MD5 value specified in the request did not match the MD5 value calculated by the server.",
	MissingRequiredHeader:                 "An HTTP header that's mandatory for this request is not specified.",
	MissingRequiredQueryParameter:         "A query parameter that's mandatory for this request is not specified.",
	MultipleConditionHeadersNotSupported:  "Multiple condition headers are not supported.",
	NoPendingCopyOperation:                "There is currently no pending copy operation.",
	OperationTimedOut:                     "The operation could not be completed within the permitted time.",
	OutOfRangeInput:                       "One of the request inputs is out of range.",
	OutOfRangeQueryParameterValue:         "A query parameter specified in the request URI is outside the permissible range.",
	PendingCopyOperation:                  "There is currently a pending copy operation.",
	PreviousSnapshotNotFound:              "The previous snapshot is not found.",
	RequestBodyTooLarge:                   "The size of the request body exceeds the maximum size permitted.",
	ResourceAlreadyExists:                 "The specified resource already exists.",
	ResourceNotFound:                      "The specified resource does not exist.",
	SequenceNumberConditionNotMet:         "The sequence number condition specified was not met.",
	ServerBusy:                            "The server is currently unable to receive requests. Please retry your request.",
	SnapshotsPresent:                      "This operation is not permitted while the blob has snapshots.",
	UnsupportedBlobType:                   "The blob type is not supported for this operation.",
	UnsupportedHeader:                     "One of the headers specified in the request is not supported.",
	UnsupportedHTTPVerb:                   "The resource doesn't support the specified HTTP verb.",
	UnsupportedQueryParameter:             "One of the query parameters specified in the request URI is not supported.",
}
