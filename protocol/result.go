/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

// ExceptionCode tags a failed Result so strategies can tell transport faults
// apart from application-thrown ones.
type ExceptionCode int

const (
	// UNKNOWN is the zero value: no code was assigned.
	UNKNOWN ExceptionCode = iota
	// NETWORK marks a transport failure; retriable.
	NETWORK
	// TIMEOUT marks a deadline exceeded; retriable.
	TIMEOUT
	// BIZ marks an application-raised error at the remote side; never retried.
	BIZ
	// FORBIDDEN marks a policy rejection.
	FORBIDDEN
	// NOPROVIDER marks an empty endpoint list.
	NOPROVIDER
	// CONFIG marks an invalid rule, missing extension, or bad URL.
	CONFIG
)

func (c ExceptionCode) String() string {
	switch c {
	case NETWORK:
		return "NETWORK"
	case TIMEOUT:
		return "TIMEOUT"
	case BIZ:
		return "BIZ"
	case FORBIDDEN:
		return "FORBIDDEN"
	case NOPROVIDER:
		return "NO_PROVIDER"
	case CONFIG:
		return "CONFIG"
	default:
		return "UNKNOWN"
	}
}

// RPCException is the error type carried by a failed Result.
type RPCException struct {
	Code    ExceptionCode
	Message string
	Cause   error
}

func (e *RPCException) Error() string {
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code.String() + ": " + e.Message
}

func (e *RPCException) Unwrap() error { return e.Cause }

// NewBizException wraps err as a BIZ exception. Business exceptions must
// never trigger retry.
func NewBizException(message string, err error) *RPCException {
	return &RPCException{Code: BIZ, Message: message, Cause: err}
}

// NewException builds a tagged RPCException of the given code.
func NewException(code ExceptionCode, message string, err error) *RPCException {
	return &RPCException{Code: code, Message: message, Cause: err}
}

// Result is either a value (plus reply attachments) or an exception.
// HasException distinguishes the two.
type Result interface {
	SetResult(any)
	Result() any
	SetError(error)
	Error() error
	HasException() bool
	SetAttachments(map[string]string)
	Attachments() map[string]string
	SetAttachment(key, value string)
	Attachment(key, d string) string
}

// RPCResult is the concrete Result implementation.
type RPCResult struct {
	Rest        any
	Err         error
	Attr        map[string]string
}

func (r *RPCResult) SetResult(v any)  { r.Rest = v }
func (r *RPCResult) Result() any      { return r.Rest }
func (r *RPCResult) SetError(e error) { r.Err = e }
func (r *RPCResult) Error() error     { return r.Err }
func (r *RPCResult) HasException() bool {
	return r.Err != nil
}

func (r *RPCResult) SetAttachments(a map[string]string) { r.Attr = a }
func (r *RPCResult) Attachments() map[string]string     { return r.Attr }

func (r *RPCResult) SetAttachment(key, value string) {
	if r.Attr == nil {
		r.Attr = make(map[string]string)
	}
	r.Attr[key] = value
}

func (r *RPCResult) Attachment(key, d string) string {
	if v, ok := r.Attr[key]; ok {
		return v
	}
	return d
}

// NewRPCResult builds a successful Result carrying value.
func NewRPCResult(value any) *RPCResult {
	return &RPCResult{Rest: value, Attr: make(map[string]string)}
}

// NewRPCResultWithError builds a failed Result; err should normally be an
// *RPCException so callers can branch on its Code.
func NewRPCResultWithError(err error) *RPCResult {
	return &RPCResult{Err: err, Attr: make(map[string]string)}
}

// ExceptionCodeOf extracts the ExceptionCode from err, defaulting to UNKNOWN
// when err is not an *RPCException.
func ExceptionCodeOf(err error) ExceptionCode {
	if err == nil {
		return UNKNOWN
	}
	var rpcErr *RPCException
	if e, ok := err.(*RPCException); ok {
		rpcErr = e
	} else {
		return UNKNOWN
	}
	return rpcErr.Code
}

// IsBiz reports whether err is a business exception, the case that must
// never trigger a retry.
func IsBiz(err error) bool {
	return ExceptionCodeOf(err) == BIZ
}
