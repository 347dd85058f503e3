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

// Package protocol holds the interfaces the cluster dispatch engine invokes
// against: Invocation, Result, and Invoker. Wire protocol, serialization,
// and transport connections are out of scope; only these shapes matter to
// the dispatch core.
package protocol

import "sync"

// Invocation is a single per-request value: method name, parameter types,
// arguments, and a mutable attachments map. It carries no transport state.
type Invocation interface {
	MethodName() string
	ParameterTypes() []string
	Arguments() []any
	Attachments() map[string]string
	SetAttachment(key, value string)
	AttachmentsWithLock() map[string]string
}

// RPCInvocation is the concrete Invocation used throughout this module.
type RPCInvocation struct {
	methodName     string
	parameterTypes []string
	arguments      []any

	attachmentsLock sync.RWMutex
	attachments     map[string]string
}

// NewRPCInvocation builds an Invocation for methodName with the given
// arguments and attachments (attachments may be nil).
func NewRPCInvocation(methodName string, arguments []any, attachments map[string]string) *RPCInvocation {
	if attachments == nil {
		attachments = make(map[string]string)
	}
	return &RPCInvocation{
		methodName:  methodName,
		arguments:   arguments,
		attachments: attachments,
	}
}

func (inv *RPCInvocation) MethodName() string        { return inv.methodName }
func (inv *RPCInvocation) ParameterTypes() []string   { return inv.parameterTypes }
func (inv *RPCInvocation) Arguments() []any           { return inv.arguments }

// WithParameterTypes sets the declared parameter types and returns inv for chaining.
func (inv *RPCInvocation) WithParameterTypes(types []string) *RPCInvocation {
	inv.parameterTypes = types
	return inv
}

// Attachments returns a snapshot copy of the attachments map.
func (inv *RPCInvocation) Attachments() map[string]string {
	inv.attachmentsLock.RLock()
	defer inv.attachmentsLock.RUnlock()
	cp := make(map[string]string, len(inv.attachments))
	for k, v := range inv.attachments {
		cp[k] = v
	}
	return cp
}

// AttachmentsWithLock returns the live attachments map; callers must not
// retain it past the current call.
func (inv *RPCInvocation) AttachmentsWithLock() map[string]string {
	inv.attachmentsLock.RLock()
	defer inv.attachmentsLock.RUnlock()
	return inv.attachments
}

func (inv *RPCInvocation) SetAttachment(key, value string) {
	inv.attachmentsLock.Lock()
	defer inv.attachmentsLock.Unlock()
	if inv.attachments == nil {
		inv.attachments = make(map[string]string)
	}
	inv.attachments[key] = value
}

// GetAttachment reads a single attachment, defaulting to d when absent.
func (inv *RPCInvocation) GetAttachment(key, d string) string {
	inv.attachmentsLock.RLock()
	defer inv.attachmentsLock.RUnlock()
	if v, ok := inv.attachments[key]; ok {
		return v
	}
	return d
}

// NeedMockAttachmentKey is read by the terminal mock-selection router.
const NeedMockAttachmentKey = "invocation.need.mock"
