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

// Package static provides a Directory over a fixed, caller-supplied Invoker
// list, for generic invocation and tests where no registry subscription
// is involved.
package static

import (
	"context"
	"sync"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/cluster/directory"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// Directory is a Directory over an immutable Invoker list, re-routed
// through the embedded BaseDirectory's router chain on every List call.
type Directory struct {
	*directory.BaseDirectory

	mu       sync.RWMutex
	invokers []protocol.Invoker
}

// NewDirectory wraps invokers as a static Directory keyed off url.
func NewDirectory(url *common.URL, invokers []protocol.Invoker) *Directory {
	return &Directory{
		BaseDirectory: directory.NewBaseDirectory(url),
		invokers:      invokers,
	}
}

// List returns the configured invokers, run through the router chain. The
// returned slice is always a fresh copy; callers may not observe mutation.
func (d *Directory) List(_ context.Context, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	if !d.IsAvailable() {
		return nil, nil
	}
	d.mu.RLock()
	snapshot := make([]protocol.Invoker, len(d.invokers))
	copy(snapshot, d.invokers)
	d.mu.RUnlock()

	return d.Route(snapshot, invocation)
}

// SetInvokers atomically replaces the candidate list (e.g. when a test
// wants to simulate a provider coming up or going down).
func (d *Directory) SetInvokers(invokers []protocol.Invoker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invokers = invokers
}

// Destroy tears down every held invoker, then marks the directory itself
// destroyed.
func (d *Directory) Destroy() {
	d.mu.Lock()
	invokers := d.invokers
	d.invokers = nil
	d.mu.Unlock()
	for _, inv := range invokers {
		inv.Destroy()
	}
	d.BaseDirectory.Destroy()
}

var _ cluster.Directory = (*Directory)(nil)
