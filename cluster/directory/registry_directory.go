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

package directory

import (
	"context"
	"sync"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
	"github.com/dubbo-cluster/rpc-cluster/registry"
)

// InvokerFactory builds the Invoker this module dispatches through for one
// discovered endpoint URL. Callers supply whatever concrete Invoker their
// transport layer produces.
type InvokerFactory func(url *common.URL) protocol.Invoker

// RegistryDirectory is a Directory whose candidate set tracks a
// registry.ServiceDiscovery subscription: membership changes arrive via
// registry.ServiceInstancesChangedListener.OnEvent and are converted into
// Invoker add/remove against a mutex-protected snapshot.
type RegistryDirectory struct {
	*BaseDirectory

	serviceName string
	protocol    string
	newInvoker  InvokerFactory

	mu       sync.RWMutex
	invokers map[string]protocol.Invoker // endpoint identity -> invoker
}

// NewRegistryDirectory builds a RegistryDirectory and subscribes it to
// serviceName on discovery. The caller owns discovery's lifecycle
// (Destroy tears down only this directory's own invokers, not the shared
// discovery connection).
func NewRegistryDirectory(url *common.URL, discovery registry.ServiceDiscovery, serviceName, endpointProtocol string, newInvoker InvokerFactory) (*RegistryDirectory, error) {
	d := &RegistryDirectory{
		BaseDirectory: NewBaseDirectory(url),
		serviceName:   serviceName,
		protocol:      endpointProtocol,
		newInvoker:    newInvoker,
		invokers:      make(map[string]protocol.Invoker),
	}
	if err := discovery.AddListener(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ServiceNames implements registry.ServiceInstancesChangedListener.
func (d *RegistryDirectory) ServiceNames() []string { return []string{d.serviceName} }

// OnEvent implements registry.ServiceInstancesChangedListener: replaces
// the candidate set wholesale with the new snapshot, destroying any
// Invoker whose endpoint is no longer present and building one for each
// newly seen endpoint.
func (d *RegistryDirectory) OnEvent(event *registry.ServiceInstancesChangedEvent) error {
	d.mu.Lock()
	stale := d.invokers
	next := make(map[string]protocol.Invoker, len(event.Instances))
	for _, inst := range event.Instances {
		if !inst.IsEnable() || !inst.IsHealthy() {
			continue
		}
		url := inst.ToURL(d.protocol)
		id := url.Identity()
		if existing, ok := stale[id]; ok {
			next[id] = existing
			continue
		}
		next[id] = d.newInvoker(url)
	}
	d.invokers = next
	d.mu.Unlock()

	for id, inv := range stale {
		if _, kept := next[id]; !kept {
			inv.Destroy()
		}
	}
	return nil
}

// List returns the current snapshot, run through the router chain. The
// returned slice is a fresh copy so concurrent discovery events never
// mutate a call's already-returned result.
func (d *RegistryDirectory) List(_ context.Context, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	if !d.IsAvailable() {
		return nil, nil
	}
	d.mu.RLock()
	snapshot := make([]protocol.Invoker, 0, len(d.invokers))
	for _, inv := range d.invokers {
		snapshot = append(snapshot, inv)
	}
	d.mu.RUnlock()

	return d.Route(snapshot, invocation)
}

// Destroy tears down every held invoker, then the embedded BaseDirectory.
func (d *RegistryDirectory) Destroy() {
	d.mu.Lock()
	invokers := d.invokers
	d.invokers = nil
	d.mu.Unlock()
	for _, inv := range invokers {
		inv.Destroy()
	}
	d.BaseDirectory.Destroy()
}

var _ cluster.Directory = (*RegistryDirectory)(nil)
var _ registry.ServiceInstancesChangedListener = (*RegistryDirectory)(nil)
