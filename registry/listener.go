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

package registry

// ServiceInstancesChangedEvent is delivered to every listener subscribed
// to serviceName whenever a discovery source reports a new membership
// snapshot for it.
type ServiceInstancesChangedEvent struct {
	ServiceName string
	Instances   []ServiceInstance
}

// NewServiceInstancesChangedEvent builds a ServiceInstancesChangedEvent.
func NewServiceInstancesChangedEvent(serviceName string, instances []ServiceInstance) *ServiceInstancesChangedEvent {
	return &ServiceInstancesChangedEvent{ServiceName: serviceName, Instances: instances}
}

// ServiceInstancesChangedListener reacts to membership snapshots for one
// or more service names; cluster/directory's registry-backed Directory
// implements this to keep its candidate list current.
type ServiceInstancesChangedListener interface {
	OnEvent(event *ServiceInstancesChangedEvent) error
	ServiceNames() []string
}

// ServiceDiscovery is the minimal surface a discovery source (nacos, …)
// must provide: register this process's own instance, and subscribe a
// listener to membership changes for named services.
type ServiceDiscovery interface {
	Register(instance ServiceInstance) error
	Unregister(instance ServiceInstance) error
	AddListener(listener ServiceInstancesChangedListener) error
	Destroy() error
}
