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

// Package registry holds the ServiceInstance model shared by every
// discovery-source adapter (currently just nacos) and the Directory that
// turns instance-changed notifications into an Invoker list.
package registry

import (
	"net/url"
	"strconv"

	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
)

// ServiceInstance is one registered endpoint as reported by a discovery
// source: enough to build an Invoker's URL from, nothing about transport.
type ServiceInstance interface {
	GetID() string
	GetServiceName() string
	GetHost() string
	GetPort() int
	IsEnable() bool
	IsHealthy() bool
	GetMetadata() map[string]string
	GetWeight() int64
	GetAddress() string

	// ToURL builds the common.URL an Invoker would be constructed from,
	// using protocol as the scheme (discovery sources carry no protocol
	// of their own; that comes from the consumer's reference
	// configuration).
	ToURL(protocol string) *common.URL
}

// DefaultServiceInstance is the concrete ServiceInstance used by every
// discovery adapter in this module.
type DefaultServiceInstance struct {
	ID          string
	ServiceName string
	Host        string
	Port        int
	Weight      int64
	Enable      bool
	Healthy     bool
	Metadata    map[string]string
	GroupName   string

	address string
}

func (d *DefaultServiceInstance) GetID() string          { return d.ID }
func (d *DefaultServiceInstance) GetServiceName() string { return d.ServiceName }
func (d *DefaultServiceInstance) GetHost() string        { return d.Host }
func (d *DefaultServiceInstance) GetPort() int           { return d.Port }
func (d *DefaultServiceInstance) IsEnable() bool         { return d.Enable }
func (d *DefaultServiceInstance) IsHealthy() bool        { return d.Healthy }

func (d *DefaultServiceInstance) GetAddress() string {
	if d.address != "" {
		return d.address
	}
	if d.Port <= 0 {
		d.address = d.Host
	} else {
		d.address = d.Host + ":" + strconv.Itoa(d.Port)
	}
	return d.address
}

func (d *DefaultServiceInstance) GetMetadata() map[string]string {
	if d.Metadata == nil {
		d.Metadata = make(map[string]string)
	}
	return d.Metadata
}

func (d *DefaultServiceInstance) GetWeight() int64 {
	if d.Weight <= 0 {
		return constant.DefaultNacosWeight
	}
	return d.Weight
}

// ToURL builds the common.URL for this instance under the given protocol,
// carrying its metadata through as URL parameters so downstream routers
// and load balancers can key off them exactly as they would for a
// statically configured endpoint.
func (d *DefaultServiceInstance) ToURL(protocol string) *common.URL {
	return common.NewURLWithOptions(
		common.WithProtocol(protocol),
		common.WithIp(d.Host),
		common.WithPort(strconv.Itoa(d.Port)),
		common.WithPath(d.ServiceName),
		common.WithInterface(d.ServiceName),
		common.WithParams(metadataToParams(d.Metadata)),
		common.WithWeight(d.GetWeight()),
	)
}

func metadataToParams(metadata map[string]string) url.Values {
	params := make(url.Values, len(metadata))
	for k, v := range metadata {
		params[k] = []string{v}
	}
	return params
}

// ServiceInstanceCustomizer lets callers post-process an instance before
// it is registered, e.g. stamping extra metadata. Customizers run in
// ascending Priority order.
type ServiceInstanceCustomizer interface {
	// Priority orders customizers; numbers in [100, 9000] are reserved
	// for user customizers.
	Priority() int64

	Customize(instance ServiceInstance)
}
