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

// Package nacos adapts the nacos-sdk-go naming client into this module's
// registry.ServiceDiscovery, translating SubscribeCallback notifications
// into registry.ServiceInstancesChangedEvent deliveries.
package nacos

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/dubbogo/gost/log/logger"
	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/pkg/errors"

	"github.com/dubbo-cluster/rpc-cluster/common"
	dconstant "github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/registry"
)

const idKey = "id"

// ServiceDiscovery is the nacos-backed registry.ServiceDiscovery.
type ServiceDiscovery struct {
	group       string
	descriptor  string
	namingClient naming_client.INamingClient

	registryURL *common.URL

	mu                sync.Mutex
	registered        []registry.ServiceInstance
	serviceInstances  map[string][]registry.ServiceInstance
	listenersByService map[string][]registry.ServiceInstancesChangedListener
}

// NewServiceDiscovery builds a nacos-backed ServiceDiscovery from a
// registry configuration URL (scheme, host:port, group/namespace/
// username/password params).
func NewServiceDiscovery(url *common.URL) (*ServiceDiscovery, error) {
	group := url.GetParam(dconstant.RegistryGroupKey, dconstant.ServiceDiscoveryDefaultGroup)

	clientConfig := constant.ClientConfig{
		NamespaceId: url.GetParam(dconstant.RegistryNamespaceKey, ""),
		TimeoutMs:   uint64(url.GetParamInt(dconstant.RegistryTimeoutKey, 10000)),
	}
	host, port, err := splitHostPort(url.Location)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid nacos registry address")
	}
	serverConfig := constant.ServerConfig{IpAddr: host, Port: port}

	client, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: []constant.ServerConfig{serverConfig},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create nacos naming client failed")
	}

	return &ServiceDiscovery{
		group:               group,
		descriptor:          fmt.Sprintf("nacos-service-discovery[%s]", url.Location),
		namingClient:        client,
		registryURL:         url,
		serviceInstances:    make(map[string][]registry.ServiceInstance),
		listenersByService:  make(map[string][]registry.ServiceInstancesChangedListener),
	}, nil
}

func splitHostPort(location string) (string, uint64, error) {
	host, portStr, err := splitLastColon(location)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.ParseUint(portStr, 10, 64)
	if err != nil {
		return "", 0, errors.WithMessage(err, "invalid port in "+location)
	}
	return host, port, nil
}

func splitLastColon(s string) (string, string, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", errors.New("missing ':' in address " + s)
}

func (n *ServiceDiscovery) String() string { return n.descriptor }

// Register implements registry.ServiceDiscovery.
func (n *ServiceDiscovery) Register(instance registry.ServiceInstance) error {
	n.mu.Lock()
	n.serviceInstances[instance.GetServiceName()] = append(n.serviceInstances[instance.GetServiceName()], instance)
	n.mu.Unlock()

	ok, err := n.namingClient.RegisterInstance(n.toRegisterParam(instance))
	if err != nil || !ok {
		return errors.Errorf("register nacos instance failed, err:%+v", err)
	}
	n.mu.Lock()
	n.registered = append(n.registered, instance)
	n.mu.Unlock()
	return nil
}

// Unregister implements registry.ServiceDiscovery.
func (n *ServiceDiscovery) Unregister(instance registry.ServiceInstance) error {
	ok, err := n.namingClient.DeregisterInstance(vo.DeregisterInstanceParam{
		ServiceName: instance.GetServiceName(),
		Ip:          instance.GetHost(),
		Port:        uint64(instance.GetPort()),
		GroupName:   n.group,
	})
	if err != nil || !ok {
		return errors.WithMessage(err, "could not unregister the instance: "+instance.GetServiceName())
	}
	return nil
}

// Destroy implements registry.ServiceDiscovery: unregisters every
// instance this process registered.
func (n *ServiceDiscovery) Destroy() error {
	n.mu.Lock()
	registered := n.registered
	n.mu.Unlock()

	for _, inst := range registered {
		if err := n.Unregister(inst); err != nil {
			logger.Errorf("unregister nacos instance %+v failed: %+v", inst, err)
		}
	}
	return nil
}

// AddListener implements registry.ServiceDiscovery: subscribes to every
// service name the listener cares about and translates each nacos
// SubscribeCallback into a registry.ServiceInstancesChangedEvent.
func (n *ServiceDiscovery) AddListener(listener registry.ServiceInstancesChangedListener) error {
	for _, serviceName := range listener.ServiceNames() {
		serviceName := serviceName
		n.mu.Lock()
		n.listenersByService[serviceName] = append(n.listenersByService[serviceName], listener)
		n.mu.Unlock()

		err := n.namingClient.Subscribe(&vo.SubscribeParam{
			ServiceName: serviceName,
			GroupName:   n.group,
			SubscribeCallback: func(services []model.Instance, err error) {
				if err != nil {
					logger.Errorf("nacos subscribe callback error for service %s: %v", serviceName, err)
					return
				}
				n.dispatch(serviceName, services)
			},
		})
		if err != nil {
			return errors.WithMessage(err, "subscribe to nacos service failed: "+serviceName)
		}
	}
	return nil
}

func (n *ServiceDiscovery) dispatch(serviceName string, services []model.Instance) {
	instances := make([]registry.ServiceInstance, 0, len(services))
	for _, svc := range services {
		metadata := svc.Metadata
		id := metadata[idKey]
		delete(metadata, idKey)
		instances = append(instances, &registry.DefaultServiceInstance{
			ID:          id,
			ServiceName: serviceName,
			Host:        svc.Ip,
			Port:        int(svc.Port),
			Weight:      int64(math.Round(svc.Weight)),
			Enable:      svc.Enable,
			Healthy:     true,
			Metadata:    metadata,
			GroupName:   n.group,
		})
	}

	n.mu.Lock()
	listeners := append([]registry.ServiceInstancesChangedListener{}, n.listenersByService[serviceName]...)
	n.mu.Unlock()

	event := registry.NewServiceInstancesChangedEvent(serviceName, instances)
	for _, l := range listeners {
		if err := l.OnEvent(event); err != nil {
			logger.Errorf("dispatching nacos instance change for %s failed: %v", serviceName, err)
		}
	}
}

func (n *ServiceDiscovery) toRegisterParam(instance registry.ServiceInstance) vo.RegisterInstanceParam {
	metadata := instance.GetMetadata()
	if metadata == nil {
		metadata = make(map[string]string, 1)
	}

	w := instance.GetWeight()
	switch {
	case w <= 0:
		w = dconstant.DefaultNacosWeight
	case w > dconstant.MaxNacosWeight:
		w = dconstant.MaxNacosWeight
	}

	metadata[idKey] = instance.GetID()
	return vo.RegisterInstanceParam{
		ServiceName: instance.GetServiceName(),
		Ip:          instance.GetHost(),
		Port:        uint64(instance.GetPort()),
		Metadata:    metadata,
		Weight:      float64(w),
		Enable:      instance.IsEnable(),
		Healthy:     instance.IsHealthy(),
		GroupName:   n.group,
		Ephemeral:   true,
	}
}
